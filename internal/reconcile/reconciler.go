// Package reconcile periodically checks that every live window still has
// its native counterpart and closes the ones the OS destroyed without a
// notification reaching the event stream.
package reconcile

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper checks live windows against the backend and reports how many
// were reconciled to Closed.
type Sweeper interface {
	Sweep() (int, error)
}

// SweeperFunc adapts a function to Sweeper.
type SweeperFunc func() (int, error)

func (f SweeperFunc) Sweep() (int, error) { return f() }

// Config holds configuration for the reconciler.
type Config struct {
	Interval time.Duration
	Logger   *slog.Logger
	// Sweep, when set, runs on the reconciler goroutine instead of calling
	// the Sweeper directly. Backends that are bound to one OS thread use it
	// to hop onto that thread.
	Sweep func(Sweeper) (int, error)
}

// Reconciler periodically sweeps for windows destroyed behind our back.
type Reconciler struct {
	interval time.Duration
	sweeper  Sweeper
	sweep    func(Sweeper) (int, error)
	logger   *slog.Logger
}

// New creates a reconciler. A non-positive interval defaults to two
// seconds.
func New(cfg Config, sweeper Sweeper) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sweep := cfg.Sweep
	if sweep == nil {
		sweep = func(s Sweeper) (int, error) { return s.Sweep() }
	}
	return &Reconciler{
		interval: interval,
		sweeper:  sweeper,
		sweep:    sweep,
		logger:   logger,
	}
}

// Run starts the reconciliation loop. Blocks until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Debug("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("reconciler stopped")
			return
		case <-ticker.C:
			r.Reconcile()
		}
	}
}

// Reconcile performs a single pass and returns the number of windows
// reconciled.
func (r *Reconciler) Reconcile() (n int) {
	// Recover from panics to keep the loop alive
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
			n = 0
		}
	}()

	n, err := r.sweep(r.sweeper)
	if err != nil {
		r.logger.Error("reconciler: sweep failed", "error", err)
	}
	if n > 0 {
		r.logger.Info("reconciler: closed externally destroyed windows", "count", n)
	}
	return n
}
