// Package platlayer unifies window creation, input-device handling and
// OpenGL context setup behind one API. A Platform is opened once per process
// on the thread that will drain its events; native backends are selected at
// Open from the compiled-in variants and the runtime environment.
package platlayer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/config"
	"github.com/1broseidon/platlayer/internal/device"
	"github.com/1broseidon/platlayer/internal/event"
	"github.com/1broseidon/platlayer/internal/glctx"
	"github.com/1broseidon/platlayer/internal/perr"
	"github.com/1broseidon/platlayer/internal/pump"
	"github.com/1broseidon/platlayer/internal/reconcile"
	"github.com/1broseidon/platlayer/internal/translate"
	"github.com/1broseidon/platlayer/internal/window"
)

// Options configures Open.
type Options struct {
	// Config defaults to config.DefaultConfig.
	Config *config.Config
	// Backend overrides Config.Backend when set.
	Backend string
	Logger  *slog.Logger
}

// Platform is the application's handle on the native platform. Window,
// context and event calls belong to the goroutine that opened it; Wake may
// be called from anywhere.
type Platform struct {
	cfg    *config.Config
	logger *slog.Logger
	clock  *event.Clock

	backend    backend.Backend
	queue      *event.Queue
	devices    *device.Registry
	windows    *window.Manager
	contexts   *glctx.Manager
	translator *translate.Translator
	pump       *pump.Pump

	tasks  chan func()
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// Open selects a backend and starts the device watcher and reconciler.
func Open(opts Options) (*Platform, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, perr.New("platlayer.Open", perr.ErrInvalidArgument, "", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	preference := cfg.Backend
	if opts.Backend != "" {
		preference = opts.Backend
	}

	clock := event.NewClock()
	b, err := backend.Select(preference, backend.Options{
		Display:        cfg.Display,
		Clock:          clock,
		Logger:         logger,
		HotplugDevices: cfg.Devices.Enabled,
		FormatHint:     cfg.PixelFormat,
		ContextHint:    cfg.ContextSettings(),
	})
	if err != nil {
		return nil, err
	}

	p := &Platform{
		cfg:     cfg,
		logger:  logger.With("backend", b.Name()),
		clock:   clock,
		backend: b,
		queue:   event.NewQueue(event.QueueOptions{CoalesceGeometry: cfg.Events.CoalesceGeometry}),
		tasks:   make(chan func(), 1),
	}
	p.wire()
	p.start()
	p.logger.Info("platform opened")
	return p, nil
}

func (p *Platform) wire() {
	var source backend.DeviceSource
	if p.cfg.Devices.Enabled {
		source = p.backend.Devices()
	}
	p.devices = device.NewRegistry(device.Config{
		Source:       source,
		Queue:        p.queue,
		Clock:        p.clock,
		Logger:       p.logger,
		ProbeTimeout: p.cfg.ProbeTimeout(),
	})
	p.queue.SetHooks(p.devices.Hooks())

	p.windows = window.NewManager(window.Options{
		Backend: p.backend,
		Queue:   p.queue,
		Clock:   p.clock,
		Logger:  p.logger,
	})
	p.contexts = glctx.NewManager(glctx.Options{
		GL:      p.backend,
		Windows: p.windows,
		Clock:   p.clock,
		Logger:  p.logger,
	})
	keymap, _ := p.backend.(backend.Keymap)
	p.translator = translate.New(translate.Config{
		Windows: p.windows,
		Devices: p.devices,
		Keymap:  keymap,
		Logger:  p.logger,
	})
	p.windows.OnClose(func(id event.WindowID) {
		p.contexts.WindowClosed(id)
		p.translator.Forget(id)
	})
}

func (p *Platform) start() {
	p.ctx, p.cancel = context.WithCancel(context.Background())

	var feed chan backend.Notification
	if source := p.backend.Devices(); source != nil && p.cfg.Devices.Enabled {
		if err := p.devices.Scan(); err != nil {
			p.logger.Warn("initial device scan failed", "error", err)
		}
		feed = make(chan backend.Notification, p.cfg.Events.HotplugBuffer)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			if err := source.Watch(p.ctx, feed, p.backend.Interrupt); err != nil {
				p.logger.Warn("device watch stopped", "error", err)
			}
		}()
	}

	cfg := pump.Config{
		Events:     p.backend,
		Tasks:      p.tasks,
		Translator: p.translator,
		Windows:    p.windows,
		Devices:    p.devices,
		Queue:      p.queue,
		Logger:     p.logger,
	}
	if feed != nil {
		cfg.DeviceFeed = feed
	}
	p.pump = pump.New(cfg)

	if interval := p.cfg.ReconcileInterval(); interval > 0 {
		rec := reconcile.New(reconcile.Config{
			Interval: interval,
			Logger:   p.logger.With("component", "reconciler"),
			Sweep:    p.sweepOnOwner,
		}, p.windows)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			rec.Run(p.ctx)
		}()
	}
}

// sweepOnOwner runs a reconciliation sweep on the goroutine that drains
// events, so backends bound to one OS thread are only touched from it. The
// sweep happens at the next Poll or Wait.
func (p *Platform) sweepOnOwner(s reconcile.Sweeper) (int, error) {
	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	task := func() {
		n, err := s.Sweep()
		done <- result{n, err}
	}
	select {
	case p.tasks <- task:
	case <-p.ctx.Done():
		return 0, nil
	}
	p.backend.Interrupt()
	select {
	case r := <-done:
		return r.n, r.err
	case <-p.ctx.Done():
		return 0, nil
	}
}

// Close destroys every context and window, stops background goroutines and
// closes the backend. Calling it again is a no-op; any other call after
// Close is a fatal precondition violation.
func (p *Platform) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.cancel()
	p.wg.Wait()

	p.contexts.DestroyAll()
	p.windows.CloseAll()
	if err := p.backend.Close(); err != nil {
		return perr.Platform("platlayer.Close", fmt.Errorf("failed to close backend: %w", err))
	}
	p.logger.Info("platform closed")
	return nil
}

func (p *Platform) check(op string) {
	if p.closed.Load() {
		perr.Violate(p.logger, op, "platform is closed")
	}
}

// Backend returns the name of the selected backend variant.
func (p *Platform) Backend() string {
	p.check("platlayer.Backend")
	return p.backend.Name()
}

// Config returns the effective configuration.
func (p *Platform) Config() *config.Config {
	p.check("platlayer.Config")
	return p.cfg
}

// Now returns the current event timestamp.
func (p *Platform) Now() Timestamp {
	return p.clock.Now()
}

// Poll pumps every source once and returns the oldest event without
// blocking.
func (p *Platform) Poll() (Event, bool) {
	p.check("platlayer.Poll")
	return p.pump.Poll()
}

// Wait returns the oldest event, blocking until one arrives, the timeout
// elapses or Wake is called. A negative timeout waits indefinitely.
func (p *Platform) Wait(timeout time.Duration) (Event, bool) {
	p.check("platlayer.Wait")
	return p.pump.Wait(timeout)
}

// Wake interrupts a blocked Wait from any goroutine. It is a no-op once the
// platform is closed so shutdown sequences may call it unconditionally.
func (p *Platform) Wake() {
	if p.closed.Load() {
		return
	}
	p.pump.Wake()
}

// Err reports a native display connection that was lost for good. It wraps
// ErrPlatform. Every window has been closed by then and Wait returns as soon
// as the queue is drained.
func (p *Platform) Err() error {
	if err := p.pump.Err(); err != nil {
		return perr.Platform("platlayer.Err", err)
	}
	return nil
}

// Stats returns queue traffic counters.
func (p *Platform) Stats() QueueStats {
	p.check("platlayer.Stats")
	return p.queue.Stats()
}

// Duplicates returns how many repeated native notifications were dropped.
func (p *Platform) Duplicates() uint64 {
	p.check("platlayer.Duplicates")
	return p.pump.Duplicates()
}
