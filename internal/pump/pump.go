// Package pump drains every notification source in arrival order and feeds
// the event queue.
package pump

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

// Translator converts raw notifications into events.
type Translator interface {
	Translate(n backend.Notification) []event.Event
}

// Windows receives external window destruction.
type Windows interface {
	Reconcile(native uintptr) bool
}

// Devices receives hotplug notifications.
type Devices interface {
	OnArrival(desc backend.DeviceDescriptor) (event.DeviceID, error)
	OnRemoval(desc backend.DeviceDescriptor)
}

// Config configures a Pump.
type Config struct {
	Events backend.EventSource
	// DeviceFeed carries notifications from background device sources.
	// May be nil.
	DeviceFeed <-chan backend.Notification
	// Tasks carries work that must run on the consumer goroutine, such as
	// calls into a backend bound to one OS thread. May be nil.
	Tasks      <-chan func()
	Translator Translator
	Windows    Windows
	Devices    Devices
	Queue      *event.Queue
	Logger     *slog.Logger
}

// Pump is driven by a single consumer goroutine. Wake may be called from
// any goroutine.
type Pump struct {
	events     backend.EventSource
	deviceFeed <-chan backend.Notification
	tasks      <-chan func()
	translator Translator
	windows    Windows
	devices    Devices
	queue      *event.Queue
	logger     *slog.Logger

	woken      atomic.Bool
	mu         sync.Mutex
	lastSerial map[string]uint64
	duplicates uint64
	// disconnected is the error of a native source that is gone for good.
	disconnected error
}

// New returns a pump.
func New(cfg Config) *Pump {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pump{
		events:     cfg.Events,
		deviceFeed: cfg.DeviceFeed,
		tasks:      cfg.Tasks,
		translator: cfg.Translator,
		windows:    cfg.Windows,
		devices:    cfg.Devices,
		queue:      cfg.Queue,
		logger:     logger.With("component", "pump"),
		lastSerial: make(map[string]uint64),
	}
}

// PumpOnce runs pending tasks, then moves every pending notification from
// all sources into the queue. A native read error is returned after the
// device batch has still been processed.
func (p *Pump) PumpOnce() error {
	p.runTasks()
	nativeBatch, err := p.events.PollNative()
	if err != nil {
		p.noteDisconnect(err)
		err = fmt.Errorf("failed to poll native events: %w", err)
	}
	for _, n := range merge(nativeBatch, p.drainDevices()) {
		p.dispatch(n)
	}
	return err
}

// Poll pumps all sources once and returns the oldest queued event.
func (p *Pump) Poll() (event.Event, bool) {
	_ = p.PumpOnce()
	return p.queue.Pop()
}

// Wait returns the oldest event, blocking until one is available, the
// timeout elapses or Wake is called. A negative timeout waits indefinitely.
func (p *Pump) Wait(timeout time.Duration) (event.Event, bool) {
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		if p.woken.Swap(false) {
			return nil, false
		}
		err := p.PumpOnce()
		if ev, ok := p.queue.Pop(); ok {
			return ev, true
		}
		if err != nil && p.Err() != nil {
			return nil, false
		}

		remaining := time.Duration(-1)
		if timeout >= 0 {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				return nil, false
			}
		}
		if err := p.events.WaitNative(remaining); err != nil {
			p.noteDisconnect(err)
			return nil, false
		}
	}
}

// Wake interrupts a blocked Wait, or the next one if none is blocked.
func (p *Pump) Wake() {
	p.woken.Store(true)
	p.events.Interrupt()
}

// Duplicates returns how many already-seen notifications were dropped.
func (p *Pump) Duplicates() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duplicates
}

// Err returns the error of a native source that disconnected for good, or
// nil. Once set, Wait returns as soon as the queue is empty.
func (p *Pump) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disconnected
}

// noteDisconnect logs a native error, once for a disconnect.
func (p *Pump) noteDisconnect(err error) {
	if !errors.Is(err, backend.ErrDisconnected) {
		p.logger.Warn("native event source failed", "error", err)
		return
	}
	p.mu.Lock()
	first := p.disconnected == nil
	if first {
		p.disconnected = err
	}
	p.mu.Unlock()
	if first {
		p.logger.Error("native event source disconnected", "error", err)
	}
}

func (p *Pump) runTasks() {
	if p.tasks == nil {
		return
	}
	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				p.tasks = nil
				return
			}
			task()
		default:
			return
		}
	}
}

func (p *Pump) drainDevices() []backend.Notification {
	if p.deviceFeed == nil {
		return nil
	}
	var out []backend.Notification
	for {
		select {
		case n, ok := <-p.deviceFeed:
			if !ok {
				p.deviceFeed = nil
				return out
			}
			out = append(out, n)
		default:
			return out
		}
	}
}

func (p *Pump) dispatch(n backend.Notification) {
	if p.seen(n) {
		p.logger.Debug("dropping duplicate notification", "source", n.Source, "serial", n.Serial)
		return
	}

	switch n.Kind {
	case backend.NotifyDeviceAdded:
		if p.devices != nil {
			// Failures are logged by the registry; other devices are unaffected.
			_, _ = p.devices.OnArrival(n.Device)
		}
	case backend.NotifyDeviceRemoved:
		if p.devices != nil {
			p.devices.OnRemoval(n.Device)
		}
	case backend.NotifyWindowDestroyed:
		if !p.windows.Reconcile(n.Window) {
			p.logger.Debug("destroy notification for unmapped window", "native", n.Window)
		}
	default:
		for _, ev := range p.translator.Translate(n) {
			p.queue.Push(ev)
		}
	}
}

// seen reports whether n repeats a serial already dispatched for its source.
func (p *Pump) seen(n backend.Notification) bool {
	if n.Serial == 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if n.Serial <= p.lastSerial[n.Source] {
		p.duplicates++
		return true
	}
	p.lastSerial[n.Source] = n.Serial
	return false
}

// merge interleaves two batches by arrival time, keeping each batch's own
// order and preferring a on ties.
func merge(a, b []backend.Notification) []backend.Notification {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return b
	}
	out := make([]backend.Notification, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if b[j].Arrival < a[i].Arrival {
			out = append(out, b[j])
			j++
		} else {
			out = append(out, a[i])
			i++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
