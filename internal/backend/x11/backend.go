//go:build linux

// Package x11 is the X Window System backend. It speaks the X protocol
// directly and uses GLX over the wire for OpenGL contexts.
package x11

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/glx"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/backend/evdev"
	"github.com/1broseidon/platlayer/internal/event"
)

// Name is the variant name.
const Name = "x11"

func init() {
	backend.Register(backend.Variant{
		Name:     Name,
		Priority: 20,
		Available: func(opts backend.Options) bool {
			return opts.Display != "" || os.Getenv("DISPLAY") != ""
		},
		Open: func(opts backend.Options) (backend.Backend, error) {
			return Open(opts)
		},
	})
}

// ErrConnectionLost is returned by PollNative and WaitNative once the X
// server has closed the connection and every pending notification has been
// read.
var ErrConnectionLost = fmt.Errorf("x11 connection lost: %w", backend.ErrDisconnected)

// Backend is the X11 backend.
type Backend struct {
	conn   *Connection
	logger *slog.Logger
	seq    *backend.Sequencer
	wake   chan struct{}
	dec    *decoder
	keys   keymap
	cancel context.CancelFunc

	devices backend.DeviceSource

	mu      sync.Mutex
	pending []backend.Notification
	windows map[xproto.Window]backend.WindowSpec
	lost    bool

	cursorMu sync.Mutex
	blank    xproto.Cursor

	glxMu      sync.Mutex
	glxReady   bool
	contexts   map[uintptr]*glxContext
	currentTag glx.ContextTag
}

var (
	_ backend.Backend = (*Backend)(nil)
	_ backend.Keymap  = (*Backend)(nil)
	_ backend.Cursor  = (*Backend)(nil)
)

// Open connects to the display and starts reading events.
func Open(opts backend.Options) (*Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := NewConnection(opts.Display)
	if err != nil {
		return nil, err
	}

	b := &Backend{
		conn:     conn,
		logger:   logger.With("backend", Name),
		seq:      backend.NewSequencer(Name, opts.Clock),
		wake:     make(chan struct{}, 1),
		keys:     keymap{conn: conn},
		windows:  make(map[xproto.Window]backend.WindowSpec),
		contexts: make(map[uintptr]*glxContext),
	}

	b.dec = &decoder{
		owned:    b.owns,
		position: b.rootPosition,
		state:    b.windowState,
		scale:    func(w xproto.Window) float64 { return b.Scale(uintptr(w)) },
		key: func(kc xproto.Keycode) (event.Key, bool) {
			return b.keys.Key(keycodeToScancode(kc))
		},
	}
	for name, dst := range map[string]*xproto.Atom{
		"WM_PROTOCOLS":     &b.dec.wmProtocols,
		"WM_DELETE_WINDOW": &b.dec.wmDeleteWindow,
		"_NET_WM_STATE":    &b.dec.netWMState,
	} {
		atom, err := conn.Atom(name)
		if err != nil {
			conn.Close()
			return nil, err
		}
		*dst = atom
	}

	if opts.HotplugDevices {
		b.devices = evdev.New(evdev.Options{Clock: opts.Clock, Logger: logger})
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	go b.readEvents(ctx)

	b.logger.Info("connected to X server", "root", b.conn.Root)
	return b, nil
}

func (b *Backend) Name() string { return Name }

func (b *Backend) Devices() backend.DeviceSource { return b.devices }

func (b *Backend) Close() error {
	b.cancel()
	b.conn.Close()
	return nil
}

func (b *Backend) Key(sc event.Scancode) (event.Key, bool) { return b.keys.Key(sc) }

func (b *Backend) Scancode(k event.Key) (event.Scancode, bool) { return b.keys.Scancode(k) }

// readEvents blocks on the X connection and decodes everything queued
// behind each event before publishing the batch.
func (b *Backend) readEvents(ctx context.Context) {
	xc := b.conn.XUtil.Conn()
	for {
		ev, xerr := xc.WaitForEvent()
		if ev == nil && xerr == nil {
			if ctx.Err() == nil {
				b.logger.Error("X server closed the connection")
			}
			b.connectionLost()
			return
		}
		if xerr != nil {
			b.logger.Debug("x11 error event", "error", xerr)
			continue
		}

		batch := b.dec.decode(ev)
		for {
			ev, xerr = xc.PollForEvent()
			if ev == nil && xerr == nil {
				break
			}
			if xerr != nil {
				b.logger.Debug("x11 error event", "error", xerr)
				continue
			}
			batch = append(batch, b.dec.decode(ev)...)
		}
		batch = append(batch, b.dec.flush()...)
		if len(batch) == 0 {
			continue
		}

		b.mu.Lock()
		for _, n := range batch {
			b.pending = append(b.pending, b.seq.Stamp(n))
		}
		b.mu.Unlock()
		b.Interrupt()
	}
}

// connectionLost queues a destroy notification for every owned window,
// since the server destroys a client's windows when its connection ends,
// and marks the backend lost.
func (b *Backend) connectionLost() {
	b.mu.Lock()
	for _, wid := range slices.Sorted(maps.Keys(b.windows)) {
		b.pending = append(b.pending, b.seq.Stamp(backend.Notification{
			Kind:   backend.NotifyWindowDestroyed,
			Window: uintptr(wid),
		}))
	}
	clear(b.windows)
	b.lost = true
	b.mu.Unlock()
	b.Interrupt()
}

func (b *Backend) rootPosition(w xproto.Window) (int, int, bool) {
	x, y, _, _, err := b.conn.RootGeometry(w)
	if err != nil {
		return 0, 0, false
	}
	return x, y, true
}

func (b *Backend) PollNative() ([]backend.Notification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	if len(out) == 0 && b.lost {
		return nil, ErrConnectionLost
	}
	return out, nil
}

func (b *Backend) WaitNative(timeout time.Duration) error {
	b.mu.Lock()
	pending, lost := len(b.pending) > 0, b.lost
	b.mu.Unlock()
	if pending {
		return nil
	}
	if lost {
		return ErrConnectionLost
	}

	if timeout < 0 {
		<-b.wake
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-b.wake:
	case <-timer.C:
	}
	return nil
}

func (b *Backend) Interrupt() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}
