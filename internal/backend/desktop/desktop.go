//go:build glfw

// Package desktop is a portable backend on GLFW, built with the glfw tag.
// GLFW must be driven from the main OS thread: open the backend, create
// windows and poll events there. Each window carries exactly one OpenGL
// context, fixed when the window is created from the open-time hints.
package desktop

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

// Name is the variant name.
const Name = "glfw"

// joystickInterval caps blocking waits while joysticks are watched, since
// GLFW only samples them when polled.
const joystickInterval = 10 * time.Millisecond

func init() {
	backend.Register(backend.Variant{
		Name:      Name,
		Priority:  10,
		Available: func(backend.Options) bool { return true },
		Open: func(opts backend.Options) (backend.Backend, error) {
			return Open(opts)
		},
	})
}

type window struct {
	gw   *glfw.Window
	spec backend.WindowSpec
	ctx  uintptr

	fullscreen bool
	// restore is the windowed position and size before fullscreen.
	restore [4]int
}

// Backend is the GLFW backend.
type Backend struct {
	logger  *slog.Logger
	seq     *backend.Sequencer
	format  backend.PixelFormat
	context backend.ContextSettings

	mu         sync.Mutex
	pending    []backend.Notification
	windows    map[uintptr]*window
	natives    map[*glfw.Window]uintptr
	contexts   map[uintptr]uintptr
	current    uintptr
	nextNative uintptr

	joysticks *JoystickSource
}

var (
	_ backend.Backend = (*Backend)(nil)
	_ backend.Keymap  = (*Backend)(nil)
	_ backend.Cursor  = (*Backend)(nil)
)

// Open initializes GLFW on the calling thread.
func Open(opts backend.Options) (*Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %w", err)
	}
	format := opts.FormatHint
	if format == (backend.PixelFormat{}) {
		format = backend.DefaultPixelFormat()
	}
	b := &Backend{
		logger:     logger.With("backend", Name),
		seq:        backend.NewSequencer(Name, opts.Clock),
		format:     format,
		context:    opts.ContextHint,
		windows:    make(map[uintptr]*window),
		natives:    make(map[*glfw.Window]uintptr),
		contexts:   make(map[uintptr]uintptr),
		nextNative: 1,
	}
	if opts.HotplugDevices {
		b.joysticks = newJoystickSource(opts.Clock, b.logger)
		glfw.SetJoystickCallback(b.joysticks.onJoystick)
	}
	return b, nil
}

func (b *Backend) Name() string { return Name }

func (b *Backend) Devices() backend.DeviceSource {
	if b.joysticks == nil {
		return nil
	}
	return b.joysticks
}

func (b *Backend) Close() error {
	b.mu.Lock()
	natives := make([]uintptr, 0, len(b.windows))
	for native := range b.windows {
		natives = append(natives, native)
	}
	b.mu.Unlock()
	for _, native := range natives {
		b.DestroyWindow(native)
	}
	if b.joysticks != nil {
		glfw.SetJoystickCallback(nil)
	}
	glfw.Terminate()
	return nil
}

func (b *Backend) push(n backend.Notification) {
	b.mu.Lock()
	b.pending = append(b.pending, b.seq.Stamp(n))
	b.mu.Unlock()
}

// PollNative runs the GLFW callbacks for queued OS events and samples
// joysticks.
func (b *Backend) PollNative() ([]backend.Notification, error) {
	glfw.PollEvents()
	if b.joysticks != nil {
		b.joysticks.sample()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out, nil
}

func (b *Backend) WaitNative(timeout time.Duration) error {
	b.mu.Lock()
	ready := len(b.pending) > 0
	b.mu.Unlock()
	if ready {
		return nil
	}
	if b.joysticks != nil && b.joysticks.watched() && (timeout < 0 || timeout > joystickInterval) {
		timeout = joystickInterval
	}
	if timeout < 0 {
		glfw.WaitEvents()
		return nil
	}
	glfw.WaitEventsTimeout(timeout.Seconds())
	return nil
}

// Interrupt posts an empty event, which GLFW allows from any thread.
func (b *Backend) Interrupt() {
	glfw.PostEmptyEvent()
}

func (b *Backend) Key(sc event.Scancode) (event.Key, bool) {
	return event.DefaultKey(sc)
}

func (b *Backend) Scancode(k event.Key) (event.Scancode, bool) {
	return event.DefaultScancode(k)
}
