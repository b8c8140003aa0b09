// Package headless is an in-memory backend. It creates no native resources
// and lets callers inject notifications, which makes it the backend for
// tests and for machines without a display.
package headless

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

// Name is the variant name.
const Name = "headless"

// ErrDisconnected is reported by PollNative and WaitNative after Disconnect.
var ErrDisconnected = fmt.Errorf("headless display disconnected: %w", backend.ErrDisconnected)

func init() {
	backend.Register(backend.Variant{
		Name:      Name,
		Priority:  0,
		Available: func(backend.Options) bool { return true },
		Open: func(opts backend.Options) (backend.Backend, error) {
			return New(opts), nil
		},
	})
}

type window struct {
	spec         backend.WindowSpec
	geometry     event.Geometry
	state        event.WindowState
	focused      bool
	cursorHidden bool
}

type glContext struct {
	window uintptr
	format backend.FormatCandidate
	swaps  int
	// interval is the last swap interval set.
	interval int
}

// Backend is the headless backend.
type Backend struct {
	logger *slog.Logger
	clock  *event.Clock
	seq    *backend.Sequencer
	wake   chan struct{}

	mu         sync.Mutex
	pending    []backend.Notification
	windows    map[uintptr]*window
	contexts   map[uintptr]*glContext
	current    uintptr
	nextNative uintptr
	minWidth   int
	minHeight  int
	scale      float64
	formats    []backend.FormatCandidate
	keymap     map[event.Scancode]event.Key
	failCreate error
	pollErr    error
	devices    *DeviceSource
	closed     bool
	lost       bool
}

var (
	_ backend.Backend = (*Backend)(nil)
	_ backend.Keymap  = (*Backend)(nil)
)

// New returns an empty headless backend. It always has a device source.
func New(opts backend.Options) *Backend {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = event.NewClock()
	}
	b := &Backend{
		logger:     logger,
		clock:      clock,
		seq:        backend.NewSequencer(Name, clock),
		wake:       make(chan struct{}, 1),
		windows:    make(map[uintptr]*window),
		contexts:   make(map[uintptr]*glContext),
		nextNative: 0x1000,
		minWidth:   1,
		minHeight:  1,
		scale:      1,
		formats:    DefaultFormats(),
	}
	b.devices = newDeviceSource(clock)
	return b
}

// DefaultFormats is the format list a fresh headless backend offers.
func DefaultFormats() []backend.FormatCandidate {
	return []backend.FormatCandidate{
		{ID: 1, Format: backend.PixelFormat{RedBits: 5, GreenBits: 6, BlueBits: 5, DepthBits: 16, DoubleBuffer: true}},
		{ID: 2, Format: backend.PixelFormat{RedBits: 8, GreenBits: 8, BlueBits: 8, AlphaBits: 8, DepthBits: 24, StencilBits: 8, DoubleBuffer: true}},
		{ID: 3, Format: backend.PixelFormat{RedBits: 8, GreenBits: 8, BlueBits: 8, AlphaBits: 8, DepthBits: 24, StencilBits: 8, Samples: 4, DoubleBuffer: true}},
		{ID: 4, Format: backend.PixelFormat{RedBits: 10, GreenBits: 10, BlueBits: 10, AlphaBits: 2, DepthBits: 32, StencilBits: 8, DoubleBuffer: true, SRGB: true}},
	}
}

func (b *Backend) Name() string { return Name }

// Devices returns the injectable device source.
func (b *Backend) Devices() backend.DeviceSource { return b.devices }

// DeviceSource returns the concrete device source for injection.
func (b *Backend) DeviceSource() *DeviceSource { return b.devices }

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// SetMinSize sets the OS minimum client size reported by MinSize.
func (b *Backend) SetMinSize(width, height int) {
	b.mu.Lock()
	b.minWidth, b.minHeight = width, height
	b.mu.Unlock()
}

// SetScale sets the scale reported for every window.
func (b *Backend) SetScale(scale float64) {
	b.mu.Lock()
	b.scale = scale
	b.mu.Unlock()
}

// SetFormats replaces the offered pixel formats.
func (b *Backend) SetFormats(formats []backend.FormatCandidate) {
	b.mu.Lock()
	b.formats = append([]backend.FormatCandidate(nil), formats...)
	b.mu.Unlock()
}

// SetKeymap installs a layout consulted before the built-in table.
func (b *Backend) SetKeymap(m map[event.Scancode]event.Key) {
	b.mu.Lock()
	b.keymap = m
	b.mu.Unlock()
}

// FailNextCreate makes the next CreateWindow return err.
func (b *Backend) FailNextCreate(err error) {
	b.mu.Lock()
	b.failCreate = err
	b.mu.Unlock()
}

// FailNextPoll makes the next PollNative return err.
func (b *Backend) FailNextPoll(err error) {
	b.mu.Lock()
	b.pollErr = err
	b.mu.Unlock()
}

// Inject stamps n with the next serial and queues it for PollNative. It is
// safe for concurrent use; serials reach PollNative in increasing order.
func (b *Backend) Inject(n backend.Notification) backend.Notification {
	b.mu.Lock()
	n = b.seq.Stamp(n)
	b.pending = append(b.pending, n)
	b.mu.Unlock()
	b.Interrupt()
	return n
}

// InjectRaw queues n unchanged, for replaying an already-stamped
// notification.
func (b *Backend) InjectRaw(n backend.Notification) {
	b.mu.Lock()
	b.pending = append(b.pending, n)
	b.mu.Unlock()
	b.Interrupt()
}

// DestroyExternally removes a window as if the OS or user destroyed it and
// reports the destruction.
func (b *Backend) DestroyExternally(native uintptr) {
	b.DestroySilently(native)
	b.Inject(backend.Notification{Kind: backend.NotifyWindowDestroyed, Window: native})
}

// DestroySilently removes a window without any notification, as when a
// destroy message is lost.
func (b *Backend) DestroySilently(native uintptr) {
	b.mu.Lock()
	delete(b.windows, native)
	b.mu.Unlock()
}

// Disconnect simulates losing the display connection: every window is
// destroyed with a notification, and once those are read the source reports
// ErrDisconnected.
func (b *Backend) Disconnect() {
	b.mu.Lock()
	natives := make([]uintptr, 0, len(b.windows))
	for native := range b.windows {
		natives = append(natives, native)
	}
	sort.Slice(natives, func(i, j int) bool { return natives[i] < natives[j] })
	for _, native := range natives {
		delete(b.windows, native)
		b.pending = append(b.pending, b.seq.Stamp(backend.Notification{Kind: backend.NotifyWindowDestroyed, Window: native}))
	}
	b.lost = true
	b.mu.Unlock()
	b.Interrupt()
}

// Natives returns the live native window handles in creation order.
func (b *Backend) Natives() []uintptr {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]uintptr, 0, len(b.windows))
	for native := range b.windows {
		out = append(out, native)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Spec returns the creation request of a live window.
func (b *Backend) Spec(native uintptr) (backend.WindowSpec, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[native]
	if !ok {
		return backend.WindowSpec{}, false
	}
	return w.spec, true
}

// Swaps returns how many times a context has been presented.
func (b *Backend) Swaps(ctx uintptr) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.contexts[ctx]; ok {
		return c.swaps
	}
	return 0
}

// ContextCount returns the number of live contexts.
func (b *Backend) ContextCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.contexts)
}

func (b *Backend) PollNative() ([]backend.Notification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.pollErr; err != nil {
		b.pollErr = nil
		return nil, err
	}
	out := b.pending
	b.pending = nil
	if len(out) == 0 && b.lost {
		return nil, ErrDisconnected
	}
	return out, nil
}

func (b *Backend) WaitNative(timeout time.Duration) error {
	b.mu.Lock()
	ready, lost := len(b.pending) > 0, b.lost
	b.mu.Unlock()
	if ready {
		return nil
	}
	if lost {
		return ErrDisconnected
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

func (b *Backend) CreateWindow(spec backend.WindowSpec) (backend.WindowInfo, error) {
	b.mu.Lock()
	if err := b.failCreate; err != nil {
		b.failCreate = nil
		b.mu.Unlock()
		return backend.WindowInfo{}, err
	}
	b.nextNative++
	native := b.nextNative
	w := &window{
		spec:  spec,
		state: event.StateNormal,
		geometry: event.Geometry{
			X:     spec.X,
			Y:     spec.Y,
			Size:  event.Size{Width: spec.Width, Height: spec.Height},
			Scale: b.scale,
		},
	}
	if spec.Fullscreen {
		w.state = event.StateFullscreen
	}
	b.windows[native] = w
	info := backend.WindowInfo{Native: native, Geometry: w.geometry, State: w.state}
	b.mu.Unlock()

	if spec.Visible {
		b.Inject(backend.Notification{Kind: backend.NotifyWindowVisibility, Window: native, Visible: true})
	}
	return info, nil
}

func (b *Backend) DestroyWindow(native uintptr) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.windows[native]; !ok {
		return fmt.Errorf("no window %#x", native)
	}
	delete(b.windows, native)
	return nil
}

// SetWindowState completes asynchronously: the new state is reported
// through PollNative.
func (b *Backend) SetWindowState(native uintptr, state event.WindowState) error {
	b.mu.Lock()
	w, ok := b.windows[native]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("no window %#x", native)
	}
	w.state = state
	b.mu.Unlock()

	b.Inject(backend.Notification{Kind: backend.NotifyWindowState, Window: native, State: state})
	return nil
}

func (b *Backend) SetWindowTitle(native uintptr, title string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[native]
	if !ok {
		return fmt.Errorf("no window %#x", native)
	}
	w.spec.Title = title
	return nil
}

func (b *Backend) SetWindowGeometry(native uintptr, x, y, width, height int) error {
	b.mu.Lock()
	w, ok := b.windows[native]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("no window %#x", native)
	}
	w.geometry.X, w.geometry.Y = x, y
	w.geometry.Size = event.Size{Width: width, Height: height}
	geom := w.geometry
	b.mu.Unlock()

	b.Inject(backend.Notification{Kind: backend.NotifyWindowGeometry, Window: native, Geometry: geom})
	return nil
}

func (b *Backend) SetCursorVisible(native uintptr, visible bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[native]
	if !ok {
		return fmt.Errorf("no window %#x", native)
	}
	w.cursorHidden = !visible
	return nil
}

// CursorHidden reports whether the cursor is hidden over native.
func (b *Backend) CursorHidden(native uintptr) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[native]
	return ok && w.cursorHidden
}

func (b *Backend) FocusWindow(native uintptr) error {
	b.mu.Lock()
	if _, ok := b.windows[native]; !ok {
		b.mu.Unlock()
		return fmt.Errorf("no window %#x", native)
	}
	var lost []uintptr
	for other, w := range b.windows {
		if other != native && w.focused {
			w.focused = false
			lost = append(lost, other)
		}
	}
	b.windows[native].focused = true
	b.mu.Unlock()

	for _, other := range lost {
		b.Inject(backend.Notification{Kind: backend.NotifyWindowFocus, Window: other, Focused: false})
	}
	b.Inject(backend.Notification{Kind: backend.NotifyWindowFocus, Window: native, Focused: true})
	return nil
}

func (b *Backend) WindowAlive(native uintptr) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.windows[native]
	return ok, nil
}

func (b *Backend) MinSize(bool) (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.minWidth, b.minHeight
}

func (b *Backend) Scale(uintptr) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scale
}

func (b *Backend) PixelFormats(window uintptr) ([]backend.FormatCandidate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.windows[window]; !ok {
		return nil, fmt.Errorf("no window %#x", window)
	}
	return append([]backend.FormatCandidate(nil), b.formats...), nil
}

func (b *Backend) CreateContext(window uintptr, format backend.FormatCandidate, _ backend.ContextSettings) (uintptr, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.windows[window]; !ok {
		return 0, fmt.Errorf("no window %#x", window)
	}
	b.nextNative++
	b.contexts[b.nextNative] = &glContext{window: window, format: format}
	return b.nextNative, nil
}

// MakeCurrent records the binding. The headless backend has no per-thread
// state, so it only tracks the most recent binding.
func (b *Backend) MakeCurrent(ctx, _ uintptr) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.contexts[ctx]; !ok {
		return fmt.Errorf("no context %#x", ctx)
	}
	b.current = ctx
	return nil
}

func (b *Backend) ClearCurrent() error {
	b.mu.Lock()
	b.current = 0
	b.mu.Unlock()
	return nil
}

func (b *Backend) DestroyContext(ctx uintptr) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.contexts[ctx]; !ok {
		return fmt.Errorf("no context %#x", ctx)
	}
	delete(b.contexts, ctx)
	if b.current == ctx {
		b.current = 0
	}
	return nil
}

func (b *Backend) SwapBuffers(ctx, window uintptr) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.contexts[ctx]
	if !ok {
		return fmt.Errorf("no context %#x", ctx)
	}
	if _, ok := b.windows[window]; !ok {
		return fmt.Errorf("window %#x is gone", window)
	}
	c.swaps++
	return nil
}

func (b *Backend) SetSwapInterval(ctx, _ uintptr, interval int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.contexts[ctx]
	if !ok {
		return fmt.Errorf("no context %#x", ctx)
	}
	c.interval = interval
	return nil
}

func (b *Backend) Key(sc event.Scancode) (event.Key, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k, ok := b.keymap[sc]
	return k, ok
}

func (b *Backend) Scancode(k event.Key) (event.Scancode, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sc, key := range b.keymap {
		if key == k {
			return sc, true
		}
	}
	return 0, false
}
