// Package window owns native windows: logical id minting, the lifecycle
// state machine and reconciliation with windows the OS destroyed on its own.
package window

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
	"github.com/1broseidon/platlayer/internal/native"
	"github.com/1broseidon/platlayer/internal/perr"
)

// Window is a snapshot of a managed window.
type Window struct {
	ID           event.WindowID
	Title        string
	Geometry     event.Geometry
	State        event.WindowState
	Focused      bool
	Visible      bool
	Resizable    bool
	Decorated    bool
	CursorHidden bool
}

type record struct {
	info   Window
	handle *native.Handle
}

// Options configures a Manager.
type Options struct {
	Backend backend.WindowSystem
	Queue   *event.Queue
	Clock   *event.Clock
	Logger  *slog.Logger
}

// Manager is the single owner of native window handles.
type Manager struct {
	ws     backend.WindowSystem
	queue  *event.Queue
	clock  *event.Clock
	logger *slog.Logger

	mu        sync.Mutex
	last      event.WindowID
	windows   map[event.WindowID]*record
	byNative  map[uintptr]event.WindowID
	observers []func(event.WindowID)
}

// NewManager returns a manager with no windows.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		ws:       opts.Backend,
		queue:    opts.Queue,
		clock:    opts.Clock,
		logger:   logger.With("component", "windows"),
		windows:  make(map[event.WindowID]*record),
		byNative: make(map[uintptr]event.WindowID),
	}
}

// OnClose registers fn to run after a window reaches Closed, before its
// Closed event is enqueued.
func (m *Manager) OnClose(fn func(event.WindowID)) {
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}

// Create opens a native window. Sizes below the OS minimum are clamped and
// the returned geometry shows the clamped size.
func (m *Manager) Create(cfg Config) (Window, error) {
	if err := cfg.Validate(); err != nil {
		return Window{}, err
	}

	spec := backend.WindowSpec{
		Title:      cfg.Title,
		Width:      cfg.Size[0],
		Height:     cfg.Size[1],
		Resizable:  cfg.Resizable,
		Decorated:  cfg.Decorated,
		Fullscreen: cfg.Fullscreen,
		Visible:    cfg.Visible,
	}
	if cfg.Position != nil {
		spec.X, spec.Y = cfg.Position[0], cfg.Position[1]
		spec.Positioned = true
	}
	spec.Width, spec.Height = m.clamp(spec.Width, spec.Height, cfg.Decorated)

	m.mu.Lock()
	defer m.mu.Unlock()

	info, err := m.ws.CreateWindow(spec)
	if err != nil {
		return Window{}, perr.Platform("window.Create", err)
	}

	m.last++
	id := m.last
	state := info.State
	if state == 0 {
		state = event.StateNormal
	}
	rec := &record{
		info: Window{
			ID:        id,
			Title:     cfg.Title,
			Geometry:  info.Geometry,
			State:     state,
			Resizable: cfg.Resizable,
			Decorated: cfg.Decorated,
		},
		handle: native.New(native.KindWindow, info.Native, m.ws.DestroyWindow, m.logger),
	}
	if rec.info.Geometry.Scale == 0 {
		rec.info.Geometry.Scale = m.ws.Scale(info.Native)
	}
	m.windows[id] = rec
	m.byNative[info.Native] = id

	m.logger.Info("window created", "window", uint64(id),
		"width", info.Geometry.Size.Width, "height", info.Geometry.Size.Height)
	return rec.info, nil
}

func (m *Manager) clamp(width, height int, decorated bool) (int, int) {
	minW, minH := m.ws.MinSize(decorated)
	w, h := max(width, minW), max(height, minH)
	if w != width || h != height {
		m.logger.Warn("window size below OS minimum, clamped",
			"requested_width", width, "requested_height", height,
			"width", w, "height", h)
	}
	return w, h
}

// SetState requests a visibility state. The change completes asynchronously
// and is reported as a StateChanged event.
func (m *Manager) SetState(id event.WindowID, state event.WindowState) error {
	switch state {
	case event.StateNormal, event.StateMinimized, event.StateMaximized, event.StateFullscreen:
	default:
		return perr.Invalid("window.SetState", "cannot request state %s", state)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.live("window.SetState", id)
	if err != nil {
		return err
	}
	if err := m.ws.SetWindowState(rec.handle.Raw(), state); err != nil {
		return perr.Platform("window.SetState", err)
	}
	return nil
}

// SetTitle changes the window title.
func (m *Manager) SetTitle(id event.WindowID, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.live("window.SetTitle", id)
	if err != nil {
		return err
	}
	if err := m.ws.SetWindowTitle(rec.handle.Raw(), title); err != nil {
		return perr.Platform("window.SetTitle", err)
	}
	rec.info.Title = title
	return nil
}

// SetCursorVisible shows or hides the pointer while it is over the window.
// Backends without cursor control report ErrPlatform wrapping
// backend.ErrNotSupported.
func (m *Manager) SetCursorVisible(id event.WindowID, visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.live("window.SetCursorVisible", id)
	if err != nil {
		return err
	}
	cursor, ok := m.ws.(backend.Cursor)
	if !ok {
		return perr.Platform("window.SetCursorVisible", backend.ErrNotSupported)
	}
	if err := cursor.SetCursorVisible(rec.handle.Raw(), visible); err != nil {
		return perr.Platform("window.SetCursorVisible", err)
	}
	rec.info.CursorHidden = !visible
	return nil
}

// CursorVisible reports whether the pointer is shown over the window.
func (m *Manager) CursorVisible(id event.WindowID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.live("window.CursorVisible", id)
	if err != nil {
		return false, err
	}
	return !rec.info.CursorHidden, nil
}

// SetSize requests a new client size, clamped to the OS minimum. The new
// geometry is reported as a Resized event.
func (m *Manager) SetSize(id event.WindowID, width, height int) error {
	if width <= 0 || height <= 0 {
		return perr.Invalid("window.SetSize", "size must be positive, got %dx%d", width, height)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.live("window.SetSize", id)
	if err != nil {
		return err
	}
	width, height = m.clamp(width, height, rec.info.Decorated)
	g := rec.info.Geometry
	if err := m.ws.SetWindowGeometry(rec.handle.Raw(), g.X, g.Y, width, height); err != nil {
		return perr.Platform("window.SetSize", err)
	}
	return nil
}

// SetPosition requests a new client origin. The new geometry is reported
// as a Moved event.
func (m *Manager) SetPosition(id event.WindowID, x, y int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.live("window.SetPosition", id)
	if err != nil {
		return err
	}
	g := rec.info.Geometry
	if err := m.ws.SetWindowGeometry(rec.handle.Raw(), x, y, g.Size.Width, g.Size.Height); err != nil {
		return perr.Platform("window.SetPosition", err)
	}
	return nil
}

// Focus asks the OS to give the window input focus.
func (m *Manager) Focus(id event.WindowID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.live("window.Focus", id)
	if err != nil {
		return err
	}
	if err := m.ws.FocusWindow(rec.handle.Raw()); err != nil {
		return perr.Platform("window.Focus", err)
	}
	return nil
}

// Close destroys the window. Only the first call for an id has an effect;
// later calls return nil. Ids that were never minted are stale.
func (m *Manager) Close(id event.WindowID) error {
	m.mu.Lock()
	rec, ok := m.windows[id]
	if !ok {
		minted := id != 0 && id <= m.last
		m.mu.Unlock()
		if !minted {
			return perr.Stale("window.Close", id.String())
		}
		return nil
	}
	m.remove(id, rec)
	destroyErr := rec.handle.Destroy()
	m.mu.Unlock()

	if destroyErr != nil {
		m.logger.Error("native window destroy failed", "window", uint64(id), "error", destroyErr)
	}
	m.finish(id)
	if destroyErr != nil {
		return perr.Platform("window.Close", destroyErr)
	}
	return nil
}

// Reconcile handles a native window destroyed outside Close. The handle is
// forgotten without a destroy call and the window transitions to Closed.
// It reports whether the native handle belonged to a live window.
func (m *Manager) Reconcile(nativeWindow uintptr) bool {
	m.mu.Lock()
	id, ok := m.byNative[nativeWindow]
	if !ok {
		m.mu.Unlock()
		return false
	}
	rec := m.windows[id]
	m.remove(id, rec)
	rec.handle.Forget()
	m.mu.Unlock()

	m.logger.Info("window destroyed externally", "window", uint64(id))
	m.finish(id)
	return true
}

// Sweep asks the backend whether each live window still exists and
// reconciles those that do not. A failed check skips only that window. It
// returns the number reconciled.
func (m *Manager) Sweep() (int, error) {
	m.mu.Lock()
	natives := make([]uintptr, 0, len(m.byNative))
	for n := range m.byNative {
		natives = append(natives, n)
	}
	m.mu.Unlock()

	reconciled := 0
	var errs []error
	for _, n := range natives {
		alive, err := m.ws.WindowAlive(n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !alive && m.Reconcile(n) {
			reconciled++
		}
	}
	if len(errs) > 0 {
		return reconciled, perr.Platform("window.Sweep", errors.Join(errs...))
	}
	return reconciled, nil
}

// CloseAll closes every live window.
func (m *Manager) CloseAll() {
	for _, w := range m.Windows() {
		if err := m.Close(w.ID); err != nil {
			m.logger.Warn("failed to close window", "window", uint64(w.ID), "error", err)
		}
	}
}

// Window returns a live window.
func (m *Manager) Window(id event.WindowID) (Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.live("window.Window", id)
	if err != nil {
		return Window{}, err
	}
	return rec.info, nil
}

// Windows returns the live windows ordered by id.
func (m *Manager) Windows() []Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Window, 0, len(m.windows))
	for _, rec := range m.windows {
		out = append(out, rec.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Valid reports whether id names a live window.
func (m *Manager) Valid(id event.WindowID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.windows[id]
	return ok
}

// Native returns the native handle of a live window.
func (m *Manager) Native(id event.WindowID) (uintptr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.live("window.Native", id)
	if err != nil {
		return 0, err
	}
	return rec.handle.Raw(), nil
}

// Lookup maps a native handle to its live window.
func (m *Manager) Lookup(nativeWindow uintptr) (event.WindowID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byNative[nativeWindow]
	return id, ok
}

// ObserveGeometry records geometry reported by the OS and says which parts
// changed.
func (m *Manager) ObserveGeometry(id event.WindowID, g event.Geometry) (current event.Geometry, moved, resized bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.windows[id]
	if !ok {
		return g, false, false
	}
	old := rec.info.Geometry
	if g.Scale == 0 {
		g.Scale = old.Scale
	}
	rec.info.Geometry = g
	moved = g.X != old.X || g.Y != old.Y
	resized = g.Size != old.Size || g.Scale != old.Scale
	return g, moved, resized
}

// ObserveState records a state reported by the OS and says whether it
// changed.
func (m *Manager) ObserveState(id event.WindowID, s event.WindowState) (event.Geometry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.windows[id]
	if !ok {
		return event.Geometry{}, false
	}
	if rec.info.State == s || s == event.StateClosed {
		return rec.info.Geometry, false
	}
	rec.info.State = s
	return rec.info.Geometry, true
}

// ObserveFocus records focus reported by the OS and says whether it changed.
func (m *Manager) ObserveFocus(id event.WindowID, focused bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.windows[id]
	if !ok || rec.info.Focused == focused {
		return false
	}
	rec.info.Focused = focused
	return true
}

// ObserveVisible records visibility reported by the OS and says whether it
// changed.
func (m *Manager) ObserveVisible(id event.WindowID, visible bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.windows[id]
	if !ok || rec.info.Visible == visible {
		return false
	}
	rec.info.Visible = visible
	return true
}

func (m *Manager) live(op string, id event.WindowID) (*record, error) {
	rec, ok := m.windows[id]
	if !ok {
		return nil, perr.Stale(op, id.String())
	}
	return rec, nil
}

// remove must be called with m.mu held.
func (m *Manager) remove(id event.WindowID, rec *record) {
	delete(m.windows, id)
	delete(m.byNative, rec.handle.Raw())
}

func (m *Manager) finish(id event.WindowID) {
	m.mu.Lock()
	observers := append([]func(event.WindowID){}, m.observers...)
	m.mu.Unlock()
	for _, fn := range observers {
		fn(id)
	}
	if m.queue != nil {
		m.queue.Push(event.WindowEvent{
			Window: id,
			Kind:   event.WindowClosed,
			Time:   m.clock.Now(),
			State:  event.StateClosed,
		})
	}
}
