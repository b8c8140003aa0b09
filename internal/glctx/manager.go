// Package glctx manages graphics contexts: pixel-format negotiation, thread
// affinity of the current context, presentation and destruction.
package glctx

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
	"github.com/1broseidon/platlayer/internal/native"
	"github.com/1broseidon/platlayer/internal/osthread"
	"github.com/1broseidon/platlayer/internal/perr"
)

// ContextID is the logical identity of a context. Zero is never minted.
type ContextID uint64

func (id ContextID) String() string { return fmt.Sprintf("context %d", uint64(id)) }

// Windows resolves logical windows to native handles.
type Windows interface {
	Native(id event.WindowID) (uintptr, error)
}

// Context is a snapshot of a managed context.
type Context struct {
	ID       ContextID
	Window   event.WindowID
	Format   PixelFormat
	Settings ContextSettings
	// Thread is the OS thread the context is current on, zero if none.
	Thread uint64
	// Orphaned is set once the bound window has closed.
	Orphaned    bool
	Presents    uint64
	LastPresent event.Timestamp
}

type record struct {
	info         Context
	handle       *native.Handle
	nativeWindow uintptr
}

// Options configures a Manager.
type Options struct {
	GL      backend.GLSystem
	Windows Windows
	Clock   *event.Clock
	Logger  *slog.Logger
	// ThreadID identifies the calling OS thread. Defaults to osthread.ID.
	ThreadID func() uint64
}

// Manager owns native contexts.
type Manager struct {
	gl       backend.GLSystem
	windows  Windows
	clock    *event.Clock
	logger   *slog.Logger
	threadID func() uint64

	mu       sync.Mutex
	last     ContextID
	contexts map[ContextID]*record
	current  map[uint64]ContextID
}

// NewManager returns a manager with no contexts.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	threadID := opts.ThreadID
	if threadID == nil {
		threadID = osthread.ID
	}
	return &Manager{
		gl:       opts.GL,
		windows:  opts.Windows,
		clock:    opts.Clock,
		logger:   logger.With("component", "contexts"),
		threadID: threadID,
		contexts: make(map[ContextID]*record),
		current:  make(map[uint64]ContextID),
	}
}

// Create negotiates a pixel format for the window and creates a context.
func (m *Manager) Create(win event.WindowID, req PixelFormat, settings ContextSettings) (ContextID, error) {
	if err := ValidateFormat(req); err != nil {
		return 0, err
	}
	if err := ValidateSettings(settings); err != nil {
		return 0, err
	}
	nativeWindow, err := m.windows.Native(win)
	if err != nil {
		return 0, err
	}

	candidates, err := m.gl.PixelFormats(nativeWindow)
	if err != nil {
		return 0, perr.Platform("glctx.Create", err)
	}
	chosen, ok := Choose(req, candidates)
	if !ok {
		return 0, perr.New("glctx.Create", perr.ErrUnsupportedFormat, win.String(),
			fmt.Errorf("no format among %d candidates satisfies %s", len(candidates), req))
	}

	raw, err := m.gl.CreateContext(nativeWindow, chosen, settings)
	if err != nil {
		return 0, perr.Platform("glctx.Create", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.last++
	id := m.last
	m.contexts[id] = &record{
		info: Context{
			ID:       id,
			Window:   win,
			Format:   chosen.Format,
			Settings: settings,
		},
		handle:       native.New(native.KindContext, raw, m.gl.DestroyContext, m.logger),
		nativeWindow: nativeWindow,
	}
	m.logger.Info("context created", "context", uint64(id), "window", uint64(win), "format", chosen.Format.String())
	return id, nil
}

// MakeCurrent binds the context on the calling OS thread, releasing any
// other context current there. The caller must hold runtime.LockOSThread.
func (m *Manager) MakeCurrent(id ContextID) error {
	tid := m.threadID()

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.contexts[id]
	if !ok {
		return perr.Stale("glctx.MakeCurrent", id.String())
	}
	if rec.info.Orphaned {
		return perr.Stale("glctx.MakeCurrent", rec.info.Window.String())
	}
	switch rec.info.Thread {
	case tid:
		return nil
	case 0:
	default:
		return perr.New("glctx.MakeCurrent", perr.ErrContextBusy, id.String(),
			fmt.Errorf("current on thread %d", rec.info.Thread))
	}

	if err := m.gl.MakeCurrent(rec.handle.Raw(), rec.nativeWindow); err != nil {
		return perr.Platform("glctx.MakeCurrent", err)
	}
	if prev, ok := m.current[tid]; ok {
		if p := m.contexts[prev]; p != nil {
			p.info.Thread = 0
		}
	}
	rec.info.Thread = tid
	m.current[tid] = id
	return nil
}

// MakeNotCurrent releases the context current on the calling thread, if any.
func (m *Manager) MakeNotCurrent() error {
	tid := m.threadID()

	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.current[tid]
	if !ok {
		return nil
	}
	if err := m.gl.ClearCurrent(); err != nil {
		return perr.Platform("glctx.MakeNotCurrent", err)
	}
	delete(m.current, tid)
	if rec := m.contexts[id]; rec != nil {
		rec.info.Thread = 0
	}
	return nil
}

// Present swaps the buffers of the context's window.
func (m *Manager) Present(id ContextID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.contexts[id]
	if !ok {
		return perr.Stale("glctx.Present", id.String())
	}
	if rec.info.Orphaned {
		return perr.Stale("glctx.Present", rec.info.Window.String())
	}
	if err := m.gl.SwapBuffers(rec.handle.Raw(), rec.nativeWindow); err != nil {
		return perr.Platform("glctx.Present", err)
	}
	rec.info.Presents++
	rec.info.LastPresent = m.clock.Now()
	return nil
}

// SetSwapInterval sets vsync behavior: 0 disables, 1 syncs every frame,
// -1 requests adaptive sync.
func (m *Manager) SetSwapInterval(id ContextID, interval int) error {
	if interval < -1 {
		return perr.Invalid("glctx.SetSwapInterval", "interval must be -1 or greater, got %d", interval)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.contexts[id]
	if !ok {
		return perr.Stale("glctx.SetSwapInterval", id.String())
	}
	if rec.info.Orphaned {
		return perr.Stale("glctx.SetSwapInterval", rec.info.Window.String())
	}
	if err := m.gl.SetSwapInterval(rec.handle.Raw(), rec.nativeWindow, interval); err != nil {
		return perr.Platform("glctx.SetSwapInterval", err)
	}
	return nil
}

// Destroy releases the native context. Destroying a context that is current
// on any thread is a fatal precondition violation.
func (m *Manager) Destroy(id ContextID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.contexts[id]
	if !ok {
		return perr.Stale("glctx.Destroy", id.String())
	}
	if rec.info.Thread != 0 {
		perr.Violate(m.logger, "glctx.Destroy", "%s is current on thread %d", id, rec.info.Thread)
	}
	delete(m.contexts, id)
	if err := rec.handle.Destroy(); err != nil {
		return perr.Platform("glctx.Destroy", err)
	}
	m.logger.Debug("context destroyed", "context", uint64(id))
	return nil
}

// WindowClosed orphans every context bound to the window. Orphaned contexts
// can only be released and destroyed.
func (m *Manager) WindowClosed(win event.WindowID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.contexts {
		if rec.info.Window == win && !rec.info.Orphaned {
			rec.info.Orphaned = true
			m.logger.Debug("context orphaned", "context", uint64(rec.info.ID), "window", uint64(win))
		}
	}
}

// DestroyAll releases every context during teardown. Contexts current on
// the calling thread are released first; those current elsewhere are
// destroyed anyway and logged.
func (m *Manager) DestroyAll() {
	if err := m.MakeNotCurrent(); err != nil {
		m.logger.Warn("failed to release current context", "error", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.contexts {
		if rec.info.Thread != 0 {
			m.logger.Warn("destroying context still current on another thread",
				"context", uint64(id), "thread", rec.info.Thread)
			delete(m.current, rec.info.Thread)
		}
		delete(m.contexts, id)
		if err := rec.handle.Destroy(); err != nil {
			m.logger.Warn("failed to destroy context", "context", uint64(id), "error", err)
		}
	}
}

// Context returns a snapshot of a context.
func (m *Manager) Context(id ContextID) (Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.contexts[id]
	if !ok {
		return Context{}, perr.Stale("glctx.Context", id.String())
	}
	return rec.info, nil
}

// Contexts returns every context ordered by id.
func (m *Manager) Contexts() []Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Context, 0, len(m.contexts))
	for _, rec := range m.contexts {
		out = append(out, rec.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
