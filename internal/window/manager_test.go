package window

import (
	"errors"
	"testing"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/backend/headless"
	"github.com/1broseidon/platlayer/internal/event"
	"github.com/1broseidon/platlayer/internal/perr"
)

func newManager() (*Manager, *headless.Backend, *event.Queue) {
	b := headless.New(backend.Options{})
	q := event.NewQueue(event.QueueOptions{})
	return NewManager(Options{Backend: b, Queue: q}), b, q
}

func closedEvents(q *event.Queue, id event.WindowID) int {
	n := 0
	for {
		ev, ok := q.Pop()
		if !ok {
			return n
		}
		if we, ok := ev.(event.WindowEvent); ok && we.Window == id && we.Kind == event.WindowClosed {
			n++
		}
	}
}

func TestCreate_RoundTripsConfig(t *testing.T) {
	m, b, _ := newManager()
	cfg, err := ConfigFromMap(map[string]any{"title": "T", "size": []any{800, 600}, "resizable": true})
	if err != nil {
		t.Fatalf("ConfigFromMap error: %v", err)
	}
	w, err := m.Create(cfg)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if w.Geometry.Size != (event.Size{Width: 800, Height: 600}) || w.Title != "T" || !w.Resizable {
		t.Fatalf("unexpected window %+v", w)
	}
	if w.State != event.StateNormal {
		t.Fatalf("expected Normal state, got %s", w.State)
	}
	spec, ok := b.Spec(b.Natives()[0])
	if !ok || spec.Width != 800 || spec.Height != 600 || !spec.Resizable {
		t.Fatalf("backend received %+v", spec)
	}
}

func TestCreate_IDsAreUniqueAndMonotonic(t *testing.T) {
	m, _, _ := newManager()
	var prev event.WindowID
	for i := 0; i < 5; i++ {
		w, err := m.Create(DefaultConfig())
		if err != nil {
			t.Fatalf("Create error: %v", err)
		}
		if w.ID <= prev {
			t.Fatalf("id %d not greater than %d", w.ID, prev)
		}
		prev = w.ID
	}
}

func TestCreate_BackendFailureIsPlatformError(t *testing.T) {
	m, b, _ := newManager()
	b.FailNextCreate(errors.New("BadAlloc"))
	if _, err := m.Create(DefaultConfig()); !errors.Is(err, perr.ErrPlatform) {
		t.Fatalf("expected ErrPlatform, got %v", err)
	}
	w, err := m.Create(DefaultConfig())
	if err != nil || w.ID != 1 {
		t.Fatalf("failed create must not mint an id, got %d err=%v", w.ID, err)
	}
}

func TestCreate_ClampsToMinimumSize(t *testing.T) {
	m, b, _ := newManager()
	b.SetMinSize(120, 40)
	cfg := DefaultConfig()
	cfg.Size = [2]int{50, 30}
	w, err := m.Create(cfg)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if w.Geometry.Size != (event.Size{Width: 120, Height: 40}) {
		t.Fatalf("expected clamped size, got %+v", w.Geometry.Size)
	}
}

func TestClose_IsIdempotent(t *testing.T) {
	m, b, q := newManager()
	w, _ := m.Create(DefaultConfig())

	if err := m.Close(w.ID); err != nil {
		t.Fatalf("first Close error: %v", err)
	}
	if err := m.Close(w.ID); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
	if n := closedEvents(q, w.ID); n != 1 {
		t.Fatalf("expected exactly one Closed event, got %d", n)
	}
	if len(b.Natives()) != 0 {
		t.Fatalf("native window not destroyed")
	}
	if m.Valid(w.ID) {
		t.Fatalf("closed id must not validate")
	}
}

func TestClose_NeverMintedIsStale(t *testing.T) {
	m, _, _ := newManager()
	for _, id := range []event.WindowID{0, 7} {
		if err := m.Close(id); !errors.Is(err, perr.ErrStaleHandle) {
			t.Fatalf("Close(%d): expected ErrStaleHandle, got %v", id, err)
		}
	}
}

func TestSetState(t *testing.T) {
	m, _, _ := newManager()
	w, _ := m.Create(DefaultConfig())

	if err := m.SetState(w.ID, event.StateMaximized); err != nil {
		t.Fatalf("SetState error: %v", err)
	}
	if err := m.SetState(w.ID, event.StateClosed); !errors.Is(err, perr.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for Closed, got %v", err)
	}
	_ = m.Close(w.ID)
	if err := m.SetState(w.ID, event.StateNormal); !errors.Is(err, perr.ErrStaleHandle) {
		t.Fatalf("expected ErrStaleHandle after close, got %v", err)
	}
}

func TestReconcile_ExternalDestroy(t *testing.T) {
	m, b, q := newManager()
	w, _ := m.Create(DefaultConfig())
	nativeWindow := b.Natives()[0]

	var observed []event.WindowID
	m.OnClose(func(id event.WindowID) { observed = append(observed, id) })

	b.DestroySilently(nativeWindow)
	if !m.Reconcile(nativeWindow) {
		t.Fatalf("expected reconcile to find the window")
	}
	if m.Reconcile(nativeWindow) {
		t.Fatalf("second reconcile must be a no-op")
	}
	if err := m.Close(w.ID); err != nil {
		t.Fatalf("Close after reconcile should be a no-op, got %v", err)
	}
	if n := closedEvents(q, w.ID); n != 1 {
		t.Fatalf("expected exactly one Closed event, got %d", n)
	}
	if len(observed) != 1 || observed[0] != w.ID {
		t.Fatalf("close observers saw %v", observed)
	}
}

func TestSweep_ReconcilesSilentlyDestroyedWindows(t *testing.T) {
	m, b, _ := newManager()
	keep, _ := m.Create(DefaultConfig())
	lost, _ := m.Create(DefaultConfig())
	nativeLost, _ := m.Native(lost.ID)
	b.DestroySilently(nativeLost)

	n, err := m.Sweep()
	if err != nil || n != 1 {
		t.Fatalf("Sweep() = %d, %v", n, err)
	}
	if !m.Valid(keep.ID) || m.Valid(lost.ID) {
		t.Fatalf("unexpected validity after sweep")
	}
}

// flakyAlive fails the liveness check for one window.
type flakyAlive struct {
	*headless.Backend
	failing uintptr
}

func (f flakyAlive) WindowAlive(native uintptr) (bool, error) {
	if native == f.failing {
		return false, errors.New("query failed")
	}
	return f.Backend.WindowAlive(native)
}

func TestSweep_FailedCheckSkipsOnlyThatWindow(t *testing.T) {
	b := headless.New(backend.Options{})
	ws := &flakyAlive{Backend: b}
	m := NewManager(Options{Backend: ws, Queue: event.NewQueue(event.QueueOptions{})})
	failing, _ := m.Create(DefaultConfig())
	lost, _ := m.Create(DefaultConfig())
	ws.failing, _ = m.Native(failing.ID)
	nativeLost, _ := m.Native(lost.ID)
	b.DestroySilently(nativeLost)

	n, err := m.Sweep()
	if !errors.Is(err, perr.ErrPlatform) {
		t.Fatalf("expected ErrPlatform, got %v", err)
	}
	if n != 1 || m.Valid(lost.ID) {
		t.Fatalf("Sweep() reconciled %d, lost window valid=%v", n, m.Valid(lost.ID))
	}
	if !m.Valid(failing.ID) {
		t.Fatalf("a failed check must not close the window")
	}
}

func TestObserveGeometry(t *testing.T) {
	m, _, _ := newManager()
	w, _ := m.Create(DefaultConfig())
	g := w.Geometry
	g.X += 10
	_, moved, resized := m.ObserveGeometry(w.ID, g)
	if !moved || resized {
		t.Fatalf("expected move only, got moved=%v resized=%v", moved, resized)
	}
	_, moved, resized = m.ObserveGeometry(w.ID, g)
	if moved || resized {
		t.Fatalf("repeated geometry must report no change")
	}
}

func TestConfigFromMap_RejectsUnknownOptions(t *testing.T) {
	tests := []map[string]any{
		{"titel": "typo"},
		{"size": []any{800}},
		{"size": "800x600"},
		{"resizable": "yes"},
		{"size": []any{0, 600}},
	}
	for _, opts := range tests {
		if _, err := ConfigFromMap(opts); !errors.Is(err, perr.ErrInvalidArgument) {
			t.Fatalf("ConfigFromMap(%v): expected ErrInvalidArgument, got %v", opts, err)
		}
	}
}

// plainWindows hides the optional capabilities of the wrapped backend.
type plainWindows struct{ backend.WindowSystem }

func TestSetCursorVisible(t *testing.T) {
	m, b, _ := newManager()
	w, _ := m.Create(DefaultConfig())
	nativeWindow, _ := m.Native(w.ID)

	tests := []struct {
		name    string
		visible bool
	}{
		{"hide", false},
		{"hide again", false},
		{"show", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.SetCursorVisible(w.ID, tt.visible); err != nil {
				t.Fatalf("SetCursorVisible error: %v", err)
			}
			got, err := m.CursorVisible(w.ID)
			if err != nil || got != tt.visible {
				t.Fatalf("CursorVisible() = %v, %v", got, err)
			}
			if b.CursorHidden(nativeWindow) == tt.visible {
				t.Fatalf("backend cursor hidden=%v, want visible=%v", b.CursorHidden(nativeWindow), tt.visible)
			}
		})
	}

	_ = m.Close(w.ID)
	if err := m.SetCursorVisible(w.ID, false); !errors.Is(err, perr.ErrStaleHandle) {
		t.Fatalf("expected ErrStaleHandle, got %v", err)
	}
	if _, err := m.CursorVisible(w.ID); !errors.Is(err, perr.ErrStaleHandle) {
		t.Fatalf("expected ErrStaleHandle, got %v", err)
	}
}

func TestSetCursorVisible_UnsupportedBackend(t *testing.T) {
	b := headless.New(backend.Options{})
	m := NewManager(Options{Backend: plainWindows{b}, Queue: event.NewQueue(event.QueueOptions{})})
	w, _ := m.Create(DefaultConfig())

	err := m.SetCursorVisible(w.ID, false)
	if !errors.Is(err, perr.ErrPlatform) || !errors.Is(err, backend.ErrNotSupported) {
		t.Fatalf("expected ErrPlatform wrapping ErrNotSupported, got %v", err)
	}
	if visible, _ := m.CursorVisible(w.ID); !visible {
		t.Fatalf("failed hide must leave the cursor visible")
	}
}
