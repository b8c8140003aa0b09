package platlayer

import (
	"errors"
	"io"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/backend/headless"
	"github.com/1broseidon/platlayer/internal/config"
	"github.com/1broseidon/platlayer/internal/event"
	"github.com/1broseidon/platlayer/internal/perr"
	"github.com/1broseidon/platlayer/internal/window"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openHeadless(t *testing.T, mutate func(*config.Config)) (*Platform, *headless.Backend) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Backend = headless.Name
	cfg.Reconcile.IntervalMS = 0
	if mutate != nil {
		mutate(cfg)
	}
	p, err := Open(Options{Config: cfg, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p, p.backend.(*headless.Backend)
}

func drain(p *Platform) []Event {
	var out []Event
	for {
		ev, ok := p.Poll()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

func count(evs []Event, match func(Event) bool) int {
	n := 0
	for _, ev := range evs {
		if match(ev) {
			n++
		}
	}
	return n
}

func windowKind(id WindowID, kind event.WindowEventKind) func(Event) bool {
	return func(ev Event) bool {
		we, ok := ev.(WindowEvent)
		return ok && we.Window == id && we.Kind == kind
	}
}

func TestOpen_RejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Events.HotplugBuffer = 0
	if _, err := Open(Options{Config: cfg, Logger: quietLogger()}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := Open(Options{Backend: "amiga", Logger: quietLogger()}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected unknown backend to be invalid, got %v", err)
	}
}

func TestBackendsIncludesHeadless(t *testing.T) {
	for _, name := range Backends() {
		if name == headless.Name {
			return
		}
	}
	t.Fatalf("headless missing from %v", Backends())
}

func TestWindowLifecycle(t *testing.T) {
	p, _ := openHeadless(t, nil)
	if p.Backend() != headless.Name {
		t.Fatalf("backend = %q", p.Backend())
	}

	cfg, err := window.ConfigFromMap(map[string]any{"title": "T", "size": []any{800, 600}, "resizable": true})
	if err != nil {
		t.Fatalf("ConfigFromMap: %v", err)
	}
	w, err := p.CreateWindow(cfg)
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	if w.Geometry.Size != (event.Size{Width: 800, Height: 600}) {
		t.Fatalf("size = %+v", w.Geometry.Size)
	}
	if n := count(drain(p), windowKind(w.ID, event.WindowShown)); n != 1 {
		t.Fatalf("expected one Shown event, got %d", n)
	}

	if err := p.CloseWindow(w.ID); err != nil {
		t.Fatalf("CloseWindow: %v", err)
	}
	if err := p.CloseWindow(w.ID); err != nil {
		t.Fatalf("second CloseWindow: %v", err)
	}
	if n := count(drain(p), windowKind(w.ID, event.WindowClosed)); n != 1 {
		t.Fatalf("expected exactly one Closed event, got %d", n)
	}
	if p.ValidWindow(w.ID) {
		t.Fatalf("closed window must not validate")
	}
	if err := p.SetWindowTitle(w.ID, "again"); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("expected stale handle, got %v", err)
	}
}

func TestCreateWindowPreset(t *testing.T) {
	p, _ := openHeadless(t, func(c *config.Config) {
		c.Windows["tool"] = window.Config{Title: "Tool", Size: [2]int{320, 240}, Visible: true}
	})
	w, err := p.CreateWindowPreset("tool")
	if err != nil {
		t.Fatalf("CreateWindowPreset: %v", err)
	}
	if w.Title != "Tool" || w.Geometry.Size.Width != 320 {
		t.Fatalf("unexpected window %+v", w)
	}
	if _, err := p.CreateWindowPreset("missing"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestKeyEventsPollInOrder(t *testing.T) {
	p, b := openHeadless(t, nil)
	w, _ := p.CreateWindow(DefaultWindowConfig())
	nativeWindow := b.Natives()[0]
	drain(p)

	b.Inject(backend.Notification{Kind: backend.NotifyKey, Window: nativeWindow, Scancode: 30, Action: event.KeyPress})
	b.Inject(backend.Notification{Kind: backend.NotifyKey, Window: nativeWindow, Scancode: 30, Action: event.KeyRelease})

	var keys []KeyEvent
	for _, ev := range drain(p) {
		if k, ok := ev.(KeyEvent); ok {
			keys = append(keys, k)
		}
	}
	if len(keys) != 2 || keys[0].Action != event.KeyPress || keys[1].Action != event.KeyRelease {
		t.Fatalf("unexpected keys %+v", keys)
	}
	if keys[0].Window != w.ID || keys[0].Key != "A" {
		t.Fatalf("unexpected key event %+v", keys[0])
	}
}

func TestDevicesArriveThroughQueue(t *testing.T) {
	p, b := openHeadless(t, nil)
	b.DeviceSource().Plug(backend.DeviceDescriptor{NativeID: "pad0"}, headless.Gamepad("pad"))
	if err := p.ScanDevices(); err != nil {
		t.Fatalf("ScanDevices: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	var connected []DeviceEvent
	for time.Now().Before(deadline) && len(connected) == 0 {
		ev, ok := p.Wait(50 * time.Millisecond)
		if !ok {
			continue
		}
		if de, ok := ev.(DeviceEvent); ok && de.Kind == event.DeviceConnected {
			connected = append(connected, de)
		}
	}
	if len(connected) != 1 || connected[0].Class != event.ClassController {
		t.Fatalf("expected one controller connection, got %+v", connected)
	}
	// A watcher notification racing the scan must not mint a second id.
	for _, ev := range drain(p) {
		if de, ok := ev.(DeviceEvent); ok && de.Kind == event.DeviceConnected {
			t.Fatalf("duplicate connection %+v", de)
		}
	}
	devs := p.Devices()
	if len(devs) != 1 || devs[0].ID != connected[0].Device {
		t.Fatalf("devices = %+v", devs)
	}
}

func TestControllerStateTracksInput(t *testing.T) {
	p, b := openHeadless(t, nil)
	src := b.DeviceSource()
	src.Plug(backend.DeviceDescriptor{NativeID: "pad0"}, headless.Gamepad("pad"))
	if err := p.ScanDevices(); err != nil {
		t.Fatalf("ScanDevices: %v", err)
	}
	src.Send("pad0", backend.Notification{Kind: backend.NotifyControllerButton, Code: 0x130, Pressed: true})
	src.Send("pad0", backend.Notification{Kind: backend.NotifyControllerAxis, Code: 0x00, Value: 0.25})

	var pad DeviceID
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && pad == 0 {
		ev, ok := p.Wait(50 * time.Millisecond)
		if !ok {
			continue
		}
		if de, ok := ev.(DeviceEvent); ok && de.Kind == DeviceAxisMotion {
			pad = de.Device
		}
	}
	if pad == 0 {
		t.Fatalf("axis motion never arrived")
	}
	state, err := p.ControllerState(pad)
	if err != nil {
		t.Fatalf("ControllerState: %v", err)
	}
	if !state.Pressed(0x130) || state.Axis(0x00) != 0.25 || state.Pressed(0x131) {
		t.Fatalf("unexpected state %+v", state)
	}
	if _, err := p.ControllerState(pad + 100); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("expected ErrStaleHandle, got %v", err)
	}
}

func TestDevicesDisabled(t *testing.T) {
	p, b := openHeadless(t, func(c *config.Config) { c.Devices.Enabled = false })
	b.DeviceSource().Plug(backend.DeviceDescriptor{NativeID: "kbd"}, headless.Keyboard("kbd"))
	if err := p.ScanDevices(); err != nil {
		t.Fatalf("ScanDevices: %v", err)
	}
	if len(p.Devices()) != 0 {
		t.Fatalf("expected no devices with the source disabled")
	}
}

func TestReconcilerClosesSilentlyDestroyedWindow(t *testing.T) {
	p, b := openHeadless(t, func(c *config.Config) { c.Reconcile.IntervalMS = 10 })
	w, _ := p.CreateWindow(DefaultWindowConfig())
	drain(p)
	b.DestroySilently(b.Natives()[0])

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ev, ok := p.Wait(50 * time.Millisecond)
		if ok && windowKind(w.ID, event.WindowClosed)(ev) {
			if p.ValidWindow(w.ID) {
				t.Fatalf("window still valid after reconciliation")
			}
			return
		}
	}
	t.Fatalf("silently destroyed window was never reconciled")
}

func TestReconcileNow(t *testing.T) {
	p, b := openHeadless(t, nil)
	w, _ := p.CreateWindow(DefaultWindowConfig())
	b.DestroySilently(b.Natives()[0])
	n, err := p.Reconcile()
	if err != nil || n != 1 {
		t.Fatalf("Reconcile = %d, %v", n, err)
	}
	if c := count(drain(p), windowKind(w.ID, event.WindowClosed)); c != 1 {
		t.Fatalf("expected one Closed event, got %d", c)
	}
}

func TestWakeInterruptsWait(t *testing.T) {
	p, _ := openHeadless(t, nil)
	done := make(chan bool)
	go func() {
		_, ok := p.Wait(-1)
		done <- ok
	}()
	time.Sleep(10 * time.Millisecond)
	p.Wake()
	select {
	case ok := <-done:
		if ok {
			t.Fatalf("woken Wait must report no event")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Wake did not interrupt Wait")
	}
}

func TestDefaultContext(t *testing.T) {
	p, b := openHeadless(t, nil)
	w, _ := p.CreateWindow(DefaultWindowConfig())
	id, err := p.CreateDefaultContext(w.ID)
	if err != nil {
		t.Fatalf("CreateDefaultContext: %v", err)
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := p.MakeCurrent(id); err != nil {
		t.Fatalf("MakeCurrent: %v", err)
	}
	if err := p.Present(id); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if err := p.MakeNotCurrent(); err != nil {
		t.Fatalf("MakeNotCurrent: %v", err)
	}

	if err := p.CloseWindow(w.ID); err != nil {
		t.Fatalf("CloseWindow: %v", err)
	}
	if err := p.Present(id); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("expected stale handle after window close, got %v", err)
	}
	if err := p.DestroyContext(id); err != nil {
		t.Fatalf("DestroyContext: %v", err)
	}
	if b.ContextCount() != 0 {
		t.Fatalf("expected no live contexts")
	}
}

func TestCloseTearsDownAndForbidsFurtherUse(t *testing.T) {
	p, b := openHeadless(t, nil)
	w, _ := p.CreateWindow(DefaultWindowConfig())
	if _, err := p.CreateDefaultContext(w.ID); err != nil {
		t.Fatalf("CreateDefaultContext: %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if len(b.Natives()) != 0 || b.ContextCount() != 0 {
		t.Fatalf("native resources survived Close")
	}
	p.Wake()

	defer func() {
		r := recover()
		var pe *perr.PreconditionError
		if err, ok := r.(error); !ok || !errors.As(err, &pe) {
			t.Fatalf("expected PreconditionError panic, got %v", r)
		}
	}()
	p.Poll()
}

func TestDisplayLostClosesEveryWindow(t *testing.T) {
	p, b := openHeadless(t, nil)
	w, err := p.CreateWindow(DefaultWindowConfig())
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	drain(p)
	if p.Err() != nil {
		t.Fatalf("Err() = %v before disconnect", p.Err())
	}
	b.Disconnect()

	var evs []Event
	start := time.Now()
	for {
		ev, ok := p.Wait(-1)
		if !ok {
			break
		}
		evs = append(evs, ev)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Wait(-1) took %v after disconnect", elapsed)
	}
	if n := count(evs, windowKind(w.ID, WindowClosed)); n != 1 {
		t.Fatalf("expected one Closed event, got %d in %#v", n, evs)
	}
	if p.ValidWindow(w.ID) {
		t.Fatalf("window still valid after disconnect")
	}
	if err := p.Err(); !errors.Is(err, ErrPlatform) || !errors.Is(err, backend.ErrDisconnected) {
		t.Fatalf("Err() = %v, want ErrPlatform wrapping a disconnect", err)
	}
}

func TestHideAndShowCursor(t *testing.T) {
	p, b := openHeadless(t, nil)
	w, err := p.CreateWindow(DefaultWindowConfig())
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	nativeWindow, _ := p.windows.Native(w.ID)

	if err := p.HideCursor(w.ID); err != nil {
		t.Fatalf("HideCursor: %v", err)
	}
	if visible, err := p.CursorVisible(w.ID); err != nil || visible || !b.CursorHidden(nativeWindow) {
		t.Fatalf("after hide: visible=%v err=%v", visible, err)
	}
	if snap, _ := p.Window(w.ID); !snap.CursorHidden {
		t.Fatalf("window snapshot does not report the hidden cursor")
	}
	if err := p.ShowCursor(w.ID); err != nil {
		t.Fatalf("ShowCursor: %v", err)
	}
	if visible, err := p.CursorVisible(w.ID); err != nil || !visible || b.CursorHidden(nativeWindow) {
		t.Fatalf("after show: visible=%v err=%v", visible, err)
	}
}
