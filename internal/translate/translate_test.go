package translate

import (
	"testing"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/backend/headless"
	"github.com/1broseidon/platlayer/internal/event"
	"github.com/1broseidon/platlayer/internal/window"
)

type fakeDevices map[string]event.DeviceID

func (f fakeDevices) ByNative(nativeID string) (event.DeviceID, event.DeviceClass, bool) {
	id, ok := f[nativeID]
	return id, event.ClassController, ok
}

type fixture struct {
	tr      *Translator
	windows *window.Manager
	b       *headless.Backend
	id      event.WindowID
	native  uintptr
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	b := headless.New(backend.Options{})
	wm := window.NewManager(window.Options{Backend: b})
	w, err := wm.Create(window.DefaultConfig())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	nativeWindow, _ := wm.Native(w.ID)
	tr := New(Config{Windows: wm, Devices: fakeDevices{"pad0": 9}, Keymap: b})
	return fixture{tr: tr, windows: wm, b: b, id: w.ID, native: nativeWindow}
}

func one(t *testing.T, evs []event.Event) event.Event {
	t.Helper()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d: %#v", len(evs), evs)
	}
	return evs[0]
}

func TestPointer_DeltaComputedFromAbsolute(t *testing.T) {
	f := newFixture(t)
	first := one(t, f.tr.Translate(backend.Notification{
		Kind: backend.NotifyPointerMotion, Window: f.native,
		Position: event.Point{X: 10, Y: 20}, HasPosition: true,
	})).(event.PointerEvent)
	if first.Delta != (event.Point{}) {
		t.Fatalf("first motion must have zero delta, got %+v", first.Delta)
	}

	second := one(t, f.tr.Translate(backend.Notification{
		Kind: backend.NotifyPointerMotion, Window: f.native,
		Position: event.Point{X: 15, Y: 18}, HasPosition: true,
	})).(event.PointerEvent)
	if second.Delta != (event.Point{X: 5, Y: -2}) || second.Position != (event.Point{X: 15, Y: 18}) {
		t.Fatalf("unexpected motion %+v", second)
	}
}

func TestPointer_AbsoluteComputedFromRelative(t *testing.T) {
	f := newFixture(t)
	for _, d := range []event.Point{{X: 3, Y: 4}, {X: -1, Y: 1}} {
		f.tr.Translate(backend.Notification{Kind: backend.NotifyPointerMotion, Window: f.native, Delta: d, HasDelta: true})
	}
	ev := one(t, f.tr.Translate(backend.Notification{
		Kind: backend.NotifyPointerMotion, Window: f.native, Delta: event.Point{X: 1}, HasDelta: true,
	})).(event.PointerEvent)
	if ev.Position != (event.Point{X: 3, Y: 5}) {
		t.Fatalf("expected accumulated absolute position, got %+v", ev.Position)
	}
}

func TestPointer_ButtonsTracked(t *testing.T) {
	f := newFixture(t)
	press := one(t, f.tr.Translate(backend.Notification{
		Kind: backend.NotifyPointerButton, Window: f.native, Button: event.ButtonLeft, Pressed: true,
	})).(event.PointerEvent)
	if press.Kind != event.PointerPress || !press.Buttons.Contains(event.ButtonLeft) {
		t.Fatalf("unexpected press %+v", press)
	}
	release := one(t, f.tr.Translate(backend.Notification{
		Kind: backend.NotifyPointerButton, Window: f.native, Button: event.ButtonLeft,
	})).(event.PointerEvent)
	if release.Kind != event.PointerRelease || release.Buttons.Contains(event.ButtonLeft) {
		t.Fatalf("unexpected release %+v", release)
	}
}

func TestForgetResetsPointerTracking(t *testing.T) {
	f := newFixture(t)
	f.tr.Translate(backend.Notification{Kind: backend.NotifyPointerMotion, Window: f.native, Position: event.Point{X: 50}, HasPosition: true})
	f.tr.Forget(f.id)
	ev := one(t, f.tr.Translate(backend.Notification{
		Kind: backend.NotifyPointerMotion, Window: f.native, Position: event.Point{X: 60}, HasPosition: true,
	})).(event.PointerEvent)
	if ev.Delta != (event.Point{}) {
		t.Fatalf("expected fresh tracking, got delta %+v", ev.Delta)
	}
}

func TestKey_Resolution(t *testing.T) {
	f := newFixture(t)
	f.b.SetKeymap(map[event.Scancode]event.Key{16: "A"}) // AZERTY

	tests := []struct {
		name   string
		in     backend.Notification
		wantSC event.Scancode
		want   event.Key
	}{
		{"keymap first", backend.Notification{Scancode: 16}, 16, "A"},
		{"built-in fallback", backend.Notification{Scancode: 28}, 28, event.KeyEnter},
		{"unknown key is kept", backend.Notification{Scancode: 0x2ff}, 0x2ff, event.KeyUnknown},
		{"scancode from key", backend.Notification{Key: event.KeyEscape}, 1, event.KeyEscape},
		{"both halves given", backend.Notification{Scancode: 30, Key: "Q"}, 30, "Q"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.in
			n.Kind = backend.NotifyKey
			n.Window = f.native
			n.Action = event.KeyPress
			ev := one(t, f.tr.Translate(n)).(event.KeyEvent)
			if ev.Scancode != tt.wantSC || ev.Key != tt.want {
				t.Fatalf("got (%d, %q), want (%d, %q)", ev.Scancode, ev.Key, tt.wantSC, tt.want)
			}
		})
	}
}

func TestWindowGeometrySplitsMoveAndResize(t *testing.T) {
	f := newFixture(t)
	w, _ := f.windows.Window(f.id)
	g := w.Geometry
	g.X, g.Y = 100, 100
	g.Size = event.Size{Width: 1024, Height: 768}

	evs := f.tr.Translate(backend.Notification{Kind: backend.NotifyWindowGeometry, Window: f.native, Geometry: g})
	if len(evs) != 2 {
		t.Fatalf("expected moved and resized, got %#v", evs)
	}
	if evs[0].(event.WindowEvent).Kind != event.WindowMoved || evs[1].(event.WindowEvent).Kind != event.WindowResized {
		t.Fatalf("unexpected kinds %#v", evs)
	}
	if again := f.tr.Translate(backend.Notification{Kind: backend.NotifyWindowGeometry, Window: f.native, Geometry: g}); len(again) != 0 {
		t.Fatalf("unchanged geometry must not produce events, got %#v", again)
	}
}

func TestCloseRequestDoesNotCloseWindow(t *testing.T) {
	f := newFixture(t)
	ev := one(t, f.tr.Translate(backend.Notification{Kind: backend.NotifyWindowCloseRequested, Window: f.native})).(event.WindowEvent)
	if ev.Kind != event.WindowCloseRequested {
		t.Fatalf("unexpected kind %s", ev.Kind)
	}
	if !f.windows.Valid(f.id) {
		t.Fatalf("close request must not destroy the window")
	}
}

func TestUnmappedWindowIsDropped(t *testing.T) {
	f := newFixture(t)
	if evs := f.tr.Translate(backend.Notification{Kind: backend.NotifyKey, Window: 0xdead, Scancode: 30}); len(evs) != 0 {
		t.Fatalf("expected drop, got %#v", evs)
	}
}

func TestControllerInput(t *testing.T) {
	f := newFixture(t)
	axis := one(t, f.tr.Translate(backend.Notification{
		Kind: backend.NotifyControllerAxis, Device: backend.DeviceDescriptor{NativeID: "pad0"}, Code: 1, Value: 1.5,
	})).(event.DeviceEvent)
	if axis.Kind != event.DeviceAxisMotion || axis.Device != 9 || axis.Value != 1 {
		t.Fatalf("unexpected axis event %+v", axis)
	}
	btn := one(t, f.tr.Translate(backend.Notification{
		Kind: backend.NotifyControllerButton, Device: backend.DeviceDescriptor{NativeID: "pad0"}, Code: 0x130, Pressed: true,
	})).(event.DeviceEvent)
	if btn.Kind != event.DeviceButtonDown || btn.Code != 0x130 {
		t.Fatalf("unexpected button event %+v", btn)
	}
	if evs := f.tr.Translate(backend.Notification{Kind: backend.NotifyControllerButton, Device: backend.DeviceDescriptor{NativeID: "ghost"}}); len(evs) != 0 {
		t.Fatalf("expected input from unknown device to be dropped")
	}
}

func TestTouch(t *testing.T) {
	f := newFixture(t)
	ev := one(t, f.tr.Translate(backend.Notification{
		Kind: backend.NotifyTouch, Window: f.native, Phase: event.PointerPress, Finger: 2, Position: event.Point{X: 4, Y: 5},
	})).(event.PointerEvent)
	if ev.Source != event.SourceTouch || ev.Kind != event.PointerPress || ev.Finger != 2 {
		t.Fatalf("unexpected touch event %+v", ev)
	}
}
