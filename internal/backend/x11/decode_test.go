//go:build linux

package x11

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

const (
	testWindow     xproto.Window = 0x400001
	testForeign    xproto.Window = 0x500001
	testProtocols  xproto.Atom   = 301
	testDelete     xproto.Atom   = 302
	testNetWMState xproto.Atom   = 303
)

func newTestDecoder() *decoder {
	return &decoder{
		owned:    func(w xproto.Window) bool { return w == testWindow },
		position: func(xproto.Window) (int, int, bool) { return 100, 50, true },
		state:    func(xproto.Window) event.WindowState { return event.StateMaximized },
		scale:    func(xproto.Window) float64 { return 2 },
		key: func(kc xproto.Keycode) (event.Key, bool) {
			return event.DefaultKey(keycodeToScancode(kc))
		},
		wmProtocols:    testProtocols,
		wmDeleteWindow: testDelete,
		netWMState:     testNetWMState,
	}
}

func TestDecode_KeyPressResolvesScancodeAndKey(t *testing.T) {
	d := newTestDecoder()
	out := d.decode(xproto.KeyPressEvent{Event: testWindow, Detail: 38, State: xproto.ModMaskShift | xproto.ModMaskControl})
	if len(out) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(out))
	}
	n := out[0]
	if n.Kind != backend.NotifyKey || n.Action != event.KeyPress {
		t.Fatalf("unexpected notification %#v", n)
	}
	if n.Scancode != 30 || n.Key != "A" {
		t.Fatalf("keycode 38 should be scancode 30 (A), got %d %q", n.Scancode, n.Key)
	}
	if n.Modifiers != event.ModShift|event.ModCtrl {
		t.Fatalf("unexpected modifiers %s", n.Modifiers)
	}
}

func TestDecode_AutoRepeatFolding(t *testing.T) {
	d := newTestDecoder()
	if out := d.decode(xproto.KeyReleaseEvent{Event: testWindow, Detail: 38, Time: 500}); len(out) != 0 {
		t.Fatalf("release should be held, got %d notifications", len(out))
	}
	out := d.decode(xproto.KeyPressEvent{Event: testWindow, Detail: 38, Time: 500})
	if len(out) != 1 || out[0].Action != event.KeyRepeat {
		t.Fatalf("expected a single repeat, got %#v", out)
	}
	if out := d.flush(); len(out) != 0 {
		t.Fatalf("nothing should remain held, got %#v", out)
	}
}

func TestDecode_ReleaseFollowedByOtherEventIsFlushed(t *testing.T) {
	tests := []struct {
		name string
		next xproto.KeyPressEvent
	}{
		{name: "different time", next: xproto.KeyPressEvent{Event: testWindow, Detail: 38, Time: 501}},
		{name: "different key", next: xproto.KeyPressEvent{Event: testWindow, Detail: 39, Time: 500}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDecoder()
			d.decode(xproto.KeyReleaseEvent{Event: testWindow, Detail: 38, Time: 500})
			out := d.decode(tt.next)
			if len(out) != 2 {
				t.Fatalf("expected release then press, got %#v", out)
			}
			if out[0].Action != event.KeyRelease || out[1].Action != event.KeyPress {
				t.Fatalf("unexpected order %s, %s", out[0].Action, out[1].Action)
			}
		})
	}
}

func TestDecode_HeldReleaseFlushedAtBatchEnd(t *testing.T) {
	d := newTestDecoder()
	d.decode(xproto.KeyReleaseEvent{Event: testWindow, Detail: 38, Time: 500})
	out := d.flush()
	if len(out) != 1 || out[0].Action != event.KeyRelease {
		t.Fatalf("expected the held release, got %#v", out)
	}
}

func TestDecode_Buttons(t *testing.T) {
	tests := []struct {
		name    string
		ev      interface{}
		kind    backend.Kind
		button  event.Button
		pressed bool
		scroll  event.Point
		none    bool
	}{
		{name: "left press", ev: xproto.ButtonPressEvent{Event: testWindow, Detail: 1}, kind: backend.NotifyPointerButton, button: event.ButtonLeft, pressed: true},
		{name: "right release", ev: xproto.ButtonReleaseEvent{Event: testWindow, Detail: 3}, kind: backend.NotifyPointerButton, button: event.ButtonRight},
		{name: "back", ev: xproto.ButtonPressEvent{Event: testWindow, Detail: 8}, kind: backend.NotifyPointerButton, button: event.ButtonBack, pressed: true},
		{name: "wheel up", ev: xproto.ButtonPressEvent{Event: testWindow, Detail: 4}, kind: backend.NotifyPointerScroll, scroll: event.Point{Y: 1}},
		{name: "wheel down", ev: xproto.ButtonPressEvent{Event: testWindow, Detail: 5}, kind: backend.NotifyPointerScroll, scroll: event.Point{Y: -1}},
		{name: "wheel right", ev: xproto.ButtonPressEvent{Event: testWindow, Detail: 7}, kind: backend.NotifyPointerScroll, scroll: event.Point{X: 1}},
		{name: "wheel release ignored", ev: xproto.ButtonReleaseEvent{Event: testWindow, Detail: 4}, none: true},
		{name: "foreign window ignored", ev: xproto.ButtonPressEvent{Event: testForeign, Detail: 1}, none: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDecoder()
			var out []backend.Notification
			switch ev := tt.ev.(type) {
			case xproto.ButtonPressEvent:
				out = d.decode(ev)
			case xproto.ButtonReleaseEvent:
				out = d.decode(ev)
			}
			if tt.none {
				if len(out) != 0 {
					t.Fatalf("expected no notification, got %#v", out)
				}
				return
			}
			if len(out) != 1 {
				t.Fatalf("expected 1 notification, got %d", len(out))
			}
			n := out[0]
			if n.Kind != tt.kind || n.Button != tt.button || n.Pressed != tt.pressed || n.Scroll != tt.scroll {
				t.Fatalf("unexpected notification %#v", n)
			}
		})
	}
}

func TestDecode_ConfigureUsesRootPositionAndScale(t *testing.T) {
	d := newTestDecoder()
	out := d.decode(xproto.ConfigureNotifyEvent{Window: testWindow, X: 3, Y: 4, Width: 640, Height: 480})
	if len(out) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(out))
	}
	g := out[0].Geometry
	if g.X != 100 || g.Y != 50 || g.Size != (event.Size{Width: 640, Height: 480}) || g.Scale != 2 {
		t.Fatalf("unexpected geometry %#v", g)
	}
}

func TestDecode_WindowLifecycle(t *testing.T) {
	d := newTestDecoder()
	var got []backend.Kind
	for _, ev := range []interface{}{
		xproto.MapNotifyEvent{Window: testWindow},
		xproto.FocusInEvent{Event: testWindow, Mode: xproto.NotifyModeNormal, Detail: xproto.NotifyDetailNonlinear},
		xproto.FocusInEvent{Event: testWindow, Mode: xproto.NotifyModeGrab},
		xproto.PropertyNotifyEvent{Window: testWindow, Atom: testNetWMState},
		xproto.PropertyNotifyEvent{Window: testWindow, Atom: 999},
		xproto.ClientMessageEvent{Window: testWindow, Format: 32, Type: testProtocols,
			Data: xproto.ClientMessageDataUnionData32New([]uint32{uint32(testDelete), 0, 0, 0, 0})},
		xproto.DestroyNotifyEvent{Window: testWindow},
		xproto.DestroyNotifyEvent{Window: testForeign},
	} {
		var out []backend.Notification
		switch e := ev.(type) {
		case xproto.MapNotifyEvent:
			out = d.decode(e)
		case xproto.FocusInEvent:
			out = d.decode(e)
		case xproto.PropertyNotifyEvent:
			out = d.decode(e)
		case xproto.ClientMessageEvent:
			out = d.decode(e)
		case xproto.DestroyNotifyEvent:
			out = d.decode(e)
		}
		for _, n := range out {
			got = append(got, n.Kind)
			if n.Kind == backend.NotifyWindowState && n.State != event.StateMaximized {
				t.Fatalf("state should come from the property lookup, got %s", n.State)
			}
		}
	}
	want := []backend.Kind{
		backend.NotifyWindowVisibility,
		backend.NotifyWindowFocus,
		backend.NotifyWindowState,
		backend.NotifyWindowCloseRequested,
		backend.NotifyWindowDestroyed,
	}
	if len(got) != len(want) {
		t.Fatalf("got kinds %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kind %d = %s, want %s", i, got[i], want[i])
		}
	}
}
