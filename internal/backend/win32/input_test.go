package win32

import (
	"testing"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

func keyLParam(sc uint8, extended, repeat bool) uintptr {
	l := uintptr(sc) << 16
	if extended {
		l |= 1 << 24
	}
	if repeat {
		l |= 1 << 30
	}
	return l
}

func lowHigh(lo, hi int16) uintptr {
	return uintptr(uint16(lo)) | uintptr(uint16(hi))<<16
}

func TestScancodeConversion(t *testing.T) {
	tests := []struct {
		name     string
		sc       uint8
		extended bool
		want     event.Scancode
		ok       bool
	}{
		{name: "escape", sc: 0x01, want: 1, ok: true},
		{name: "A", sc: 0x1e, want: 30, ok: true},
		{name: "F12", sc: 0x58, want: 88, ok: true},
		{name: "right ctrl", sc: 0x1d, extended: true, want: 97, ok: true},
		{name: "keypad enter", sc: 0x1c, extended: true, want: 96, ok: true},
		{name: "arrow up", sc: 0x48, extended: true, want: 103, ok: true},
		{name: "unknown extended", sc: 0x10, extended: true},
		{name: "zero", sc: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := scancodeFromLParam(keyLParam(tt.sc, tt.extended, false))
			if ok != tt.ok || got != tt.want {
				t.Fatalf("got %d, %v; want %d, %v", got, ok, tt.want, tt.ok)
			}
			if !ok {
				return
			}
			sc, ext, ok := fromEvdev(got)
			if !ok || sc != tt.sc || ext != tt.extended {
				t.Fatalf("fromEvdev(%d) = %#x, %v, %v", got, sc, ext, ok)
			}
		})
	}
}

func TestVirtualKeyName(t *testing.T) {
	tests := []struct {
		vk   uint32
		want event.Key
		ok   bool
	}{
		{vk: 'Q', want: "Q", ok: true},
		{vk: '5', want: "5", ok: true},
		{vk: 0x70, want: "F1", ok: true},
		{vk: 0x7b, want: "F12", ok: true},
		{vk: 0x0d, want: event.KeyEnter, ok: true},
		{vk: 0x10, ok: false},
	}
	for _, tt := range tests {
		got, ok := virtualKeyName(tt.vk)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("virtualKeyName(%#x) = %q, %v", tt.vk, got, ok)
		}
	}
}

func TestInputNotification_Keys(t *testing.T) {
	n, ok := inputNotification(_WM_KEYDOWN, 'A', keyLParam(0x1e, false, false), event.ModShift)
	if !ok || n.Action != event.KeyPress || n.Scancode != 30 || n.Key != "A" || n.Modifiers != event.ModShift {
		t.Fatalf("unexpected press %#v", n)
	}
	n, _ = inputNotification(_WM_KEYDOWN, 'A', keyLParam(0x1e, false, true), 0)
	if n.Action != event.KeyRepeat {
		t.Fatalf("expected repeat, got %s", n.Action)
	}
	n, _ = inputNotification(_WM_SYSKEYUP, 0x12, keyLParam(0x38, true, false), 0)
	if n.Action != event.KeyRelease || n.Scancode != 100 || n.Key != event.KeyUnknown {
		t.Fatalf("right alt release should carry only the scancode, got %#v", n)
	}
}

func TestInputNotification_Mouse(t *testing.T) {
	pos := lowHigh(-5, 40)
	tests := []struct {
		name    string
		msg     uint32
		wParam  uintptr
		kind    backend.Kind
		button  event.Button
		pressed bool
		scroll  event.Point
	}{
		{name: "move", msg: _WM_MOUSEMOVE, kind: backend.NotifyPointerMotion},
		{name: "left down", msg: _WM_LBUTTONDOWN, kind: backend.NotifyPointerButton, button: event.ButtonLeft, pressed: true},
		{name: "middle up", msg: _WM_MBUTTONUP, kind: backend.NotifyPointerButton, button: event.ButtonMiddle},
		{name: "x2 down", msg: _WM_XBUTTONDOWN, wParam: _XBUTTON2 << 16, kind: backend.NotifyPointerButton, button: event.ButtonForward, pressed: true},
		{name: "wheel down", msg: _WM_MOUSEWHEEL, wParam: lowHigh(0, -240), kind: backend.NotifyPointerScroll, scroll: event.Point{Y: -2}},
		{name: "hwheel", msg: _WM_MOUSEHWHEEL, wParam: 120 << 16, kind: backend.NotifyPointerScroll, scroll: event.Point{X: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := inputNotification(tt.msg, tt.wParam, pos, 0)
			if !ok {
				t.Fatalf("message not decoded")
			}
			if n.Kind != tt.kind || n.Button != tt.button || n.Pressed != tt.pressed || n.Scroll != tt.scroll {
				t.Fatalf("unexpected notification %#v", n)
			}
			if tt.kind != backend.NotifyPointerScroll && n.Position != (event.Point{X: -5, Y: 40}) {
				t.Fatalf("unexpected position %v", n.Position)
			}
		})
	}
}

func TestSizeState(t *testing.T) {
	if s, _ := sizeState(_SIZE_RESTORED, true); s != event.StateFullscreen {
		t.Fatalf("restored while fullscreen should stay fullscreen, got %s", s)
	}
	if s, _ := sizeState(_SIZE_MAXIMIZED, false); s != event.StateMaximized {
		t.Fatalf("got %s", s)
	}
	if _, ok := sizeState(4, false); ok {
		t.Fatalf("SIZE_MAXHIDE should be ignored")
	}
}

func TestRawHints(t *testing.T) {
	tests := []struct {
		name      string
		devType   uint32
		page, use uint16
		want      string
	}{
		{"mouse", _RIM_TYPEMOUSE, 0, 0, "ID_INPUT_MOUSE"},
		{"keyboard", _RIM_TYPEKEYBOARD, 0, 0, "ID_INPUT_KEYBOARD"},
		{"gamepad", _RIM_TYPEHID, _HID_USAGE_PAGE_GENERIC, _HID_USAGE_GENERIC_GAMEPAD, "ID_INPUT_JOYSTICK"},
		{"joystick", _RIM_TYPEHID, _HID_USAGE_PAGE_GENERIC, _HID_USAGE_GENERIC_JOYSTICK, "ID_INPUT_JOYSTICK"},
		{"touch digitizer", _RIM_TYPEHID, _HID_USAGE_PAGE_DIGITIZER, _HID_USAGE_DIGITIZER_TOUCH, "ID_INPUT_TOUCHSCREEN"},
		{"vendor hid", _RIM_TYPEHID, 0xff00, 0x01, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hints := rawHints(tt.devType, tt.page, tt.use)
			if tt.want == "" {
				if len(hints) != 0 {
					t.Fatalf("expected no hints, got %v", hints)
				}
				return
			}
			if hints[tt.want] != "1" || hints["ID_INPUT"] != "1" {
				t.Fatalf("hints = %v, want %s", hints, tt.want)
			}
		})
	}
}

func TestDiffDevices(t *testing.T) {
	desc := func(id string) backend.DeviceDescriptor { return backend.DeviceDescriptor{NativeID: id} }
	prev := map[string]backend.DeviceDescriptor{"a": desc("a"), "b": desc("b")}
	next := map[string]backend.DeviceDescriptor{"b": desc("b"), "d": desc("d"), "c": desc("c")}

	added, removed := diffDevices(prev, next)
	if len(added) != 2 || added[0].NativeID != "c" || added[1].NativeID != "d" {
		t.Fatalf("added = %v", added)
	}
	if len(removed) != 1 || removed[0].NativeID != "a" {
		t.Fatalf("removed = %v", removed)
	}
}

func TestDescribedFormat(t *testing.T) {
	base := pixelFormatDescriptor{
		dwFlags:      _PFD_DRAW_TO_WINDOW | _PFD_SUPPORT_OPENGL | _PFD_DOUBLEBUFFER,
		iPixelType:   _PFD_TYPE_RGBA,
		cRedBits:     8,
		cGreenBits:   8,
		cBlueBits:    8,
		cAlphaBits:   8,
		cDepthBits:   24,
		cStencilBits: 8,
	}
	f, ok := describedFormat(base)
	if !ok || f != backend.DefaultPixelFormat() {
		t.Fatalf("describedFormat = %v, %v", f, ok)
	}

	software := base
	software.dwFlags |= _PFD_GENERIC_FORMAT
	if _, ok := describedFormat(software); ok {
		t.Fatalf("expected unaccelerated generic format to be skipped")
	}
	software.dwFlags |= _PFD_GENERIC_ACCELERATED
	if _, ok := describedFormat(software); !ok {
		t.Fatalf("expected accelerated generic format to qualify")
	}

	bitmap := base
	bitmap.dwFlags &^= _PFD_DRAW_TO_WINDOW
	if _, ok := describedFormat(bitmap); ok {
		t.Fatalf("expected non-window format to be skipped")
	}
}

func TestContextAttribs(t *testing.T) {
	got := contextAttribs(backend.ContextSettings{Major: 3, Minor: 3, Profile: backend.ProfileCore, Debug: true})
	want := []int32{
		_WGL_CONTEXT_MAJOR_VERSION_ARB, 3,
		_WGL_CONTEXT_MINOR_VERSION_ARB, 3,
		_WGL_CONTEXT_PROFILE_MASK_ARB, _WGL_CONTEXT_CORE_PROFILE_BIT_ARB,
		_WGL_CONTEXT_FLAGS_ARB, _WGL_CONTEXT_DEBUG_BIT_ARB,
		0,
	}
	if len(got) != len(want) {
		t.Fatalf("attribs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("attribs = %v, want %v", got, want)
		}
	}
	if needsAttribs(backend.ContextSettings{}) {
		t.Fatalf("default settings should use a legacy context")
	}
	if attribs := contextAttribs(backend.ContextSettings{}); len(attribs) != 1 || attribs[0] != 0 {
		t.Fatalf("empty settings attribs = %v", attribs)
	}
}
