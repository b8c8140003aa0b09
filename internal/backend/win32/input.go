package win32

import (
	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

const (
	_WM_DESTROY       = 0x0002
	_WM_MOVE          = 0x0003
	_WM_SIZE          = 0x0005
	_WM_SETFOCUS      = 0x0007
	_WM_KILLFOCUS     = 0x0008
	_WM_CLOSE         = 0x0010
	_WM_SHOWWINDOW    = 0x0018
	_WM_KEYDOWN       = 0x0100
	_WM_KEYUP         = 0x0101
	_WM_SYSKEYDOWN    = 0x0104
	_WM_SYSKEYUP      = 0x0105
	_WM_MOUSEMOVE     = 0x0200
	_WM_LBUTTONDOWN   = 0x0201
	_WM_LBUTTONUP     = 0x0202
	_WM_RBUTTONDOWN   = 0x0204
	_WM_RBUTTONUP     = 0x0205
	_WM_MBUTTONDOWN   = 0x0207
	_WM_MBUTTONUP     = 0x0208
	_WM_MOUSEWHEEL    = 0x020A
	_WM_XBUTTONDOWN   = 0x020B
	_WM_XBUTTONUP     = 0x020C
	_WM_MOUSEHWHEEL   = 0x020E
	_WM_MOUSELEAVE    = 0x02A3
	_WM_DPICHANGED    = 0x02E0
	_WM_USER          = 0x0400
	_WHEEL_DELTA      = 120
	_XBUTTON1         = 0x0001
	_XBUTTON2         = 0x0002
	_MK_SHIFT         = 0x0004
	_MK_CONTROL       = 0x0008
	_SIZE_RESTORED    = 0
	_SIZE_MINIMIZED   = 1
	_SIZE_MAXIMIZED   = 2
	_KF_REPEAT_LPARAM = 1 << 30
)

func coordsFromlParam(lParam uintptr) (int, int) {
	x := int(int16(lParam & 0xffff))
	y := int(int16((lParam >> 16) & 0xffff))
	return x, y
}

// inputNotification decodes keyboard and mouse messages. keyMods is the
// modifier state sampled when the message was retrieved; mouse messages
// carry their own in wParam. Wheel messages have screen coordinates, so
// their position is left to the caller.
func inputNotification(msg uint32, wParam, lParam uintptr, keyMods event.Modifiers) (backend.Notification, bool) {
	switch msg {
	case _WM_KEYDOWN, _WM_SYSKEYDOWN, _WM_KEYUP, _WM_SYSKEYUP:
		n := backend.Notification{Kind: backend.NotifyKey, Modifiers: keyMods}
		switch {
		case msg == _WM_KEYUP || msg == _WM_SYSKEYUP:
			n.Action = event.KeyRelease
		case lParam&_KF_REPEAT_LPARAM != 0:
			n.Action = event.KeyRepeat
		default:
			n.Action = event.KeyPress
		}
		if sc, ok := scancodeFromLParam(lParam); ok {
			n.Scancode = sc
		}
		if k, ok := virtualKeyName(uint32(wParam)); ok {
			n.Key = k
		}
		if n.Scancode == 0 && n.Key == event.KeyUnknown {
			return backend.Notification{}, false
		}
		return n, true

	case _WM_MOUSEMOVE:
		return pointerAt(backend.NotifyPointerMotion, wParam, lParam), true

	case _WM_LBUTTONDOWN, _WM_RBUTTONDOWN, _WM_MBUTTONDOWN, _WM_XBUTTONDOWN,
		_WM_LBUTTONUP, _WM_RBUTTONUP, _WM_MBUTTONUP, _WM_XBUTTONUP:
		n := pointerAt(backend.NotifyPointerButton, wParam, lParam)
		switch msg {
		case _WM_LBUTTONDOWN, _WM_LBUTTONUP:
			n.Button = event.ButtonLeft
		case _WM_RBUTTONDOWN, _WM_RBUTTONUP:
			n.Button = event.ButtonRight
		case _WM_MBUTTONDOWN, _WM_MBUTTONUP:
			n.Button = event.ButtonMiddle
		default:
			switch uint16(wParam >> 16) {
			case _XBUTTON1:
				n.Button = event.ButtonBack
			case _XBUTTON2:
				n.Button = event.ButtonForward
			default:
				return backend.Notification{}, false
			}
		}
		n.Pressed = msg == _WM_LBUTTONDOWN || msg == _WM_RBUTTONDOWN ||
			msg == _WM_MBUTTONDOWN || msg == _WM_XBUTTONDOWN
		return n, true

	case _WM_MOUSEWHEEL, _WM_MOUSEHWHEEL:
		dist := float64(int16(wParam>>16)) / _WHEEL_DELTA
		n := backend.Notification{Kind: backend.NotifyPointerScroll, Modifiers: mouseModifiers(wParam)}
		if msg == _WM_MOUSEWHEEL {
			n.Scroll.Y = dist
		} else {
			n.Scroll.X = dist
		}
		return n, true

	case _WM_MOUSELEAVE:
		return backend.Notification{Kind: backend.NotifyPointerLeave}, true
	}
	return backend.Notification{}, false
}

func pointerAt(kind backend.Kind, wParam, lParam uintptr) backend.Notification {
	x, y := coordsFromlParam(lParam)
	return backend.Notification{
		Kind:        kind,
		Position:    event.Point{X: float64(x), Y: float64(y)},
		HasPosition: true,
		Modifiers:   mouseModifiers(wParam),
	}
}

func mouseModifiers(wParam uintptr) event.Modifiers {
	var m event.Modifiers
	if wParam&_MK_SHIFT != 0 {
		m |= event.ModShift
	}
	if wParam&_MK_CONTROL != 0 {
		m |= event.ModCtrl
	}
	return m
}

// sizeState maps a WM_SIZE wParam to a window state.
func sizeState(wParam uintptr, fullscreen bool) (event.WindowState, bool) {
	switch wParam {
	case _SIZE_MINIMIZED:
		return event.StateMinimized, true
	case _SIZE_MAXIMIZED:
		return event.StateMaximized, true
	case _SIZE_RESTORED:
		if fullscreen {
			return event.StateFullscreen, true
		}
		return event.StateNormal, true
	}
	return 0, false
}
