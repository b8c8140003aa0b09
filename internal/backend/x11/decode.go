//go:build linux

package x11

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

// decoder turns X events into notifications. It is used by the reader
// goroutine only. Server lookups go through the function fields so the
// decoding itself runs without a display.
type decoder struct {
	owned    func(xproto.Window) bool
	position func(xproto.Window) (x, y int, ok bool)
	state    func(xproto.Window) event.WindowState
	scale    func(xproto.Window) float64
	key      func(xproto.Keycode) (event.Key, bool)

	wmProtocols    xproto.Atom
	wmDeleteWindow xproto.Atom
	netWMState     xproto.Atom

	// held is a key release waiting to see whether the next event is the
	// matching press of an auto-repeat.
	held     *backend.Notification
	heldCode xproto.Keycode
	heldTime xproto.Timestamp
}

// decode converts one X event. A key release is held back until the next
// event or flush.
func (d *decoder) decode(ev xgb.Event) []backend.Notification {
	if kp, ok := ev.(xproto.KeyPressEvent); ok && d.held != nil &&
		kp.Detail == d.heldCode && kp.Time == d.heldTime && kp.Event == xproto.Window(d.held.Window) {
		n := *d.held
		n.Action = event.KeyRepeat
		d.held = nil
		return []backend.Notification{n}
	}

	out := d.flush()
	switch e := ev.(type) {
	case xproto.KeyPressEvent:
		if n, ok := d.keyNotification(e.Event, e.Detail, e.State, event.KeyPress); ok {
			out = append(out, n)
		}
	case xproto.KeyReleaseEvent:
		if n, ok := d.keyNotification(e.Event, e.Detail, e.State, event.KeyRelease); ok {
			d.held = &n
			d.heldCode = e.Detail
			d.heldTime = e.Time
		}
	case xproto.ButtonPressEvent:
		if n, ok := d.buttonNotification(e.Event, byte(e.Detail), e.EventX, e.EventY, e.State, true); ok {
			out = append(out, n)
		}
	case xproto.ButtonReleaseEvent:
		if n, ok := d.buttonNotification(e.Event, byte(e.Detail), e.EventX, e.EventY, e.State, false); ok {
			out = append(out, n)
		}
	case xproto.MotionNotifyEvent:
		if d.owned(e.Event) {
			out = append(out, backend.Notification{
				Kind:        backend.NotifyPointerMotion,
				Window:      uintptr(e.Event),
				Position:    point(e.EventX, e.EventY),
				HasPosition: true,
				Modifiers:   modifiers(e.State),
			})
		}
	case xproto.EnterNotifyEvent:
		if d.owned(e.Event) {
			out = append(out, backend.Notification{
				Kind:        backend.NotifyPointerEnter,
				Window:      uintptr(e.Event),
				Position:    point(e.EventX, e.EventY),
				HasPosition: true,
			})
		}
	case xproto.LeaveNotifyEvent:
		if d.owned(e.Event) {
			out = append(out, backend.Notification{
				Kind:        backend.NotifyPointerLeave,
				Window:      uintptr(e.Event),
				Position:    point(e.EventX, e.EventY),
				HasPosition: true,
			})
		}
	case xproto.FocusInEvent:
		if n, ok := d.focusNotification(e.Event, e.Mode, e.Detail, true); ok {
			out = append(out, n)
		}
	case xproto.FocusOutEvent:
		if n, ok := d.focusNotification(e.Event, e.Mode, e.Detail, false); ok {
			out = append(out, n)
		}
	case xproto.ConfigureNotifyEvent:
		if !d.owned(e.Window) {
			break
		}
		x, y := int(e.X), int(e.Y)
		if d.position != nil {
			if rx, ry, ok := d.position(e.Window); ok {
				x, y = rx, ry
			}
		}
		out = append(out, backend.Notification{
			Kind:   backend.NotifyWindowGeometry,
			Window: uintptr(e.Window),
			Geometry: event.Geometry{
				X:     x,
				Y:     y,
				Size:  event.Size{Width: int(e.Width), Height: int(e.Height)},
				Scale: d.windowScale(e.Window),
			},
		})
	case xproto.MapNotifyEvent:
		if d.owned(e.Window) {
			out = append(out, backend.Notification{Kind: backend.NotifyWindowVisibility, Window: uintptr(e.Window), Visible: true})
		}
	case xproto.UnmapNotifyEvent:
		if d.owned(e.Window) {
			out = append(out, backend.Notification{Kind: backend.NotifyWindowVisibility, Window: uintptr(e.Window), Visible: false})
		}
	case xproto.DestroyNotifyEvent:
		if d.owned(e.Window) {
			out = append(out, backend.Notification{Kind: backend.NotifyWindowDestroyed, Window: uintptr(e.Window)})
		}
	case xproto.PropertyNotifyEvent:
		if e.Atom == d.netWMState && d.netWMState != 0 && d.owned(e.Window) && d.state != nil {
			out = append(out, backend.Notification{Kind: backend.NotifyWindowState, Window: uintptr(e.Window), State: d.state(e.Window)})
		}
	case xproto.ClientMessageEvent:
		if e.Type != d.wmProtocols || e.Format != 32 || len(e.Data.Data32) == 0 || !d.owned(e.Window) {
			break
		}
		if xproto.Atom(e.Data.Data32[0]) == d.wmDeleteWindow {
			out = append(out, backend.Notification{Kind: backend.NotifyWindowCloseRequested, Window: uintptr(e.Window)})
		}
	}
	return out
}

// flush releases a held key release. The reader calls it once the server
// queue is drained.
func (d *decoder) flush() []backend.Notification {
	if d.held == nil {
		return nil
	}
	n := *d.held
	d.held = nil
	return []backend.Notification{n}
}

func (d *decoder) keyNotification(win xproto.Window, code xproto.Keycode, state uint16, action event.KeyAction) (backend.Notification, bool) {
	if !d.owned(win) {
		return backend.Notification{}, false
	}
	n := backend.Notification{
		Kind:      backend.NotifyKey,
		Window:    uintptr(win),
		Scancode:  keycodeToScancode(code),
		Action:    action,
		Modifiers: modifiers(state),
	}
	if d.key != nil {
		if k, ok := d.key(code); ok {
			n.Key = k
		}
	}
	return n, true
}

func (d *decoder) buttonNotification(win xproto.Window, detail byte, x, y int16, state uint16, pressed bool) (backend.Notification, bool) {
	if !d.owned(win) {
		return backend.Notification{}, false
	}
	n := backend.Notification{
		Window:      uintptr(win),
		Position:    point(x, y),
		HasPosition: true,
		Modifiers:   modifiers(state),
	}

	// Buttons 4 to 7 are wheel clicks, reported on press only.
	switch detail {
	case 4, 5, 6, 7:
		if !pressed {
			return backend.Notification{}, false
		}
		n.Kind = backend.NotifyPointerScroll
		switch detail {
		case 4:
			n.Scroll.Y = 1
		case 5:
			n.Scroll.Y = -1
		case 6:
			n.Scroll.X = -1
		case 7:
			n.Scroll.X = 1
		}
		return n, true
	}

	btn := pointerButton(detail)
	if btn == event.ButtonNone {
		return backend.Notification{}, false
	}
	n.Kind = backend.NotifyPointerButton
	n.Button = btn
	n.Pressed = pressed
	return n, true
}

func (d *decoder) focusNotification(win xproto.Window, mode, detail byte, focused bool) (backend.Notification, bool) {
	// Keyboard grabs and pointer-root focus do not change the focused window.
	if mode == xproto.NotifyModeGrab || mode == xproto.NotifyModeUngrab {
		return backend.Notification{}, false
	}
	if detail == xproto.NotifyDetailPointer || !d.owned(win) {
		return backend.Notification{}, false
	}
	return backend.Notification{Kind: backend.NotifyWindowFocus, Window: uintptr(win), Focused: focused}, true
}

func (d *decoder) windowScale(win xproto.Window) float64 {
	if d.scale == nil {
		return 1
	}
	return d.scale(win)
}

func pointerButton(detail byte) event.Button {
	switch detail {
	case 1:
		return event.ButtonLeft
	case 2:
		return event.ButtonMiddle
	case 3:
		return event.ButtonRight
	case 8:
		return event.ButtonBack
	case 9:
		return event.ButtonForward
	}
	return event.ButtonNone
}

func modifiers(state uint16) event.Modifiers {
	var m event.Modifiers
	if state&xproto.ModMaskShift != 0 {
		m |= event.ModShift
	}
	if state&xproto.ModMaskLock != 0 {
		m |= event.ModCapsLock
	}
	if state&xproto.ModMaskControl != 0 {
		m |= event.ModCtrl
	}
	if state&xproto.ModMask1 != 0 {
		m |= event.ModAlt
	}
	if state&xproto.ModMask2 != 0 {
		m |= event.ModNumLock
	}
	if state&xproto.ModMask4 != 0 {
		m |= event.ModSuper
	}
	return m
}

func point(x, y int16) event.Point {
	return event.Point{X: float64(x), Y: float64(y)}
}
