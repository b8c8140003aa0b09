package event

import "fmt"

// Event is the tagged union delivered to applications. The concrete types
// are WindowEvent, KeyEvent, PointerEvent and DeviceEvent. Events are values
// and are never mutated once enqueued.
type Event interface {
	// Timestamp reports when the underlying notification arrived.
	Timestamp() Timestamp
	isEvent()
}

// WindowEventKind says what happened to a window.
type WindowEventKind uint8

const (
	WindowShown WindowEventKind = iota + 1
	WindowHidden
	WindowMoved
	WindowResized
	WindowStateChanged
	WindowFocusGained
	WindowFocusLost
	WindowCloseRequested
	WindowClosed
)

func (k WindowEventKind) String() string {
	switch k {
	case WindowShown:
		return "shown"
	case WindowHidden:
		return "hidden"
	case WindowMoved:
		return "moved"
	case WindowResized:
		return "resized"
	case WindowStateChanged:
		return "state-changed"
	case WindowFocusGained:
		return "focus-gained"
	case WindowFocusLost:
		return "focus-lost"
	case WindowCloseRequested:
		return "close-requested"
	case WindowClosed:
		return "closed"
	default:
		return fmt.Sprintf("window-event(%d)", uint8(k))
	}
}

// WindowEvent reports a window lifecycle, geometry or focus change.
type WindowEvent struct {
	Window WindowID
	Kind   WindowEventKind
	Time   Timestamp
	// Geometry is the latest known geometry. It is authoritative for
	// WindowMoved and WindowResized.
	Geometry Geometry
	// State is set for WindowStateChanged and WindowClosed.
	State WindowState
}

// KeyAction distinguishes key presses, releases and auto-repeats.
type KeyAction uint8

const (
	KeyPress KeyAction = iota + 1
	KeyRelease
	KeyRepeat
)

func (a KeyAction) String() string {
	switch a {
	case KeyPress:
		return "press"
	case KeyRelease:
		return "release"
	case KeyRepeat:
		return "repeat"
	default:
		return fmt.Sprintf("key-action(%d)", uint8(a))
	}
}

// KeyEvent reports a keyboard key transition.
type KeyEvent struct {
	Window WindowID
	// Device is zero when the backend cannot attribute the key to a device.
	Device    DeviceID
	Time      Timestamp
	Action    KeyAction
	Scancode  Scancode
	Key       Key
	Modifiers Modifiers
}

// PointerKind says what a pointer event reports.
type PointerKind uint8

const (
	PointerMove PointerKind = iota + 1
	PointerPress
	PointerRelease
	PointerScroll
	PointerEnter
	PointerLeave
)

func (k PointerKind) String() string {
	switch k {
	case PointerMove:
		return "move"
	case PointerPress:
		return "press"
	case PointerRelease:
		return "release"
	case PointerScroll:
		return "scroll"
	case PointerEnter:
		return "enter"
	case PointerLeave:
		return "leave"
	default:
		return fmt.Sprintf("pointer(%d)", uint8(k))
	}
}

// PointerSource says which kind of device produced a pointer event.
type PointerSource uint8

const (
	SourceMouse PointerSource = iota + 1
	SourceTouch
)

// PointerEvent reports pointer motion, buttons, scrolling and touch contacts.
type PointerEvent struct {
	Window WindowID
	Device DeviceID
	Time   Timestamp
	Kind   PointerKind
	Source PointerSource
	// Position is in physical pixels relative to the client-area origin.
	Position Point
	// Delta is the motion since the previous pointer event for the window.
	Delta   Point
	Button  Button
	Buttons Buttons
	// Scroll is positive when scrolling up or right.
	Scroll Point
	// Finger identifies a touch contact when Source is SourceTouch.
	Finger    int
	Modifiers Modifiers
}

// DeviceEventKind says what a device event reports.
type DeviceEventKind uint8

const (
	DeviceConnected DeviceEventKind = iota + 1
	DeviceDisconnected
	DeviceButtonDown
	DeviceButtonUp
	DeviceAxisMotion
)

func (k DeviceEventKind) String() string {
	switch k {
	case DeviceConnected:
		return "connected"
	case DeviceDisconnected:
		return "disconnected"
	case DeviceButtonDown:
		return "button-down"
	case DeviceButtonUp:
		return "button-up"
	case DeviceAxisMotion:
		return "axis-motion"
	default:
		return fmt.Sprintf("device-event(%d)", uint8(k))
	}
}

// DeviceEvent reports hotplug transitions and controller input.
type DeviceEvent struct {
	Device DeviceID
	Class  DeviceClass
	Kind   DeviceEventKind
	Time   Timestamp
	// Code is the evdev button or axis code for input kinds.
	Code uint16
	// Value is the normalized axis value in [-1, 1] for DeviceAxisMotion.
	Value float64
}

func (e WindowEvent) Timestamp() Timestamp  { return e.Time }
func (e KeyEvent) Timestamp() Timestamp     { return e.Time }
func (e PointerEvent) Timestamp() Timestamp { return e.Time }
func (e DeviceEvent) Timestamp() Timestamp  { return e.Time }

func (WindowEvent) isEvent()  {}
func (KeyEvent) isEvent()     {}
func (PointerEvent) isEvent() {}
func (DeviceEvent) isEvent()  {}

// DeviceOf returns the device an event references, or zero.
func DeviceOf(ev Event) DeviceID {
	switch e := ev.(type) {
	case KeyEvent:
		return e.Device
	case PointerEvent:
		return e.Device
	case DeviceEvent:
		return e.Device
	}
	return 0
}

// WindowOf returns the window an event references, or zero.
func WindowOf(ev Event) WindowID {
	switch e := ev.(type) {
	case WindowEvent:
		return e.Window
	case KeyEvent:
		return e.Window
	case PointerEvent:
		return e.Window
	}
	return 0
}
