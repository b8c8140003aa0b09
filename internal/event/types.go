// Package event defines the backend-agnostic event stream: logical ids,
// geometry, the Event union and the multi-producer queue applications drain.
package event

import (
	"fmt"
	"time"
)

// WindowID is the logical identity of a window. Zero is never minted.
type WindowID uint64

func (id WindowID) String() string { return fmt.Sprintf("window %d", uint64(id)) }

// DeviceID is the logical identity of one input-device connection session.
// Zero is never minted.
type DeviceID uint64

func (id DeviceID) String() string { return fmt.Sprintf("device %d", uint64(id)) }

// Timestamp is the time elapsed since the platform was opened.
type Timestamp time.Duration

// Duration converts t to a time.Duration.
func (t Timestamp) Duration() time.Duration { return time.Duration(t) }

// Clock produces monotonic Timestamps relative to its creation.
type Clock struct {
	start time.Time
}

// NewClock starts a clock at the current instant.
func NewClock() *Clock {
	return &Clock{start: time.Now()}
}

// Now returns the current timestamp. A nil clock reports zero.
func (c *Clock) Now() Timestamp {
	if c == nil {
		return 0
	}
	return Timestamp(time.Since(c.start))
}

// Point is a position in physical pixels.
type Point struct {
	X, Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Size is a width and height in physical pixels.
type Size struct {
	Width, Height int
}

// Rect is an axis-aligned rectangle in physical pixels. Max is exclusive.
type Rect struct {
	Min, Max Point
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// Bounds returns the screen rectangle covered by the client area.
func (g Geometry) Bounds() Rect {
	return Rect{
		Min: Point{X: float64(g.X), Y: float64(g.Y)},
		Max: Point{X: float64(g.X + g.Size.Width), Y: float64(g.Y + g.Size.Height)},
	}
}

// Geometry describes where a window is and how large its client area is.
type Geometry struct {
	// Position is the client-area origin in screen coordinates.
	X, Y int
	// Size is the client-area size in physical pixels.
	Size Size
	// Scale is physical pixels per logical pixel.
	Scale float64
}

// LogicalSize returns the client-area size in logical pixels.
func (g Geometry) LogicalSize() (width, height float64) {
	scale := g.Scale
	if scale <= 0 {
		scale = 1
	}
	return float64(g.Size.Width) / scale, float64(g.Size.Height) / scale
}

// WindowState is a window's position in the lifecycle state machine.
type WindowState uint8

const (
	StateNormal WindowState = iota + 1
	StateMinimized
	StateMaximized
	StateFullscreen
	StateClosed
)

func (s WindowState) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateMinimized:
		return "minimized"
	case StateMaximized:
		return "maximized"
	case StateFullscreen:
		return "fullscreen"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ParseWindowState converts a state name to a WindowState.
func ParseWindowState(name string) (WindowState, bool) {
	for _, s := range []WindowState{StateNormal, StateMinimized, StateMaximized, StateFullscreen, StateClosed} {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// DeviceClass groups input devices by what they report.
type DeviceClass uint8

const (
	ClassKeyboard DeviceClass = iota + 1
	ClassPointer
	ClassTouch
	ClassController
)

func (c DeviceClass) String() string {
	switch c {
	case ClassKeyboard:
		return "keyboard"
	case ClassPointer:
		return "pointer"
	case ClassTouch:
		return "touch"
	case ClassController:
		return "controller"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// Modifiers is a bit set of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
	ModCapsLock
	ModNumLock
)

func (m Modifiers) String() string {
	if m == 0 {
		return ""
	}
	names := []string{"shift", "ctrl", "alt", "super", "capslock", "numlock"}
	out := ""
	for i, name := range names {
		if m&(1<<i) != 0 {
			if out != "" {
				out += "+"
			}
			out += name
		}
	}
	return out
}

// Button identifies a pointer button.
type Button uint8

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
	ButtonBack
	ButtonForward
)

// Buttons is a bit set of pressed pointer buttons.
type Buttons uint8

// With returns b with btn set.
func (b Buttons) With(btn Button) Buttons {
	if btn == ButtonNone {
		return b
	}
	return b | 1<<(btn-1)
}

// Without returns b with btn cleared.
func (b Buttons) Without(btn Button) Buttons {
	if btn == ButtonNone {
		return b
	}
	return b &^ (1 << (btn - 1))
}

// Contains reports whether btn is set in b.
func (b Buttons) Contains(btn Button) bool {
	return btn != ButtonNone && b&(1<<(btn-1)) != 0
}
