// Package backend defines the capability set every native platform variant
// implements and the registry used to pick one at runtime.
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/1broseidon/platlayer/internal/event"
)

var (
	// ErrNotSupported is returned by optional operations a backend cannot perform.
	ErrNotSupported = errors.New("not supported by backend")
	// ErrDisconnected is returned by an EventSource whose native connection is
	// gone for good. No further notifications will arrive.
	ErrDisconnected = errors.New("native event source disconnected")
)

// WindowSpec is a fully validated window creation request.
type WindowSpec struct {
	Title      string
	X, Y       int
	Positioned bool
	Width      int
	Height     int
	Resizable  bool
	Decorated  bool
	Fullscreen bool
	Visible    bool
}

// WindowInfo describes a freshly created native window.
type WindowInfo struct {
	Native   uintptr
	Geometry event.Geometry
	State    event.WindowState
}

// EventSource is the native notification mechanism of a backend.
type EventSource interface {
	// PollNative returns every notification received since the last call
	// without blocking. Notifications are in arrival order.
	PollNative() ([]Notification, error)
	// WaitNative blocks until a notification is pending, Interrupt is called
	// or the timeout elapses. A negative timeout waits indefinitely.
	WaitNative(timeout time.Duration) error
	// Interrupt wakes a blocked or the next WaitNative. Safe from any goroutine.
	Interrupt()
}

// WindowSystem creates and manipulates native windows.
type WindowSystem interface {
	CreateWindow(spec WindowSpec) (WindowInfo, error)
	DestroyWindow(native uintptr) error
	// SetWindowState requests a state change. Completion is reported later
	// as a NotifyWindowState notification.
	SetWindowState(native uintptr, state event.WindowState) error
	SetWindowTitle(native uintptr, title string) error
	SetWindowGeometry(native uintptr, x, y, width, height int) error
	FocusWindow(native uintptr) error
	// WindowAlive reports whether the native window still exists.
	WindowAlive(native uintptr) (bool, error)
	// MinSize is the smallest client area the OS allows.
	MinSize(decorated bool) (width, height int)
	// Scale is the physical-per-logical pixel ratio for the window.
	Scale(native uintptr) float64
}

// GLSystem negotiates and drives native OpenGL contexts.
type GLSystem interface {
	PixelFormats(window uintptr) ([]FormatCandidate, error)
	CreateContext(window uintptr, format FormatCandidate, settings ContextSettings) (uintptr, error)
	// MakeCurrent binds ctx on the calling OS thread.
	MakeCurrent(ctx, window uintptr) error
	// ClearCurrent unbinds whatever context is current on the calling thread.
	ClearCurrent() error
	DestroyContext(ctx uintptr) error
	SwapBuffers(ctx, window uintptr) error
	SetSwapInterval(ctx, window uintptr, interval int) error
}

// DeviceDescriptor identifies a native input device.
type DeviceDescriptor struct {
	// NativeID is the backend's identifier, such as an evdev node path.
	// The OS may reuse it after the device disconnects.
	NativeID string
	Name     string
	// Properties carries classification hints such as udev ID_INPUT_* keys.
	Properties map[string]string
}

// AxisInfo describes an absolute axis.
type AxisInfo struct {
	Code       uint16
	Min        int32
	Max        int32
	Resolution int32
}

// DeviceProbe is the capability report for one device.
type DeviceProbe struct {
	Name    string
	Bus     uint16
	Vendor  uint16
	Product uint16
	Hints   map[string]string
	// Keys holds supported EV_KEY codes, which include buttons.
	Keys    []uint16
	RelAxes []uint16
	AbsAxes []AxisInfo
}

// DeviceSource enumerates input devices and reports hotplug.
type DeviceSource interface {
	Enumerate() ([]DeviceDescriptor, error)
	Probe(desc DeviceDescriptor) (DeviceProbe, error)
	// Watch sends device notifications to out until ctx is done, calling
	// wake after each send. Serials are strictly increasing in send order.
	Watch(ctx context.Context, out chan<- Notification, wake func()) error
}

// Cursor is an optional capability showing or hiding the pointer while it
// is over a window.
type Cursor interface {
	SetCursorVisible(native uintptr, visible bool) error
}

// Keymap is an optional capability resolving layout-dependent keys.
type Keymap interface {
	Key(sc event.Scancode) (event.Key, bool)
	Scancode(k event.Key) (event.Scancode, bool)
}

// Backend is one native platform variant.
type Backend interface {
	Name() string
	EventSource
	WindowSystem
	GLSystem
	// Devices returns the device source, or nil when the backend has none.
	Devices() DeviceSource
	Close() error
}
