package platlayer

import (
	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/device"
	"github.com/1broseidon/platlayer/internal/event"
	"github.com/1broseidon/platlayer/internal/glctx"
	"github.com/1broseidon/platlayer/internal/perr"
	"github.com/1broseidon/platlayer/internal/window"
)

type (
	Event        = event.Event
	WindowEvent  = event.WindowEvent
	KeyEvent     = event.KeyEvent
	PointerEvent = event.PointerEvent
	DeviceEvent  = event.DeviceEvent

	WindowID    = event.WindowID
	DeviceID    = event.DeviceID
	ContextID   = glctx.ContextID
	Timestamp   = event.Timestamp
	Geometry    = event.Geometry
	WindowState = event.WindowState
	DeviceClass = event.DeviceClass
	Key         = event.Key
	Scancode    = event.Scancode
	Modifiers   = event.Modifiers
	QueueStats  = event.Stats

	WindowConfig    = window.Config
	Window          = window.Window
	Device          = device.Device
	ControllerState = device.ControllerState
	Context         = glctx.Context
	PixelFormat     = backend.PixelFormat
	ContextSettings = backend.ContextSettings
)

const (
	StateNormal     = event.StateNormal
	StateMinimized  = event.StateMinimized
	StateMaximized  = event.StateMaximized
	StateFullscreen = event.StateFullscreen
	StateClosed     = event.StateClosed
)

const (
	WindowShown          = event.WindowShown
	WindowHidden         = event.WindowHidden
	WindowMoved          = event.WindowMoved
	WindowResized        = event.WindowResized
	WindowStateChanged   = event.WindowStateChanged
	WindowFocusGained    = event.WindowFocusGained
	WindowFocusLost      = event.WindowFocusLost
	WindowCloseRequested = event.WindowCloseRequested
	WindowClosed         = event.WindowClosed

	DeviceConnected    = event.DeviceConnected
	DeviceDisconnected = event.DeviceDisconnected
	DeviceButtonDown   = event.DeviceButtonDown
	DeviceButtonUp     = event.DeviceButtonUp
	DeviceAxisMotion   = event.DeviceAxisMotion
)

// Error kinds, matched with errors.Is.
var (
	ErrPlatform          = perr.ErrPlatform
	ErrStaleHandle       = perr.ErrStaleHandle
	ErrUnsupportedFormat = perr.ErrUnsupportedFormat
	ErrContextBusy       = perr.ErrContextBusy
	ErrDeviceQueryFailed = perr.ErrDeviceQueryFailed
	ErrInvalidArgument   = perr.ErrInvalidArgument
)

// DefaultWindowConfig is an 800x600 decorated, visible, fixed-size window.
func DefaultWindowConfig() WindowConfig { return window.DefaultConfig() }

// DefaultPixelFormat is RGBA8 with 24-bit depth and 8-bit stencil, double
// buffered.
func DefaultPixelFormat() PixelFormat { return backend.DefaultPixelFormat() }
