// Package translate converts raw backend notifications into unified events.
package translate

import (
	"log/slog"
	"sync"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

// Windows is the window state the translator consults and updates.
type Windows interface {
	Lookup(native uintptr) (event.WindowID, bool)
	ObserveGeometry(id event.WindowID, g event.Geometry) (current event.Geometry, moved, resized bool)
	ObserveState(id event.WindowID, s event.WindowState) (event.Geometry, bool)
	ObserveFocus(id event.WindowID, focused bool) bool
	ObserveVisible(id event.WindowID, visible bool) bool
}

// Devices resolves native device ids to logical ids.
type Devices interface {
	ByNative(nativeID string) (event.DeviceID, event.DeviceClass, bool)
}

// Config configures a Translator.
type Config struct {
	Windows Windows
	Devices Devices
	// Keymap is consulted before the built-in US layout. May be nil.
	Keymap backend.Keymap
	Logger *slog.Logger
}

type pointerState struct {
	position event.Point
	buttons  event.Buttons
	seen     bool
}

// Translator is used from the pump goroutine. Forget may be called from any
// goroutine.
type Translator struct {
	windows Windows
	devices Devices
	keymap  backend.Keymap
	logger  *slog.Logger

	mu       sync.Mutex
	pointers map[event.WindowID]*pointerState
}

// New returns a translator.
func New(cfg Config) *Translator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{
		windows:  cfg.Windows,
		devices:  cfg.Devices,
		keymap:   cfg.Keymap,
		logger:   logger.With("component", "translate"),
		pointers: make(map[event.WindowID]*pointerState),
	}
}

// Forget drops per-window pointer tracking for a closed window.
func (t *Translator) Forget(id event.WindowID) {
	t.mu.Lock()
	delete(t.pointers, id)
	t.mu.Unlock()
}

// Translate converts n into zero or more events. Device hotplug and window
// destruction are not translated; the pump routes them to their owners.
func (t *Translator) Translate(n backend.Notification) []event.Event {
	switch n.Kind {
	case backend.NotifyControllerButton, backend.NotifyControllerAxis:
		return t.controller(n)
	case backend.NotifyDeviceAdded, backend.NotifyDeviceRemoved, backend.NotifyWindowDestroyed:
		t.logger.Debug("notification not translatable", "kind", n.Kind.String())
		return nil
	}

	var id event.WindowID
	if n.Window != 0 {
		var ok bool
		id, ok = t.windows.Lookup(n.Window)
		if !ok {
			t.logger.Debug("dropping notification for unmapped window",
				"kind", n.Kind.String(), "native", n.Window)
			return nil
		}
	} else if n.Kind < backend.NotifyKey {
		t.logger.Debug("dropping window notification without window", "kind", n.Kind.String())
		return nil
	}

	switch n.Kind {
	case backend.NotifyWindowGeometry:
		return t.geometry(id, n)
	case backend.NotifyWindowState:
		g, changed := t.windows.ObserveState(id, n.State)
		if !changed {
			return nil
		}
		return []event.Event{event.WindowEvent{Window: id, Kind: event.WindowStateChanged, Time: n.Arrival, Geometry: g, State: n.State}}
	case backend.NotifyWindowFocus:
		if !t.windows.ObserveFocus(id, n.Focused) {
			return nil
		}
		kind := event.WindowFocusLost
		if n.Focused {
			kind = event.WindowFocusGained
		}
		return []event.Event{event.WindowEvent{Window: id, Kind: kind, Time: n.Arrival}}
	case backend.NotifyWindowVisibility:
		if !t.windows.ObserveVisible(id, n.Visible) {
			return nil
		}
		kind := event.WindowHidden
		if n.Visible {
			kind = event.WindowShown
		}
		return []event.Event{event.WindowEvent{Window: id, Kind: kind, Time: n.Arrival}}
	case backend.NotifyWindowCloseRequested:
		return []event.Event{event.WindowEvent{Window: id, Kind: event.WindowCloseRequested, Time: n.Arrival}}
	case backend.NotifyKey:
		return []event.Event{t.key(id, n)}
	case backend.NotifyPointerMotion, backend.NotifyPointerButton, backend.NotifyPointerScroll,
		backend.NotifyPointerEnter, backend.NotifyPointerLeave:
		return t.pointer(id, n)
	case backend.NotifyTouch:
		return []event.Event{t.touch(id, n)}
	}

	t.logger.Debug("unknown notification kind", "kind", n.Kind.String())
	return nil
}

func (t *Translator) geometry(id event.WindowID, n backend.Notification) []event.Event {
	g, moved, resized := t.windows.ObserveGeometry(id, n.Geometry)
	var out []event.Event
	if moved {
		out = append(out, event.WindowEvent{Window: id, Kind: event.WindowMoved, Time: n.Arrival, Geometry: g})
	}
	if resized {
		out = append(out, event.WindowEvent{Window: id, Kind: event.WindowResized, Time: n.Arrival, Geometry: g})
	}
	return out
}

func (t *Translator) device(nativeID string) event.DeviceID {
	if nativeID == "" || t.devices == nil {
		return 0
	}
	id, _, ok := t.devices.ByNative(nativeID)
	if !ok {
		return 0
	}
	return id
}

func (t *Translator) controller(n backend.Notification) []event.Event {
	if t.devices == nil {
		return nil
	}
	id, class, ok := t.devices.ByNative(n.Device.NativeID)
	if !ok {
		t.logger.Debug("dropping input from unknown device", "native", n.Device.NativeID)
		return nil
	}
	ev := event.DeviceEvent{Device: id, Class: class, Time: n.Arrival, Code: n.Code}
	switch {
	case n.Kind == backend.NotifyControllerAxis:
		ev.Kind = event.DeviceAxisMotion
		ev.Value = clampUnit(n.Value)
	case n.Pressed:
		ev.Kind = event.DeviceButtonDown
	default:
		ev.Kind = event.DeviceButtonUp
	}
	return []event.Event{ev}
}

func clampUnit(v float64) float64 {
	return min(max(v, -1), 1)
}
