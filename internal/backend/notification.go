package backend

import (
	"fmt"
	"sync"

	"github.com/1broseidon/platlayer/internal/event"
)

// Kind says what a raw notification reports.
type Kind uint8

const (
	NotifyWindowGeometry Kind = iota + 1
	NotifyWindowState
	NotifyWindowFocus
	NotifyWindowVisibility
	NotifyWindowCloseRequested
	NotifyWindowDestroyed
	NotifyKey
	NotifyPointerMotion
	NotifyPointerButton
	NotifyPointerScroll
	NotifyPointerEnter
	NotifyPointerLeave
	NotifyTouch
	NotifyDeviceAdded
	NotifyDeviceRemoved
	NotifyControllerButton
	NotifyControllerAxis
)

var kindNames = map[Kind]string{
	NotifyWindowGeometry:       "window-geometry",
	NotifyWindowState:          "window-state",
	NotifyWindowFocus:          "window-focus",
	NotifyWindowVisibility:     "window-visibility",
	NotifyWindowCloseRequested: "window-close-requested",
	NotifyWindowDestroyed:      "window-destroyed",
	NotifyKey:                  "key",
	NotifyPointerMotion:        "pointer-motion",
	NotifyPointerButton:        "pointer-button",
	NotifyPointerScroll:        "pointer-scroll",
	NotifyPointerEnter:         "pointer-enter",
	NotifyPointerLeave:         "pointer-leave",
	NotifyTouch:                "touch",
	NotifyDeviceAdded:          "device-added",
	NotifyDeviceRemoved:        "device-removed",
	NotifyControllerButton:     "controller-button",
	NotifyControllerAxis:       "controller-axis",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("notification(%d)", uint8(k))
}

// Notification is one raw report from a native source, before translation.
// Fields not relevant to Kind are zero.
type Notification struct {
	// Source names the producing source. Serial is strictly increasing per
	// source; zero means the notification is unsequenced.
	Source  string
	Serial  uint64
	Arrival event.Timestamp
	Kind    Kind

	// Window is the native window handle, zero for device-level input.
	Window uintptr
	// Device identifies the producing device for device notifications and,
	// when known, for input.
	Device DeviceDescriptor

	Geometry event.Geometry
	State    event.WindowState
	Focused  bool
	Visible  bool

	// Scancode zero or Key empty means the backend did not resolve that half.
	Scancode  event.Scancode
	Key       event.Key
	Action    event.KeyAction
	Modifiers event.Modifiers

	Position    event.Point
	HasPosition bool
	Delta       event.Point
	HasDelta    bool
	Button      event.Button
	Pressed     bool
	Scroll      event.Point
	// Phase is PointerPress, PointerMove or PointerRelease for NotifyTouch.
	Phase  event.PointerKind
	Finger int

	// Code and Value carry controller button and axis input.
	Code  uint16
	Value float64
}

// Sequencer stamps notifications of one source with serials and arrival
// times. Consumers treat a serial at or below the last one seen as a
// duplicate, so a source must stamp and publish each notification under
// the same lock; otherwise two producers can publish serials out of order.
type Sequencer struct {
	source string
	clock  *event.Clock

	mu   sync.Mutex
	last uint64
}

// NewSequencer returns a sequencer for the named source.
func NewSequencer(source string, clock *event.Clock) *Sequencer {
	return &Sequencer{source: source, clock: clock}
}

// Stamp assigns the next serial. Arrival is set to now unless the producer
// already recorded it.
func (s *Sequencer) Stamp(n Notification) Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	n.Source = s.source
	n.Serial = s.last
	if n.Arrival == 0 {
		n.Arrival = s.clock.Now()
	}
	return n
}

// Source returns the source name.
func (s *Sequencer) Source() string { return s.source }
