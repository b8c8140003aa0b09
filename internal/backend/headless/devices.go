package headless

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

type plugged struct {
	desc  backend.DeviceDescriptor
	probe backend.DeviceProbe
}

// DeviceSource is an injectable device source.
type DeviceSource struct {
	clock *event.Clock
	seq   *backend.Sequencer
	feed  chan backend.Notification

	mu       sync.Mutex
	devices  map[string]plugged
	probeErr map[string]error
	watching bool
}

var _ backend.DeviceSource = (*DeviceSource)(nil)

func newDeviceSource(clock *event.Clock) *DeviceSource {
	return &DeviceSource{
		clock:    clock,
		seq:      backend.NewSequencer(Name+"-devices", clock),
		feed:     make(chan backend.Notification, 64),
		devices:  make(map[string]plugged),
		probeErr: make(map[string]error),
	}
}

// Plug connects a device. While Watch runs, an arrival notification is sent.
func (s *DeviceSource) Plug(desc backend.DeviceDescriptor, probe backend.DeviceProbe) {
	s.mu.Lock()
	s.devices[desc.NativeID] = plugged{desc: desc, probe: probe}
	watching := s.watching
	s.mu.Unlock()

	if watching {
		s.feed <- backend.Notification{Kind: backend.NotifyDeviceAdded, Device: desc, Arrival: s.clock.Now()}
	}
}

// Unplug disconnects a device. While Watch runs, a removal notification is
// sent.
func (s *DeviceSource) Unplug(nativeID string) {
	s.mu.Lock()
	p, ok := s.devices[nativeID]
	delete(s.devices, nativeID)
	watching := s.watching
	s.mu.Unlock()

	if ok && watching {
		s.feed <- backend.Notification{Kind: backend.NotifyDeviceRemoved, Device: p.desc, Arrival: s.clock.Now()}
	}
}

// Send injects controller input for a plugged device.
func (s *DeviceSource) Send(nativeID string, n backend.Notification) {
	n.Device = backend.DeviceDescriptor{NativeID: nativeID}
	if n.Arrival == 0 {
		n.Arrival = s.clock.Now()
	}
	s.feed <- n
}

// FailProbe makes probing nativeID fail with err until cleared with nil.
func (s *DeviceSource) FailProbe(nativeID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.probeErr, nativeID)
		return
	}
	s.probeErr[nativeID] = err
}

func (s *DeviceSource) Enumerate() ([]backend.DeviceDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]backend.DeviceDescriptor, 0, len(s.devices))
	for _, p := range s.devices {
		out = append(out, p.desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NativeID < out[j].NativeID })
	return out, nil
}

func (s *DeviceSource) Probe(desc backend.DeviceDescriptor) (backend.DeviceProbe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.probeErr[desc.NativeID]; err != nil {
		return backend.DeviceProbe{}, err
	}
	p, ok := s.devices[desc.NativeID]
	if !ok {
		return backend.DeviceProbe{}, fmt.Errorf("device %s is not connected", desc.NativeID)
	}
	return p.probe, nil
}

func (s *DeviceSource) Watch(ctx context.Context, out chan<- backend.Notification, wake func()) error {
	s.mu.Lock()
	s.watching = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.watching = false
		s.mu.Unlock()
	}()

	backend.Forward(ctx, s.feed, out, s.seq, wake)
	return nil
}

// Keyboard returns a probe for a plain keyboard.
func Keyboard(name string) backend.DeviceProbe {
	keys := make([]uint16, 0, 100)
	for code := uint16(1); code <= 88; code++ {
		keys = append(keys, code)
	}
	return backend.DeviceProbe{Name: name, Keys: keys}
}

// Mouse returns a probe for a three-button mouse.
func Mouse(name string) backend.DeviceProbe {
	return backend.DeviceProbe{
		Name:    name,
		Keys:    []uint16{0x110, 0x111, 0x112},
		RelAxes: []uint16{0x00, 0x01, 0x08},
	}
}

// Gamepad returns a probe for a gamepad with two sticks.
func Gamepad(name string) backend.DeviceProbe {
	return backend.DeviceProbe{
		Name: name,
		Keys: []uint16{0x130, 0x131, 0x133, 0x134, 0x13a, 0x13b},
		AbsAxes: []backend.AxisInfo{
			{Code: 0x00, Min: -32768, Max: 32767},
			{Code: 0x01, Min: -32768, Max: 32767},
			{Code: 0x03, Min: -32768, Max: 32767},
			{Code: 0x04, Min: -32768, Max: 32767},
		},
	}
}
