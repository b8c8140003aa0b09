//go:build glfw

package desktop

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

// JoystickSourceName labels notifications from the joystick source.
const JoystickSourceName = "glfw-joystick"

// Controller codes follow evdev: buttons from BTN_GAMEPAD, axes from ABS_X.
const (
	btnGamepad = 0x130
	// axisEpsilon suppresses axis jitter.
	axisEpsilon = 1.0 / 256
)

type joystick struct {
	desc    backend.DeviceDescriptor
	name    string
	gamepad bool
	axes    []float32
	buttons []glfw.Action
}

// JoystickSource reports GLFW joysticks as controller devices. GLFW calls
// must happen on the main thread, so state is refreshed by the backend's
// poll and only read here.
type JoystickSource struct {
	clock  *event.Clock
	logger *slog.Logger
	feed   chan backend.Notification

	mu       sync.Mutex
	present  map[glfw.Joystick]*joystick
	watching bool
}

var _ backend.DeviceSource = (*JoystickSource)(nil)

func newJoystickSource(clock *event.Clock, logger *slog.Logger) *JoystickSource {
	s := &JoystickSource{
		clock:   clock,
		logger:  logger.With("source", JoystickSourceName),
		feed:    make(chan backend.Notification, 256),
		present: make(map[glfw.Joystick]*joystick),
	}
	for joy := glfw.Joystick1; joy <= glfw.JoystickLast; joy++ {
		if joy.Present() {
			s.present[joy] = describeJoystick(joy)
		}
	}
	return s
}

func describeJoystick(joy glfw.Joystick) *joystick {
	guid := joy.GetGUID()
	return &joystick{
		desc: backend.DeviceDescriptor{
			NativeID:   fmt.Sprintf("joystick%d:%s", int(joy), guid),
			Name:       joy.GetName(),
			Properties: map[string]string{"ID_INPUT": "1", "ID_INPUT_JOYSTICK": "1"},
		},
		name:    joy.GetName(),
		gamepad: joy.IsGamepad(),
	}
}

func (s *JoystickSource) onJoystick(joy glfw.Joystick, ev glfw.PeripheralEvent) {
	switch ev {
	case glfw.Connected:
		j := describeJoystick(joy)
		s.mu.Lock()
		s.present[joy] = j
		s.mu.Unlock()
		s.logger.Debug("joystick connected", "joystick", j.desc.NativeID, "name", j.name)
		s.emit(backend.Notification{Kind: backend.NotifyDeviceAdded, Device: j.desc})
	case glfw.Disconnected:
		s.mu.Lock()
		j, ok := s.present[joy]
		delete(s.present, joy)
		s.mu.Unlock()
		if ok {
			s.logger.Debug("joystick disconnected", "joystick", j.desc.NativeID)
			s.emit(backend.Notification{Kind: backend.NotifyDeviceRemoved, Device: j.desc})
		}
	}
}

// sample reads every joystick and emits button and axis changes.
func (s *JoystickSource) sample() {
	s.mu.Lock()
	joys := make(map[glfw.Joystick]*joystick, len(s.present))
	for joy, j := range s.present {
		joys[joy] = j
	}
	s.mu.Unlock()

	for joy, j := range joys {
		buttons := joy.GetButtons()
		for i, action := range buttons {
			if i < len(j.buttons) && j.buttons[i] == action {
				continue
			}
			if i >= len(j.buttons) && action == glfw.Release {
				continue
			}
			s.emit(backend.Notification{
				Kind:    backend.NotifyControllerButton,
				Device:  j.desc,
				Code:    uint16(btnGamepad + i),
				Pressed: action == glfw.Press,
			})
		}
		j.buttons = append(j.buttons[:0], buttons...)

		axes := joy.GetAxes()
		for i, v := range axes {
			if i < len(j.axes) && math.Abs(float64(v-j.axes[i])) < axisEpsilon {
				continue
			}
			s.emit(backend.Notification{
				Kind:   backend.NotifyControllerAxis,
				Device: j.desc,
				Code:   uint16(i),
				Value:  math.Max(-1, math.Min(1, float64(v))),
			})
		}
		j.axes = append(j.axes[:0], axes...)
	}
}

// emit hands n to a running Watch. Without one, or when the consumer is
// behind, n is dropped.
func (s *JoystickSource) emit(n backend.Notification) {
	s.mu.Lock()
	watching := s.watching
	s.mu.Unlock()
	if !watching {
		return
	}
	n.Arrival = s.clock.Now()
	select {
	case s.feed <- n:
	default:
		s.logger.Warn("joystick feed full, dropping notification", "kind", n.Kind)
	}
}

func (s *JoystickSource) watched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watching
}

func (s *JoystickSource) Enumerate() ([]backend.DeviceDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]backend.DeviceDescriptor, 0, len(s.present))
	for _, j := range s.present {
		out = append(out, j.desc)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].NativeID < out[k].NativeID })
	return out, nil
}

func (s *JoystickSource) Probe(desc backend.DeviceDescriptor) (backend.DeviceProbe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.present {
		if j.desc.NativeID != desc.NativeID {
			continue
		}
		probe := backend.DeviceProbe{Name: j.name, Hints: j.desc.Properties}
		if j.gamepad {
			for code := uint16(btnGamepad); code < btnGamepad+15; code++ {
				probe.Keys = append(probe.Keys, code)
			}
		}
		return probe, nil
	}
	return backend.DeviceProbe{}, fmt.Errorf("device %s is not connected", desc.NativeID)
}

func (s *JoystickSource) Watch(ctx context.Context, out chan<- backend.Notification, wake func()) error {
	s.mu.Lock()
	s.watching = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.watching = false
		s.mu.Unlock()
	}()
	backend.Forward(ctx, s.feed, out, backend.NewSequencer(JoystickSourceName, s.clock), wake)
	return nil
}
