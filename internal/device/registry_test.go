package device

import (
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/backend/headless"
	"github.com/1broseidon/platlayer/internal/event"
	"github.com/1broseidon/platlayer/internal/perr"
)

type fixture struct {
	src   *headless.DeviceSource
	queue *event.Queue
	reg   *Registry
}

func newFixture() fixture {
	src := headless.New(backend.Options{}).DeviceSource()
	q := event.NewQueue(event.QueueOptions{})
	reg := NewRegistry(Config{Source: src, Queue: q})
	q.SetHooks(reg.Hooks())
	return fixture{src: src, queue: q, reg: reg}
}

func drain(q *event.Queue) []event.Event {
	var out []event.Event
	for {
		ev, ok := q.Pop()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

func TestOnArrival_MintsAndEnqueuesConnected(t *testing.T) {
	f := newFixture()
	desc := backend.DeviceDescriptor{NativeID: "/dev/input/event3"}
	f.src.Plug(desc, headless.Gamepad("pad"))

	id, err := f.reg.OnArrival(desc)
	if err != nil {
		t.Fatalf("OnArrival error: %v", err)
	}
	dev, err := f.reg.Device(id)
	if err != nil || dev.Class != event.ClassController || dev.State != Connected || dev.Name != "pad" {
		t.Fatalf("unexpected device %+v err=%v", dev, err)
	}

	events := drain(f.queue)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	de := events[0].(event.DeviceEvent)
	if de.Kind != event.DeviceConnected || de.Device != id || de.Class != event.ClassController {
		t.Fatalf("unexpected event %+v", de)
	}
}

func TestOnArrival_DuplicateIsExactlyOnce(t *testing.T) {
	f := newFixture()
	desc := backend.DeviceDescriptor{NativeID: "kbd"}
	f.src.Plug(desc, headless.Keyboard("kbd"))

	first, _ := f.reg.OnArrival(desc)
	second, err := f.reg.OnArrival(desc)
	if err != nil || first != second {
		t.Fatalf("expected same id, got %d and %d (err=%v)", first, second, err)
	}
	if n := len(drain(f.queue)); n != 1 {
		t.Fatalf("expected one Connected event, got %d", n)
	}
}

func TestOnArrival_ProbeFailureMintsNothing(t *testing.T) {
	f := newFixture()
	f.src.Plug(backend.DeviceDescriptor{NativeID: "good"}, headless.Mouse("mouse"))
	f.src.Plug(backend.DeviceDescriptor{NativeID: "bad"}, headless.Mouse("mouse"))
	f.src.FailProbe("bad", errors.New("permission denied"))

	_, err := f.reg.OnArrival(backend.DeviceDescriptor{NativeID: "bad"})
	if !errors.Is(err, perr.ErrDeviceQueryFailed) {
		t.Fatalf("expected ErrDeviceQueryFailed, got %v", err)
	}
	if _, err := f.reg.OnArrival(backend.DeviceDescriptor{NativeID: "good"}); err != nil {
		t.Fatalf("other device affected: %v", err)
	}
	if got := len(f.reg.Enumerate()); got != 1 {
		t.Fatalf("expected 1 device, got %d", got)
	}
}

type stalledSource struct {
	*headless.DeviceSource
	release chan struct{}
}

func (s stalledSource) Probe(desc backend.DeviceDescriptor) (backend.DeviceProbe, error) {
	<-s.release
	return s.DeviceSource.Probe(desc)
}

func TestOnArrival_ProbeTimeout(t *testing.T) {
	src := stalledSource{DeviceSource: headless.New(backend.Options{}).DeviceSource(), release: make(chan struct{})}
	defer close(src.release)
	src.Plug(backend.DeviceDescriptor{NativeID: "slow"}, headless.Mouse("mouse"))

	reg := NewRegistry(Config{Source: src, Queue: event.NewQueue(event.QueueOptions{}), ProbeTimeout: 10 * time.Millisecond})
	_, err := reg.OnArrival(backend.DeviceDescriptor{NativeID: "slow"})
	if !errors.Is(err, perr.ErrDeviceQueryFailed) || !errors.Is(err, errProbeTimeout) {
		t.Fatalf("expected probe timeout, got %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("timed out device must not be registered")
	}
}

func TestOnArrival_Unclassified(t *testing.T) {
	f := newFixture()
	desc := backend.DeviceDescriptor{NativeID: "power"}
	f.src.Plug(desc, backend.DeviceProbe{Keys: []uint16{116}})

	_, err := f.reg.OnArrival(desc)
	if !errors.Is(err, perr.ErrDeviceQueryFailed) || !errors.Is(err, ErrUnclassified) {
		t.Fatalf("expected unclassified query failure, got %v", err)
	}
	if f.queue.Len() != 0 {
		t.Fatalf("unclassified device must not enqueue events")
	}
}

func TestReconnectYieldsFreshID(t *testing.T) {
	f := newFixture()
	desc := backend.DeviceDescriptor{NativeID: "/dev/input/event7"}
	f.src.Plug(desc, headless.Gamepad("pad"))

	seen := make(map[event.DeviceID]bool)
	for i := 0; i < 3; i++ {
		id, err := f.reg.OnArrival(desc)
		if err != nil {
			t.Fatalf("OnArrival error: %v", err)
		}
		if seen[id] {
			t.Fatalf("id %d reused after reconnect", id)
		}
		seen[id] = true
		f.reg.OnRemoval(desc)
		drain(f.queue)
	}
}

func TestDisconnectedDeviceLivesUntilDrained(t *testing.T) {
	f := newFixture()
	desc := backend.DeviceDescriptor{NativeID: "pad"}
	f.src.Plug(desc, headless.Gamepad("pad"))
	id, _ := f.reg.OnArrival(desc)
	f.queue.Push(event.DeviceEvent{Device: id, Kind: event.DeviceButtonDown, Code: 0x130})

	f.reg.OnRemoval(desc)
	dev, err := f.reg.Device(id)
	if err != nil || dev.State != Disconnected {
		t.Fatalf("expected disconnected device to remain, got %+v err=%v", dev, err)
	}
	if got := len(f.reg.Enumerate()); got != 0 {
		t.Fatalf("disconnected devices must not be enumerated, got %d", got)
	}

	for f.queue.Len() > 0 {
		if _, err := f.reg.Device(id); err != nil {
			t.Fatalf("device collected while events are queued: %v", err)
		}
		f.queue.Pop()
	}
	if _, err := f.reg.Device(id); !errors.Is(err, perr.ErrStaleHandle) {
		t.Fatalf("expected collected device to be stale, got %v", err)
	}
	if f.reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", f.reg.Len())
	}
}

func TestOnRemoval_UnknownIsNoop(t *testing.T) {
	f := newFixture()
	f.reg.OnRemoval(backend.DeviceDescriptor{NativeID: "ghost"})
	if f.queue.Len() != 0 {
		t.Fatalf("expected no events")
	}
}

func TestScanRegistersAttachedDevices(t *testing.T) {
	f := newFixture()
	f.src.Plug(backend.DeviceDescriptor{NativeID: "a"}, headless.Keyboard("kbd"))
	f.src.Plug(backend.DeviceDescriptor{NativeID: "b"}, headless.Mouse("mouse"))
	f.src.Plug(backend.DeviceDescriptor{NativeID: "c"}, headless.Gamepad("pad"))
	f.src.FailProbe("c", errors.New("busy"))

	if err := f.reg.Scan(); err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	devs := f.reg.Enumerate()
	if len(devs) != 2 || devs[0].ID >= devs[1].ID {
		t.Fatalf("unexpected devices %+v", devs)
	}
}

func TestControllerStateFollowsQueuedInput(t *testing.T) {
	f := newFixture()
	desc := backend.DeviceDescriptor{NativeID: "pad"}
	f.src.Plug(desc, headless.Gamepad("pad"))
	id, _ := f.reg.OnArrival(desc)

	state, err := f.reg.ControllerState(id)
	if err != nil {
		t.Fatalf("ControllerState error: %v", err)
	}
	if len(state.Buttons) != 6 || len(state.Axes) != 4 || state.Pressed(0x130) || state.Axis(0x01) != 0 {
		t.Fatalf("unexpected initial state %+v", state)
	}

	tests := []struct {
		ev      event.DeviceEvent
		button  bool
		axisVal float64
	}{
		{event.DeviceEvent{Device: id, Kind: event.DeviceButtonDown, Code: 0x130}, true, 0},
		{event.DeviceEvent{Device: id, Kind: event.DeviceAxisMotion, Code: 0x01, Value: -0.5}, true, -0.5},
		{event.DeviceEvent{Device: id, Kind: event.DeviceButtonUp, Code: 0x130}, false, -0.5},
	}
	for i, tt := range tests {
		f.queue.Push(tt.ev)
		state, err := f.reg.ControllerState(id)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if state.Pressed(0x130) != tt.button || state.Axis(0x01) != tt.axisVal {
			t.Fatalf("step %d: pressed=%v axis=%v", i, state.Pressed(0x130), state.Axis(0x01))
		}
	}

	state.Buttons[0x131] = true
	if again, _ := f.reg.ControllerState(id); again.Pressed(0x131) {
		t.Fatalf("snapshot must not alias registry state")
	}
}

func TestControllerState_CollectedDeviceIsStale(t *testing.T) {
	f := newFixture()
	desc := backend.DeviceDescriptor{NativeID: "pad"}
	f.src.Plug(desc, headless.Gamepad("pad"))
	id, _ := f.reg.OnArrival(desc)
	f.reg.OnRemoval(desc)
	drain(f.queue)

	if _, err := f.reg.ControllerState(id); !errors.Is(err, perr.ErrStaleHandle) {
		t.Fatalf("expected ErrStaleHandle, got %v", err)
	}
	if _, err := f.reg.ControllerState(99); !errors.Is(err, perr.ErrStaleHandle) {
		t.Fatalf("expected never-minted id to be stale, got %v", err)
	}
}
