//go:build linux

package evdev

import (
	"context"

	goevdev "github.com/holoplot/go-evdev"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/device"
	"github.com/1broseidon/platlayer/internal/event"
)

// reader streams controller input from one device node.
type reader struct {
	dev    *goevdev.InputDevice
	cancel context.CancelFunc
}

// attach starts a reader when desc is a controller. Keyboards and pointers
// reach the application through the window system instead.
func (s *Source) attach(ctx context.Context, desc backend.DeviceDescriptor, in chan<- backend.Notification) {
	dev, err := goevdev.Open(desc.NativeID)
	if err != nil {
		s.logger.Debug("cannot open device for input", "node", desc.NativeID, "error", err)
		return
	}
	probe, err := probeDevice(dev, desc)
	if err != nil {
		dev.Close()
		return
	}
	if class, ok := device.Classify(probe); !ok || class != event.ClassController {
		dev.Close()
		return
	}

	rctx, cancel := context.WithCancel(ctx)
	r := &reader{dev: dev, cancel: cancel}

	s.mu.Lock()
	if old, ok := s.readers[desc.NativeID]; ok {
		old.stop()
	}
	s.readers[desc.NativeID] = r
	s.mu.Unlock()

	ranges := make(map[uint16]backend.AxisInfo, len(probe.AbsAxes))
	for _, ax := range probe.AbsAxes {
		ranges[ax.Code] = ax
	}
	s.logger.Info("reading controller", "node", desc.NativeID, "name", probe.Name)
	go s.read(rctx, r, desc, ranges, in)
}

func (r *reader) stop() {
	r.cancel()
	// Closing the node unblocks ReadOne.
	r.dev.Close()
}

func (s *Source) detach(nativeID string) {
	s.mu.Lock()
	r, ok := s.readers[nativeID]
	delete(s.readers, nativeID)
	s.mu.Unlock()
	if ok {
		r.stop()
	}
}

func (s *Source) detachAll() {
	s.mu.Lock()
	readers := s.readers
	s.readers = make(map[string]*reader)
	s.mu.Unlock()
	for _, r := range readers {
		r.stop()
	}
}

func (s *Source) read(ctx context.Context, r *reader, desc backend.DeviceDescriptor, ranges map[uint16]backend.AxisInfo, in chan<- backend.Notification) {
	for {
		ev, err := r.dev.ReadOne()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Debug("controller read stopped", "node", desc.NativeID, "error", err)
			}
			return
		}
		n, ok := controllerNotification(ev.Type, uint16(ev.Code), ev.Value, ranges)
		if !ok {
			continue
		}
		n.Device = desc
		n.Arrival = s.clock.Now()
		select {
		case in <- n:
		case <-ctx.Done():
			return
		}
	}
}

func controllerNotification(typ goevdev.EvType, code uint16, value int32, ranges map[uint16]backend.AxisInfo) (backend.Notification, bool) {
	switch typ {
	case goevdev.EV_KEY:
		// Value 2 is kernel auto-repeat.
		if value == 2 {
			return backend.Notification{}, false
		}
		return backend.Notification{Kind: backend.NotifyControllerButton, Code: code, Pressed: value != 0}, true
	case goevdev.EV_ABS:
		info, ok := ranges[code]
		if !ok {
			return backend.Notification{}, false
		}
		return backend.Notification{Kind: backend.NotifyControllerAxis, Code: code, Value: normalizeAxis(value, info)}, true
	}
	return backend.Notification{}, false
}

// normalizeAxis maps a raw value onto [-1, 1] for centered axes and [0, 1]
// for axes whose range starts at zero, such as triggers.
func normalizeAxis(value int32, info backend.AxisInfo) float64 {
	span := float64(info.Max) - float64(info.Min)
	if span <= 0 {
		return 0
	}
	t := (float64(value) - float64(info.Min)) / span
	if info.Min < 0 {
		t = t*2 - 1
	}
	switch {
	case t < -1:
		return -1
	case t > 1:
		return 1
	}
	return t
}
