package mcp

import (
	"context"
	"time"

	"github.com/1broseidon/platlayer"
	"github.com/1broseidon/platlayer/internal/event"
)

func (s *Server) record(ev platlayer.Event) {
	info := DescribeEvent(ev)
	s.mu.Lock()
	if len(s.events) >= s.limit {
		s.events = s.events[1:]
		s.dropped++
	}
	s.events = append(s.events, info)
	s.mu.Unlock()

	select {
	case s.arrived <- struct{}{}:
	default:
	}
}

// take removes up to limit buffered events.
func (s *Server) take(limit int) ([]EventInfo, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := min(limit, len(s.events))
	out := make([]EventInfo, n)
	copy(out, s.events[:n])
	s.events = s.events[n:]
	return out, s.dropped
}

func (s *Server) buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// waitForEvent blocks until an event is buffered, the timeout elapses or ctx
// is done.
func (s *Server) waitForEvent(ctx context.Context, timeout time.Duration) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for s.buffered() == 0 {
		select {
		case <-s.arrived:
		case <-timer.C:
			return
		case <-ctx.Done():
			return
		}
	}
}

// DescribeEvent flattens ev into a JSON-friendly record.
func DescribeEvent(ev platlayer.Event) EventInfo {
	info := EventInfo{TimeMS: float64(ev.Timestamp().Duration().Microseconds()) / 1000}
	switch e := ev.(type) {
	case event.WindowEvent:
		info.Type = "window"
		info.Kind = e.Kind.String()
		info.Window = uint64(e.Window)
		switch e.Kind {
		case event.WindowMoved, event.WindowResized:
			info.Fields = map[string]any{
				"x": e.Geometry.X, "y": e.Geometry.Y,
				"width": e.Geometry.Size.Width, "height": e.Geometry.Size.Height,
				"scale": e.Geometry.Scale,
			}
		case event.WindowStateChanged, event.WindowClosed:
			info.Fields = map[string]any{"state": e.State.String()}
		}
	case event.KeyEvent:
		info.Type = "key"
		info.Kind = e.Action.String()
		info.Window = uint64(e.Window)
		info.Device = uint64(e.Device)
		info.Fields = map[string]any{"scancode": uint16(e.Scancode), "key": string(e.Key)}
		if e.Modifiers != 0 {
			info.Fields["modifiers"] = e.Modifiers.String()
		}
	case event.PointerEvent:
		info.Type = "pointer"
		info.Kind = e.Kind.String()
		info.Window = uint64(e.Window)
		info.Device = uint64(e.Device)
		info.Fields = map[string]any{
			"x": e.Position.X, "y": e.Position.Y,
			"dx": e.Delta.X, "dy": e.Delta.Y,
		}
		switch e.Kind {
		case event.PointerPress, event.PointerRelease:
			info.Fields["button"] = uint8(e.Button)
		case event.PointerScroll:
			info.Fields["scroll_x"], info.Fields["scroll_y"] = e.Scroll.X, e.Scroll.Y
		}
		if e.Source == event.SourceTouch {
			info.Fields["finger"] = e.Finger
		}
	case event.DeviceEvent:
		info.Type = "device"
		info.Kind = e.Kind.String()
		info.Device = uint64(e.Device)
		info.Fields = map[string]any{"class": e.Class.String()}
		switch e.Kind {
		case event.DeviceButtonDown, event.DeviceButtonUp:
			info.Fields["code"] = e.Code
		case event.DeviceAxisMotion:
			info.Fields["code"] = e.Code
			info.Fields["value"] = e.Value
		}
	}
	return info
}
