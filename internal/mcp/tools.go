package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/platlayer"
	"github.com/1broseidon/platlayer/internal/event"
)

const (
	defaultPollMax = 100
	maxPollWait    = 30 * time.Second
)

func windowInfo(w platlayer.Window) WindowInfo {
	return WindowInfo{
		ID:           uint64(w.ID),
		Title:        w.Title,
		X:            w.Geometry.X,
		Y:            w.Geometry.Y,
		Width:        w.Geometry.Size.Width,
		Height:       w.Geometry.Size.Height,
		Scale:        w.Geometry.Scale,
		State:        w.State.String(),
		Focused:      w.Focused,
		Visible:      w.Visible,
		Resizable:    w.Resizable,
		Decorated:    w.Decorated,
		CursorHidden: w.CursorHidden,
	}
}

func deviceInfo(d platlayer.Device) DeviceInfo {
	return DeviceInfo{
		ID:       uint64(d.ID),
		Class:    d.Class.String(),
		Name:     d.Name,
		NativeID: d.NativeID,
		Bus:      d.Bus,
		Vendor:   d.Vendor,
		Product:  d.Product,
		State:    d.State.String(),
		Keys:     len(d.Caps.Keys),
		Axes:     len(d.Caps.RelAxes) + len(d.Caps.AbsAxes),
	}
}

func (s *Server) handleDescribe(ctx context.Context, _ *mcpsdk.CallToolRequest, _ DescribeInput) (*mcpsdk.CallToolResult, DescribeOutput, error) {
	var out DescribeOutput
	err := s.do(ctx, func() error {
		stats := s.platform.Stats()
		out = DescribeOutput{
			Backend:    s.platform.Backend(),
			Backends:   platlayer.Backends(),
			Windows:    len(s.platform.Windows()),
			Devices:    len(s.platform.Devices()),
			Contexts:   len(s.platform.Contexts()),
			Enqueued:   stats.Enqueued,
			Delivered:  stats.Delivered,
			Coalesced:  stats.Coalesced,
			Duplicates: s.platform.Duplicates(),
		}
		return nil
	})
	return nil, out, err
}

func (s *Server) handleListWindows(ctx context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	out := ListWindowsOutput{Windows: []WindowInfo{}}
	err := s.do(ctx, func() error {
		for _, w := range s.platform.Windows() {
			out.Windows = append(out.Windows, windowInfo(w))
		}
		return nil
	})
	return nil, out, err
}

func (s *Server) handleListDevices(ctx context.Context, _ *mcpsdk.CallToolRequest, args ListDevicesInput) (*mcpsdk.CallToolResult, ListDevicesOutput, error) {
	out := ListDevicesOutput{Devices: []DeviceInfo{}}
	err := s.do(ctx, func() error {
		if args.Rescan {
			if err := s.platform.ScanDevices(); err != nil {
				return fmt.Errorf("failed to rescan devices: %w", err)
			}
		}
		for _, d := range s.platform.Devices() {
			out.Devices = append(out.Devices, deviceInfo(d))
		}
		return nil
	})
	return nil, out, err
}

// windowConfig resolves the preset and applies the explicit overrides.
func (s *Server) windowConfig(args CreateWindowInput) (platlayer.WindowConfig, error) {
	cfg := platlayer.DefaultWindowConfig()
	if args.Preset != "" {
		preset, err := s.platform.Config().Window(args.Preset)
		if err != nil {
			return cfg, err
		}
		cfg = preset
	}
	if args.Title != nil {
		cfg.Title = *args.Title
	}
	if args.Width != 0 {
		cfg.Size[0] = args.Width
	}
	if args.Height != 0 {
		cfg.Size[1] = args.Height
	}
	if (args.X == nil) != (args.Y == nil) {
		return cfg, fmt.Errorf("x and y must be given together")
	}
	if args.X != nil {
		cfg.Position = &[2]int{*args.X, *args.Y}
	}
	for _, o := range []struct {
		dst *bool
		v   *bool
	}{
		{&cfg.Resizable, args.Resizable},
		{&cfg.Fullscreen, args.Fullscreen},
		{&cfg.Decorated, args.Decorated},
		{&cfg.Visible, args.Visible},
	} {
		if o.v != nil {
			*o.dst = *o.v
		}
	}
	return cfg, nil
}

func (s *Server) handleCreateWindow(ctx context.Context, _ *mcpsdk.CallToolRequest, args CreateWindowInput) (*mcpsdk.CallToolResult, CreateWindowOutput, error) {
	var out CreateWindowOutput
	err := s.do(ctx, func() error {
		cfg, err := s.windowConfig(args)
		if err != nil {
			return err
		}
		w, err := s.platform.CreateWindow(cfg)
		if err != nil {
			return err
		}
		out.Window = windowInfo(w)
		return nil
	})
	if err != nil {
		return nil, CreateWindowOutput{}, err
	}
	s.logger.Info("window created", "window", out.Window.ID)
	return nil, out, nil
}

func (s *Server) handleCloseWindow(ctx context.Context, _ *mcpsdk.CallToolRequest, args CloseWindowInput) (*mcpsdk.CallToolResult, CloseWindowOutput, error) {
	if args.ID == 0 {
		return nil, CloseWindowOutput{}, fmt.Errorf("id is required")
	}
	err := s.do(ctx, func() error {
		return s.platform.CloseWindow(platlayer.WindowID(args.ID))
	})
	if err != nil {
		return nil, CloseWindowOutput{}, err
	}
	return nil, CloseWindowOutput{ID: args.ID, Closed: true}, nil
}

func (s *Server) handleSetWindowState(ctx context.Context, _ *mcpsdk.CallToolRequest, args SetWindowStateInput) (*mcpsdk.CallToolResult, SetWindowStateOutput, error) {
	state, ok := event.ParseWindowState(args.State)
	if !ok || state == event.StateClosed {
		return nil, SetWindowStateOutput{}, fmt.Errorf("state must be one of: normal, minimized, maximized, fullscreen")
	}
	err := s.do(ctx, func() error {
		return s.platform.SetWindowState(platlayer.WindowID(args.ID), state)
	})
	if err != nil {
		return nil, SetWindowStateOutput{}, err
	}
	return nil, SetWindowStateOutput{ID: args.ID, Requested: state.String()}, nil
}

func (s *Server) handlePollEvents(ctx context.Context, _ *mcpsdk.CallToolRequest, args PollEventsInput) (*mcpsdk.CallToolResult, PollEventsOutput, error) {
	limit := args.Max
	if limit <= 0 {
		limit = defaultPollMax
	}
	if args.WaitMS < 0 {
		return nil, PollEventsOutput{}, fmt.Errorf("wait_ms must be >= 0")
	}
	if wait := min(time.Duration(args.WaitMS)*time.Millisecond, maxPollWait); wait > 0 {
		s.waitForEvent(ctx, wait)
	}
	events, dropped := s.take(limit)
	return nil, PollEventsOutput{Events: events, Dropped: dropped}, nil
}
