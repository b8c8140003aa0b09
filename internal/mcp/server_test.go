package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/platlayer"
	"github.com/1broseidon/platlayer/internal/config"
	"github.com/1broseidon/platlayer/internal/event"
	"github.com/1broseidon/platlayer/internal/window"
)

func startServer(t *testing.T) (*Server, context.Context) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Backend = "headless"
	cfg.Reconcile.IntervalMS = 0
	cfg.Windows["tool"] = window.Config{Title: "Tool", Size: [2]int{320, 240}, Decorated: true, Visible: true}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := platlayer.Open(platlayer.Options{Config: cfg, Logger: logger})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })

	s := NewServer(p, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go s.serve(ctx)
	t.Cleanup(func() {
		cancel()
		p.Wake()
		<-s.stopped
	})
	return s, ctx
}

func TestCreateListAndCloseWindow(t *testing.T) {
	s, ctx := startServer(t)

	title := "hello"
	_, created, err := s.handleCreateWindow(ctx, nil, CreateWindowInput{Title: &title, Width: 640, Height: 480})
	if err != nil {
		t.Fatalf("create_window: %v", err)
	}
	if created.Window.Title != "hello" || created.Window.Width != 640 || created.Window.Height != 480 {
		t.Fatalf("unexpected window %+v", created.Window)
	}

	_, listed, err := s.handleListWindows(ctx, nil, ListWindowsInput{})
	if err != nil {
		t.Fatalf("list_windows: %v", err)
	}
	if len(listed.Windows) != 1 || listed.Windows[0].ID != created.Window.ID {
		t.Fatalf("unexpected windows %+v", listed.Windows)
	}

	_, closed, err := s.handleCloseWindow(ctx, nil, CloseWindowInput{ID: created.Window.ID})
	if err != nil || !closed.Closed {
		t.Fatalf("close_window = %+v, %v", closed, err)
	}
	_, listed, _ = s.handleListWindows(ctx, nil, ListWindowsInput{})
	if len(listed.Windows) != 0 {
		t.Fatalf("expected no windows after close, got %+v", listed.Windows)
	}
}

func TestCreateWindowFromPreset(t *testing.T) {
	s, ctx := startServer(t)

	_, out, err := s.handleCreateWindow(ctx, nil, CreateWindowInput{Preset: "tool", Width: 400})
	if err != nil {
		t.Fatalf("create_window: %v", err)
	}
	if out.Window.Title != "Tool" || out.Window.Width != 400 || out.Window.Height != 240 {
		t.Fatalf("preset not applied: %+v", out.Window)
	}

	if _, _, err := s.handleCreateWindow(ctx, nil, CreateWindowInput{Preset: "nope"}); err == nil {
		t.Fatalf("expected error for unknown preset")
	}
	x := 10
	if _, _, err := s.handleCreateWindow(ctx, nil, CreateWindowInput{X: &x}); err == nil {
		t.Fatalf("expected error when only x is given")
	}
}

func TestSetWindowStateValidation(t *testing.T) {
	s, ctx := startServer(t)
	_, created, err := s.handleCreateWindow(ctx, nil, CreateWindowInput{})
	if err != nil {
		t.Fatalf("create_window: %v", err)
	}

	tests := []struct {
		state   string
		wantErr bool
	}{
		{"maximized", false},
		{"normal", false},
		{"closed", true},
		{"sideways", true},
	}
	for _, tt := range tests {
		_, out, err := s.handleSetWindowState(ctx, nil, SetWindowStateInput{ID: created.Window.ID, State: tt.state})
		if (err != nil) != tt.wantErr {
			t.Fatalf("state %q: err = %v, wantErr %v", tt.state, err, tt.wantErr)
		}
		if !tt.wantErr && out.Requested != tt.state {
			t.Fatalf("state %q: requested = %q", tt.state, out.Requested)
		}
	}

	if _, _, err := s.handleSetWindowState(ctx, nil, SetWindowStateInput{ID: 999, State: "normal"}); err == nil {
		t.Fatalf("expected error for unknown window")
	}
}

func TestPollEventsReturnsWindowLifecycle(t *testing.T) {
	s, ctx := startServer(t)
	_, created, err := s.handleCreateWindow(ctx, nil, CreateWindowInput{})
	if err != nil {
		t.Fatalf("create_window: %v", err)
	}
	if _, _, err := s.handleCloseWindow(ctx, nil, CloseWindowInput{ID: created.Window.ID}); err != nil {
		t.Fatalf("close_window: %v", err)
	}

	var kinds []string
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && !contains(kinds, "closed") {
		_, out, err := s.handlePollEvents(ctx, nil, PollEventsInput{WaitMS: 100})
		if err != nil {
			t.Fatalf("poll_events: %v", err)
		}
		for _, ev := range out.Events {
			if ev.Type == "window" && ev.Window == created.Window.ID {
				kinds = append(kinds, ev.Kind)
			}
		}
	}
	if !contains(kinds, "shown") || !contains(kinds, "closed") {
		t.Fatalf("expected shown and closed events, got %v", kinds)
	}
	if _, _, err := s.handlePollEvents(ctx, nil, PollEventsInput{WaitMS: -1}); err == nil {
		t.Fatalf("expected error for negative wait")
	}
}

func TestDescribePlatform(t *testing.T) {
	s, ctx := startServer(t)
	if _, _, err := s.handleCreateWindow(ctx, nil, CreateWindowInput{}); err != nil {
		t.Fatalf("create_window: %v", err)
	}
	_, out, err := s.handleDescribe(ctx, nil, DescribeInput{})
	if err != nil {
		t.Fatalf("describe_platform: %v", err)
	}
	if out.Backend != "headless" || out.Windows != 1 {
		t.Fatalf("unexpected description %+v", out)
	}
	if !contains(out.Backends, "headless") {
		t.Fatalf("backends = %v", out.Backends)
	}
}

func TestListDevicesRescan(t *testing.T) {
	s, ctx := startServer(t)
	_, out, err := s.handleListDevices(ctx, nil, ListDevicesInput{Rescan: true})
	if err != nil {
		t.Fatalf("list_devices: %v", err)
	}
	if out.Devices == nil {
		t.Fatalf("devices must encode as an empty list")
	}
}

func TestCallsFailAfterLoopStops(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Backend = "headless"
	cfg.Reconcile.IntervalMS = 0
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := platlayer.Open(platlayer.Options{Config: cfg, Logger: logger})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	s := NewServer(p, logger)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.serve(ctx)

	if _, _, err := s.handleListWindows(context.Background(), nil, ListWindowsInput{}); !errors.Is(err, errStopped) {
		t.Fatalf("expected errStopped, got %v", err)
	}
}

func TestRecordDropsOldest(t *testing.T) {
	s := &Server{limit: 2, arrived: make(chan struct{}, 1)}
	for i := 1; i <= 3; i++ {
		s.record(event.WindowEvent{Window: event.WindowID(i), Kind: event.WindowShown})
	}
	events, dropped := s.take(10)
	if dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}
	if len(events) != 2 || events[0].Window != 2 || events[1].Window != 3 {
		t.Fatalf("unexpected events %+v", events)
	}
	if events, _ := s.take(10); len(events) != 0 {
		t.Fatalf("take must remove events, got %+v", events)
	}
}

func TestDescribeEventFields(t *testing.T) {
	tests := []struct {
		name string
		ev   platlayer.Event
		typ  string
		kind string
		key  string
	}{
		{
			name: "resize",
			ev:   event.WindowEvent{Window: 1, Kind: event.WindowResized, Geometry: event.Geometry{Size: event.Size{Width: 10, Height: 20}, Scale: 1}},
			typ:  "window",
			kind: "resized",
			key:  "width",
		},
		{
			name: "key",
			ev:   event.KeyEvent{Window: 1, Action: event.KeyPress, Scancode: 30, Key: "A", Modifiers: event.ModShift},
			typ:  "key",
			kind: "press",
			key:  "modifiers",
		},
		{
			name: "scroll",
			ev:   event.PointerEvent{Window: 1, Kind: event.PointerScroll, Source: event.SourceMouse, Scroll: event.Point{Y: 1}},
			typ:  "pointer",
			kind: "scroll",
			key:  "scroll_y",
		},
		{
			name: "axis",
			ev:   event.DeviceEvent{Device: 4, Class: event.ClassController, Kind: event.DeviceAxisMotion, Code: 1, Value: -0.5},
			typ:  "device",
			kind: "axis-motion",
			key:  "value",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := DescribeEvent(tt.ev)
			if info.Type != tt.typ || info.Kind != tt.kind {
				t.Fatalf("type/kind = %s/%s, want %s/%s", info.Type, info.Kind, tt.typ, tt.kind)
			}
			if _, ok := info.Fields[tt.key]; !ok {
				t.Fatalf("missing field %q in %v", tt.key, info.Fields)
			}
		})
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
