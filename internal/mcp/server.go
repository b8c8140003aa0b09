// Package mcp exposes a running platform to MCP clients over stdio so tools
// can list windows and devices, drive windows and read the event stream.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/platlayer"
)

const (
	ServerName    = "platlayer"
	ServerVersion = "0.1.0"

	// DefaultEventBuffer is how many undelivered events the server keeps.
	DefaultEventBuffer = 1024
)

var errStopped = errors.New("platform loop stopped")

// Server is the MCP server. The platform is only touched from the goroutine
// running Run; tool handlers hand their work to it.
type Server struct {
	mcpServer *mcpsdk.Server
	platform  *platlayer.Platform
	logger    *slog.Logger

	calls   chan func()
	stopped chan struct{}

	mu      sync.Mutex
	events  []EventInfo
	limit   int
	dropped uint64
	arrived chan struct{}
}

// NewServer wraps p. The caller keeps ownership of p and closes it after
// Run returns.
func NewServer(p *platlayer.Platform, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		platform: p,
		logger:   logger.With("component", "mcp"),
		calls:    make(chan func(), 16),
		stopped:  make(chan struct{}),
		limit:    DefaultEventBuffer,
		arrived:  make(chan struct{}, 1),
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP on stdio, blocking until the client disconnects or ctx is
// done. It must be called on the goroutine that opened the platform.
func (s *Server) Run(ctx context.Context) error {
	return s.RunTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunTransport serves MCP on t. See Run.
func (s *Server) RunTransport(ctx context.Context, t mcpsdk.Transport) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- s.mcpServer.Run(ctx, t)
		cancel()
		s.platform.Wake()
	}()
	s.serve(ctx)
	return <-errc
}

// serve owns the platform: it runs handler calls and moves events into the
// buffer until ctx is done.
func (s *Server) serve(ctx context.Context) {
	defer close(s.stopped)
	s.logger.Info("mcp platform loop started", "backend", s.platform.Backend())
	lost := false
	for ctx.Err() == nil {
		s.runCalls()
		if lost {
			// No more native events; only handler calls remain.
			select {
			case fn := <-s.calls:
				fn()
			case <-ctx.Done():
			}
			continue
		}
		ev, ok := s.platform.Wait(time.Second)
		if ok {
			s.record(ev)
			// Drain the rest of the queue without blocking.
			for {
				ev, ok := s.platform.Poll()
				if !ok {
					break
				}
				s.record(ev)
			}
			continue
		}
		if err := s.platform.Err(); err != nil {
			s.logger.Error("display connection lost, serving tool calls only", "error", err)
			lost = true
		}
	}
	s.logger.Info("mcp platform loop stopped")
}

func (s *Server) runCalls() {
	for {
		select {
		case fn := <-s.calls:
			fn()
		default:
			return
		}
	}
}

// do runs fn on the platform goroutine and waits for it.
func (s *Server) do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	select {
	case s.calls <- func() { done <- fn() }:
	case <-s.stopped:
		return errStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	s.platform.Wake()
	select {
	case err := <-done:
		return err
	case <-s.stopped:
		// The loop may have run the call just before stopping.
		select {
		case err := <-done:
			return err
		default:
			return errStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "describe_platform",
		Description: "Report the selected backend, the compiled-in backends and live window, device and context counts with event queue statistics.",
	}, s.handleDescribe)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List live windows with their id, title, geometry in physical pixels, scale and state.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_devices",
		Description: "List connected input devices with their class, name, bus, vendor and product ids. Pass rescan to enumerate attached devices again first.",
	}, s.handleListDevices)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_window",
		Description: "Create a window, optionally from a named config preset. Unset options take the preset or the defaults (800x600, decorated, visible).",
	}, s.handleCreateWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Close a window. Closing an already closed window succeeds without effect.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_window_state",
		Description: "Request a window state change. The change completes asynchronously and shows up as a state-changed event.",
	}, s.handleSetWindowState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "poll_events",
		Description: "Return buffered events in arrival order and remove them from the buffer. Optionally wait for the first event.",
	}, s.handlePollEvents)
}
