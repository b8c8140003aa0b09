//go:build linux

// Package evdev is the Linux device source. Hotplug comes from the udev
// netlink monitor, capabilities and controller input from the evdev nodes.
package evdev

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/pilebones/go-udev/crawler"
	"github.com/pilebones/go-udev/netlink"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

// SourceName labels notifications from this source.
const SourceName = "evdev"

var eventNode = regexp.MustCompile(`^input/event[0-9]+$`)

// Options configures a Source.
type Options struct {
	Clock  *event.Clock
	Logger *slog.Logger
	// DevDir is where device nodes live. Defaults to /dev.
	DevDir string
}

// Source enumerates evdev nodes and watches for hotplug.
type Source struct {
	clock  *event.Clock
	logger *slog.Logger
	devDir string

	mu      sync.Mutex
	readers map[string]*reader
}

var _ backend.DeviceSource = (*Source)(nil)

// New returns a source. Nothing is opened until Enumerate or Watch.
func New(opts Options) *Source {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	devDir := opts.DevDir
	if devDir == "" {
		devDir = "/dev"
	}
	return &Source{
		clock:   opts.Clock,
		logger:  logger.With("source", SourceName),
		devDir:  devDir,
		readers: make(map[string]*reader),
	}
}

func inputMatcher() netlink.Matcher {
	rules := &netlink.RuleDefinitions{
		Rules: []netlink.RuleDefinition{{
			Env: map[string]string{
				"SUBSYSTEM": "input",
				"DEVNAME":   eventNode.String(),
			},
		}},
	}
	if err := rules.Compile(); err != nil {
		panic(fmt.Sprintf("evdev: invalid matcher: %v", err))
	}
	return rules
}

// descriptorFromEnv builds a descriptor from uevent properties. Only
// event nodes qualify; the joystick and mouse compatibility nodes duplicate
// them.
func descriptorFromEnv(devDir string, env map[string]string) (backend.DeviceDescriptor, bool) {
	if env["SUBSYSTEM"] != "input" || !eventNode.MatchString(env["DEVNAME"]) {
		return backend.DeviceDescriptor{}, false
	}
	props := make(map[string]string, len(env))
	for k, v := range env {
		props[k] = v
	}
	return backend.DeviceDescriptor{
		NativeID:   filepath.Join(devDir, env["DEVNAME"]),
		Name:       env["NAME"],
		Properties: props,
	}, true
}

// Enumerate crawls sysfs for the event nodes present now.
func (s *Source) Enumerate() ([]backend.DeviceDescriptor, error) {
	queue := make(chan crawler.Device)
	errs := make(chan error)
	quit := crawler.ExistingDevices(queue, errs, inputMatcher())
	defer close(quit)

	var out []backend.DeviceDescriptor
	for {
		select {
		case dev, more := <-queue:
			if !more {
				sort.Slice(out, func(i, j int) bool { return out[i].NativeID < out[j].NativeID })
				return out, nil
			}
			if desc, ok := descriptorFromEnv(s.devDir, dev.Env); ok {
				out = append(out, desc)
			}
		case err := <-errs:
			return nil, fmt.Errorf("failed to crawl input devices: %w", err)
		}
	}
}

// Watch reports hotplug from the udev monitor and controller input from
// every controller present, until ctx is done.
func (s *Source) Watch(ctx context.Context, out chan<- backend.Notification, wake func()) error {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return fmt.Errorf("failed to connect to udev netlink: %w", err)
	}
	defer conn.Close()

	in := make(chan backend.Notification, 64)
	seq := backend.NewSequencer(SourceName, s.clock)
	go backend.Forward(ctx, in, out, seq, wake)

	// Devices plugged between an earlier scan and Connect are only visible
	// to this crawl.
	existing, err := s.Enumerate()
	if err != nil {
		s.logger.Warn("initial device crawl failed", "error", err)
	}
	if !s.announce(ctx, existing, in) {
		return nil
	}
	for _, desc := range existing {
		s.attach(ctx, desc, in)
	}

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	quit := conn.Monitor(queue, errs, inputMatcher())
	defer close(quit)
	defer s.detachAll()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			s.logger.Warn("udev monitor error", "error", err)
		case uev := <-queue:
			desc, ok := descriptorFromEnv(s.devDir, uev.Env)
			if !ok {
				continue
			}
			switch uev.Action {
			case netlink.ADD:
				s.logger.Debug("device added", "node", desc.NativeID)
				if !s.send(ctx, in, backend.Notification{Kind: backend.NotifyDeviceAdded, Device: desc, Arrival: s.clock.Now()}) {
					return nil
				}
				s.attach(ctx, desc, in)
			case netlink.REMOVE:
				s.logger.Debug("device removed", "node", desc.NativeID)
				s.detach(desc.NativeID)
				if !s.send(ctx, in, backend.Notification{Kind: backend.NotifyDeviceRemoved, Device: desc, Arrival: s.clock.Now()}) {
					return nil
				}
			}
		}
	}
}

// announce reports an arrival for each descriptor. Arrivals for native ids
// the registry already knows are ignored there.
func (s *Source) announce(ctx context.Context, descs []backend.DeviceDescriptor, in chan<- backend.Notification) bool {
	for _, desc := range descs {
		if !s.send(ctx, in, backend.Notification{Kind: backend.NotifyDeviceAdded, Device: desc, Arrival: s.clock.Now()}) {
			return false
		}
	}
	return true
}

func (s *Source) send(ctx context.Context, in chan<- backend.Notification, n backend.Notification) bool {
	select {
	case in <- n:
		return true
	case <-ctx.Done():
		return false
	}
}
