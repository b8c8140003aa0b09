// Package device tracks input devices: enumeration, classification,
// logical ids and hotplug, with disconnected devices kept until every queued
// event that names them has been drained.
package device

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
	"github.com/1broseidon/platlayer/internal/perr"
)

// ErrUnclassified is the cause attached to ErrDeviceQueryFailed for devices
// that probe fine but match no device class.
var ErrUnclassified = errors.New("unclassified")

// State is a device connection state.
type State uint8

const (
	Connected State = iota + 1
	Disconnected
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Capabilities lists what a device reports.
type Capabilities struct {
	Keys    []uint16
	RelAxes []uint16
	AbsAxes []backend.AxisInfo
}

// Device is a snapshot of a registry entry.
type Device struct {
	ID       event.DeviceID
	Class    event.DeviceClass
	Name     string
	Bus      uint16
	Vendor   uint16
	Product  uint16
	NativeID string
	State    State
	Caps     Capabilities
}

// ControllerState is a device's button and axis state as of the last event
// queued for it. Buttons and axes the device reports start released and
// centered.
type ControllerState struct {
	Device  event.DeviceID
	Buttons map[uint16]bool
	Axes    map[uint16]float64
}

// Pressed reports whether button code is held.
func (s ControllerState) Pressed(code uint16) bool { return s.Buttons[code] }

// Axis returns the normalized value of axis code.
func (s ControllerState) Axis(code uint16) float64 { return s.Axes[code] }

type entry struct {
	dev     Device
	refs    int
	buttons map[uint16]bool
	axes    map[uint16]float64
}

// Config configures a Registry.
type Config struct {
	Source backend.DeviceSource
	Queue  *event.Queue
	Clock  *event.Clock
	Logger *slog.Logger
	// ProbeTimeout bounds a single Probe call. Zero waits indefinitely.
	ProbeTimeout time.Duration
}

// Registry owns device identity. OnArrival and OnRemoval are called from the
// pump goroutine; lookups are safe from any goroutine.
type Registry struct {
	source  backend.DeviceSource
	queue   *event.Queue
	clock   *event.Clock
	logger  *slog.Logger
	timeout time.Duration

	mu       sync.Mutex
	last     event.DeviceID
	devices  map[event.DeviceID]*entry
	byNative map[string]event.DeviceID
}

// NewRegistry returns an empty registry.
func NewRegistry(cfg Config) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		source:   cfg.Source,
		queue:    cfg.Queue,
		clock:    cfg.Clock,
		logger:   logger.With("component", "devices"),
		timeout:  cfg.ProbeTimeout,
		devices:  make(map[event.DeviceID]*entry),
		byNative: make(map[string]event.DeviceID),
	}
}

// Hooks returns queue hooks that keep reference counts in step with the
// events naming each device, and controller state in step with input.
func (r *Registry) Hooks() event.Hooks {
	return event.Hooks{
		Enqueued: func(ev event.Event) {
			r.Retain(event.DeviceOf(ev))
			r.observe(ev)
		},
		Dropped:   func(ev event.Event) { r.Release(event.DeviceOf(ev)) },
		Delivered: func(ev event.Event) { r.Release(event.DeviceOf(ev)) },
	}
}

// Scan runs every currently attached device through OnArrival.
func (r *Registry) Scan() error {
	if r.source == nil {
		return nil
	}
	descs, err := r.source.Enumerate()
	if err != nil {
		return perr.New("device.Scan", perr.ErrDeviceQueryFailed, "", err)
	}
	for _, desc := range descs {
		// Failures are logged by OnArrival and skipped.
		_, _ = r.OnArrival(desc)
	}
	return nil
}

// OnArrival probes and registers a device and enqueues its Connected event.
// A repeated arrival for a still-connected native id returns the existing id.
func (r *Registry) OnArrival(desc backend.DeviceDescriptor) (event.DeviceID, error) {
	r.mu.Lock()
	if id, ok := r.byNative[desc.NativeID]; ok {
		r.mu.Unlock()
		r.logger.Debug("duplicate device arrival", "native", desc.NativeID, "device", uint64(id))
		return id, nil
	}
	r.mu.Unlock()

	if r.source == nil {
		return 0, perr.New("device.OnArrival", perr.ErrDeviceQueryFailed, desc.NativeID, fmt.Errorf("no device source"))
	}
	probe, err := r.probe(desc)
	if err != nil {
		r.logger.Warn("device probe failed", "native", desc.NativeID, "error", err)
		return 0, perr.New("device.OnArrival", perr.ErrDeviceQueryFailed, desc.NativeID, err)
	}
	if len(probe.Hints) == 0 && len(desc.Properties) > 0 {
		probe.Hints = desc.Properties
	}
	class, ok := Classify(probe)
	if !ok {
		r.logger.Debug("ignoring unclassified device", "native", desc.NativeID, "name", probe.Name)
		return 0, perr.New("device.OnArrival", perr.ErrDeviceQueryFailed, desc.NativeID, ErrUnclassified)
	}

	name := probe.Name
	if name == "" {
		name = desc.Name
	}

	buttons := make(map[uint16]bool, len(probe.Keys))
	for _, code := range probe.Keys {
		buttons[code] = false
	}
	axes := make(map[uint16]float64, len(probe.AbsAxes))
	for _, axis := range probe.AbsAxes {
		axes[axis.Code] = 0
	}

	r.mu.Lock()
	r.last++
	id := r.last
	r.devices[id] = &entry{buttons: buttons, axes: axes, dev: Device{
		ID:       id,
		Class:    class,
		Name:     name,
		Bus:      probe.Bus,
		Vendor:   probe.Vendor,
		Product:  probe.Product,
		NativeID: desc.NativeID,
		State:    Connected,
		Caps: Capabilities{
			Keys:    probe.Keys,
			RelAxes: probe.RelAxes,
			AbsAxes: probe.AbsAxes,
		},
	}}
	r.byNative[desc.NativeID] = id
	r.mu.Unlock()

	r.logger.Info("device connected", "device", uint64(id), "class", class.String(), "name", name)
	r.push(event.DeviceEvent{Device: id, Class: class, Kind: event.DeviceConnected, Time: r.clock.Now()})
	return id, nil
}

// errProbeTimeout is reported when a device does not answer its probe in
// time.
var errProbeTimeout = errors.New("probe timed out")

func (r *Registry) probe(desc backend.DeviceDescriptor) (backend.DeviceProbe, error) {
	if r.timeout <= 0 {
		return r.source.Probe(desc)
	}
	type result struct {
		probe backend.DeviceProbe
		err   error
	}
	done := make(chan result, 1)
	go func() {
		p, err := r.source.Probe(desc)
		done <- result{p, err}
	}()
	select {
	case res := <-done:
		return res.probe, res.err
	case <-time.After(r.timeout):
		return backend.DeviceProbe{}, errProbeTimeout
	}
}

// OnRemoval marks the device with the given native id Disconnected and
// enqueues its Disconnected event. Unknown native ids are ignored.
func (r *Registry) OnRemoval(desc backend.DeviceDescriptor) {
	r.mu.Lock()
	id, ok := r.byNative[desc.NativeID]
	if !ok {
		r.mu.Unlock()
		r.logger.Debug("removal of unknown device", "native", desc.NativeID)
		return
	}
	delete(r.byNative, desc.NativeID)
	e := r.devices[id]
	e.dev.State = Disconnected
	class := e.dev.Class
	r.mu.Unlock()

	r.logger.Info("device disconnected", "device", uint64(id), "native", desc.NativeID)
	r.push(event.DeviceEvent{Device: id, Class: class, Kind: event.DeviceDisconnected, Time: r.clock.Now()})
	r.collect(id)
}

// Enumerate returns the connected devices ordered by id.
func (r *Registry) Enumerate() []Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Device, 0, len(r.byNative))
	for _, e := range r.devices {
		if e.dev.State == Connected {
			out = append(out, e.dev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Device returns a registered device, including disconnected devices whose
// events have not all been drained.
func (r *Registry) Device(id event.DeviceID) (Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.devices[id]
	if !ok {
		return Device{}, perr.Stale("device.Device", id.String())
	}
	return e.dev, nil
}

// ControllerState returns a copy of the button and axis state of a
// registered device. Collected devices are stale.
func (r *Registry) ControllerState(id event.DeviceID) (ControllerState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.devices[id]
	if !ok {
		return ControllerState{}, perr.Stale("device.ControllerState", id.String())
	}
	return ControllerState{Device: id, Buttons: maps.Clone(e.buttons), Axes: maps.Clone(e.axes)}, nil
}

// observe folds a queued input event into its device's controller state.
func (r *Registry) observe(ev event.Event) {
	de, ok := ev.(event.DeviceEvent)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.devices[de.Device]
	if !ok {
		return
	}
	switch de.Kind {
	case event.DeviceButtonDown:
		e.buttons[de.Code] = true
	case event.DeviceButtonUp:
		e.buttons[de.Code] = false
	case event.DeviceAxisMotion:
		e.axes[de.Code] = de.Value
	}
}

// ByNative resolves a connected device from its native id.
func (r *Registry) ByNative(nativeID string) (event.DeviceID, event.DeviceClass, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byNative[nativeID]
	if !ok {
		return 0, 0, false
	}
	return id, r.devices[id].dev.Class, true
}

// Retain records a queued event naming id.
func (r *Registry) Retain(id event.DeviceID) {
	if id == 0 {
		return
	}
	r.mu.Lock()
	if e, ok := r.devices[id]; ok {
		e.refs++
	}
	r.mu.Unlock()
}

// Release records that a queued event naming id left the queue. A
// disconnected device with no remaining references is deleted.
func (r *Registry) Release(id event.DeviceID) {
	if id == 0 {
		return
	}
	r.mu.Lock()
	if e, ok := r.devices[id]; ok && e.refs > 0 {
		e.refs--
	}
	r.mu.Unlock()
	r.collect(id)
}

// Len returns the number of registry entries, connected or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}

func (r *Registry) collect(id event.DeviceID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.devices[id]
	if !ok || e.dev.State != Disconnected || e.refs > 0 {
		return
	}
	delete(r.devices, id)
	r.logger.Debug("device collected", "device", uint64(id))
}

func (r *Registry) push(ev event.Event) {
	if r.queue != nil {
		r.queue.Push(ev)
	}
}
