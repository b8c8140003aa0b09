package win32

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unsafe"

	syscall "golang.org/x/sys/windows"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

// DeviceSourceName labels notifications from the raw input device source.
const DeviceSourceName = "rawinput"

const (
	_RIDI_DEVICENAME = 0x20000007
	_RIDI_DEVICEINFO = 0x2000000b
)

var (
	_GetRawInputDeviceList = user32.NewProc("GetRawInputDeviceList")
	_GetRawInputDeviceInfo = user32.NewProc("GetRawInputDeviceInfoW")
)

type rawInputDeviceList struct {
	hDevice syscall.Handle
	dwType  uint32
}

// ridDeviceInfo is RID_DEVICE_INFO with its union kept as raw words.
type ridDeviceInfo struct {
	cbSize uint32
	dwType uint32
	data   [6]uint32
}

type rawDevice struct {
	handle syscall.Handle
	desc   backend.DeviceDescriptor
	info   ridDeviceInfo
}

// RawInputSource lists raw input devices and reports hotplug by diffing the
// device list on a fixed interval.
type RawInputSource struct {
	clock    *event.Clock
	logger   *slog.Logger
	interval time.Duration

	mu    sync.Mutex
	known map[string]rawDevice
}

var _ backend.DeviceSource = (*RawInputSource)(nil)

// NewRawInputSource returns a source polling once per second.
func NewRawInputSource(clock *event.Clock, logger *slog.Logger) *RawInputSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &RawInputSource{
		clock:    clock,
		logger:   logger.With("source", DeviceSourceName),
		interval: time.Second,
		known:    make(map[string]rawDevice),
	}
}

func listRawDevices() ([]rawInputDeviceList, error) {
	size := uint32(unsafe.Sizeof(rawInputDeviceList{}))
	var n uint32
	if r, _, err := _GetRawInputDeviceList.Call(0, uintptr(unsafe.Pointer(&n)), uintptr(size)); int32(r) == -1 {
		return nil, fmt.Errorf("GetRawInputDeviceList failed: %v", err)
	}
	if n == 0 {
		return nil, nil
	}
	list := make([]rawInputDeviceList, n)
	r, _, err := _GetRawInputDeviceList.Call(uintptr(unsafe.Pointer(&list[0])), uintptr(unsafe.Pointer(&n)), uintptr(size))
	if int32(r) == -1 {
		return nil, fmt.Errorf("GetRawInputDeviceList failed: %v", err)
	}
	return list[:r], nil
}

func rawDeviceName(h syscall.Handle) (string, error) {
	var chars uint32
	_GetRawInputDeviceInfo.Call(uintptr(h), _RIDI_DEVICENAME, 0, uintptr(unsafe.Pointer(&chars)))
	if chars == 0 {
		return "", fmt.Errorf("device %#x has no name", h)
	}
	buf := make([]uint16, chars)
	r, _, err := _GetRawInputDeviceInfo.Call(uintptr(h), _RIDI_DEVICENAME, uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&chars)))
	if int32(r) <= 0 {
		return "", fmt.Errorf("GetRawInputDeviceInfo(name) failed: %v", err)
	}
	return syscall.UTF16ToString(buf), nil
}

func rawDeviceInfo(h syscall.Handle) (ridDeviceInfo, error) {
	info := ridDeviceInfo{cbSize: uint32(unsafe.Sizeof(ridDeviceInfo{}))}
	size := info.cbSize
	r, _, err := _GetRawInputDeviceInfo.Call(uintptr(h), _RIDI_DEVICEINFO, uintptr(unsafe.Pointer(&info)), uintptr(unsafe.Pointer(&size)))
	if int32(r) <= 0 {
		return ridDeviceInfo{}, fmt.Errorf("GetRawInputDeviceInfo(info) failed: %v", err)
	}
	return info, nil
}

func (info ridDeviceInfo) hints() map[string]string {
	var page, usage uint16
	if info.dwType == _RIM_TYPEHID {
		page, usage = uint16(info.data[3]), uint16(info.data[3]>>16)
	}
	return rawHints(info.dwType, page, usage)
}

// snapshot lists the attached devices keyed by interface path and
// refreshes the known set.
func (s *RawInputSource) snapshot() (map[string]backend.DeviceDescriptor, error) {
	list, err := listRawDevices()
	if err != nil {
		return nil, err
	}
	known := make(map[string]rawDevice, len(list))
	descs := make(map[string]backend.DeviceDescriptor, len(list))
	for _, entry := range list {
		name, err := rawDeviceName(entry.hDevice)
		if err != nil {
			s.logger.Debug("skipping raw input device", "error", err)
			continue
		}
		info, err := rawDeviceInfo(entry.hDevice)
		if err != nil {
			s.logger.Debug("skipping raw input device", "path", name, "error", err)
			continue
		}
		desc := backend.DeviceDescriptor{NativeID: name, Name: name, Properties: info.hints()}
		known[name] = rawDevice{handle: entry.hDevice, desc: desc, info: info}
		descs[name] = desc
	}
	s.mu.Lock()
	s.known = known
	s.mu.Unlock()
	return descs, nil
}

func (s *RawInputSource) Enumerate() ([]backend.DeviceDescriptor, error) {
	descs, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	added, _ := diffDevices(nil, descs)
	return added, nil
}

func (s *RawInputSource) Probe(desc backend.DeviceDescriptor) (backend.DeviceProbe, error) {
	s.mu.Lock()
	dev, ok := s.known[desc.NativeID]
	s.mu.Unlock()
	if !ok {
		return backend.DeviceProbe{}, fmt.Errorf("device %s is not connected", desc.NativeID)
	}
	// Refresh in case the handle went stale between snapshots.
	info, err := rawDeviceInfo(dev.handle)
	if err != nil {
		return backend.DeviceProbe{}, err
	}
	probe := backend.DeviceProbe{Name: desc.NativeID, Hints: info.hints()}
	switch info.dwType {
	case _RIM_TYPEMOUSE:
		probe.Name = "Mouse"
	case _RIM_TYPEKEYBOARD:
		probe.Name = "Keyboard"
	case _RIM_TYPEHID:
		probe.Vendor, probe.Product = uint16(info.data[0]), uint16(info.data[1])
		probe.Name = fmt.Sprintf("HID %04x:%04x", probe.Vendor, probe.Product)
	}
	return probe, nil
}

// Watch diffs the device list every interval. Devices present when Watch
// starts are not reported; Enumerate covers them.
func (s *RawInputSource) Watch(ctx context.Context, out chan<- backend.Notification, wake func()) error {
	prev, err := s.snapshot()
	if err != nil {
		return err
	}
	in := make(chan backend.Notification, 64)
	go backend.Forward(ctx, in, out, backend.NewSequencer(DeviceSourceName, s.clock), wake)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			next, err := s.snapshot()
			if err != nil {
				s.logger.Warn("device list refresh failed", "error", err)
				continue
			}
			added, removed := diffDevices(prev, next)
			prev = next
			for _, desc := range removed {
				s.logger.Debug("device removed", "path", desc.NativeID)
				if !s.send(ctx, in, backend.Notification{Kind: backend.NotifyDeviceRemoved, Device: desc, Arrival: s.clock.Now()}) {
					return nil
				}
			}
			for _, desc := range added {
				s.logger.Debug("device added", "path", desc.NativeID)
				if !s.send(ctx, in, backend.Notification{Kind: backend.NotifyDeviceAdded, Device: desc, Arrival: s.clock.Now()}) {
					return nil
				}
			}
		}
	}
}

func (s *RawInputSource) send(ctx context.Context, in chan<- backend.Notification, n backend.Notification) bool {
	select {
	case in <- n:
		return true
	case <-ctx.Done():
		return false
	}
}
