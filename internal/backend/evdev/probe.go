//go:build linux

package evdev

import (
	"fmt"
	"sort"

	goevdev "github.com/holoplot/go-evdev"

	"github.com/1broseidon/platlayer/internal/backend"
)

// Probe opens the node and reads its identity and capability bits.
func (s *Source) Probe(desc backend.DeviceDescriptor) (backend.DeviceProbe, error) {
	dev, err := goevdev.Open(desc.NativeID)
	if err != nil {
		return backend.DeviceProbe{}, fmt.Errorf("failed to open %s: %w", desc.NativeID, err)
	}
	defer dev.Close()
	return probeDevice(dev, desc)
}

func probeDevice(dev *goevdev.InputDevice, desc backend.DeviceDescriptor) (backend.DeviceProbe, error) {
	name, err := dev.Name()
	if err != nil {
		return backend.DeviceProbe{}, fmt.Errorf("failed to read device name: %w", err)
	}
	id, err := dev.InputID()
	if err != nil {
		return backend.DeviceProbe{}, fmt.Errorf("failed to read device id: %w", err)
	}

	probe := backend.DeviceProbe{
		Name:    name,
		Bus:     id.BusType,
		Vendor:  id.Vendor,
		Product: id.Product,
		Hints:   desc.Properties,
		Keys:    codes(dev.CapableEvents(goevdev.EV_KEY)),
		RelAxes: codes(dev.CapableEvents(goevdev.EV_REL)),
	}

	if len(dev.CapableEvents(goevdev.EV_ABS)) > 0 {
		infos, err := dev.AbsInfos()
		if err != nil {
			return backend.DeviceProbe{}, fmt.Errorf("failed to read axis ranges: %w", err)
		}
		probe.AbsAxes = axes(infos)
	}
	return probe, nil
}

func codes(in []goevdev.EvCode) []uint16 {
	out := make([]uint16, 0, len(in))
	for _, c := range in {
		out = append(out, uint16(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func axes(infos map[goevdev.EvCode]goevdev.AbsInfo) []backend.AxisInfo {
	out := make([]backend.AxisInfo, 0, len(infos))
	for code, info := range infos {
		out = append(out, backend.AxisInfo{
			Code:       uint16(code),
			Min:        info.Minimum,
			Max:        info.Maximum,
			Resolution: info.Resolution,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
