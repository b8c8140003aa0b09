package win32

import (
	"sort"

	"github.com/1broseidon/platlayer/internal/backend"
)

// Raw input device types and the HID generic desktop usages that identify
// controllers.
const (
	_RIM_TYPEMOUSE    = 0
	_RIM_TYPEKEYBOARD = 1
	_RIM_TYPEHID      = 2

	_HID_USAGE_PAGE_GENERIC     = 0x01
	_HID_USAGE_GENERIC_JOYSTICK = 0x04
	_HID_USAGE_GENERIC_GAMEPAD  = 0x05
	_HID_USAGE_PAGE_DIGITIZER   = 0x0d
	_HID_USAGE_DIGITIZER_TOUCH  = 0x04
)

// rawHints maps a raw input device type and HID usage to the same ID_INPUT_*
// hints udev would report, so classification is shared across platforms.
func rawHints(devType uint32, usagePage, usage uint16) map[string]string {
	key := ""
	switch devType {
	case _RIM_TYPEMOUSE:
		key = "ID_INPUT_MOUSE"
	case _RIM_TYPEKEYBOARD:
		key = "ID_INPUT_KEYBOARD"
	case _RIM_TYPEHID:
		switch {
		case usagePage == _HID_USAGE_PAGE_GENERIC && (usage == _HID_USAGE_GENERIC_JOYSTICK || usage == _HID_USAGE_GENERIC_GAMEPAD):
			key = "ID_INPUT_JOYSTICK"
		case usagePage == _HID_USAGE_PAGE_DIGITIZER && usage == _HID_USAGE_DIGITIZER_TOUCH:
			key = "ID_INPUT_TOUCHSCREEN"
		}
	}
	if key == "" {
		return map[string]string{}
	}
	return map[string]string{"ID_INPUT": "1", key: "1"}
}

// diffDevices compares two device snapshots keyed by native id. Both
// results are sorted by native id.
func diffDevices(prev, next map[string]backend.DeviceDescriptor) (added, removed []backend.DeviceDescriptor) {
	for id, desc := range next {
		if _, ok := prev[id]; !ok {
			added = append(added, desc)
		}
	}
	for id, desc := range prev {
		if _, ok := next[id]; !ok {
			removed = append(removed, desc)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i].NativeID < added[j].NativeID })
	sort.Slice(removed, func(i, j int) bool { return removed[i].NativeID < removed[j].NativeID })
	return added, removed
}
