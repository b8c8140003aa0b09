// Package win32 is the Windows backend. Windows and their messages belong
// to the OS thread that created them, so the platform must be opened, used
// and polled from one goroutine locked with runtime.LockOSThread.
package win32

import (
	"strconv"

	"github.com/1broseidon/platlayer/internal/event"
)

// extendedScancodes maps E0-prefixed set-1 scancodes to evdev codes.
// Non-extended set-1 codes below 0x59 already equal their evdev codes.
var extendedScancodes = map[uint8]event.Scancode{
	0x1c: 96,  // keypad enter
	0x1d: 97,  // right ctrl
	0x35: 98,  // keypad slash
	0x37: 99,  // print screen
	0x38: 100, // right alt
	0x45: 69,  // num lock
	0x47: 102, // home
	0x48: 103, // up
	0x49: 104, // page up
	0x4b: 105, // left
	0x4d: 106, // right
	0x4f: 107, // end
	0x50: 108, // down
	0x51: 109, // page down
	0x52: 110, // insert
	0x53: 111, // delete
	0x5b: 125, // left windows
	0x5c: 126, // right windows
	0x5d: 127, // menu
}

var extendedReverse = func() map[event.Scancode]uint8 {
	m := make(map[event.Scancode]uint8, len(extendedScancodes))
	for sc, code := range extendedScancodes {
		m[code] = sc
	}
	return m
}()

// toEvdev converts a set-1 scancode to the evdev code space.
func toEvdev(sc uint8, extended bool) (event.Scancode, bool) {
	if extended {
		code, ok := extendedScancodes[sc]
		return code, ok
	}
	if sc == 0 || sc >= 0x59 {
		return 0, false
	}
	return event.Scancode(sc), true
}

// fromEvdev is the inverse of toEvdev.
func fromEvdev(code event.Scancode) (sc uint8, extended bool, ok bool) {
	if ext, found := extendedReverse[code]; found && code != 69 {
		return ext, true, true
	}
	if code == 0 || code >= 0x59 {
		return 0, false, false
	}
	return uint8(code), false, true
}

// scancodeFromLParam extracts the physical key from a WM_KEYDOWN style
// lParam: bits 16-23 hold the scancode and bit 24 the extended flag.
func scancodeFromLParam(lParam uintptr) (event.Scancode, bool) {
	sc := uint8(lParam >> 16)
	extended := lParam&(1<<24) != 0
	return toEvdev(sc, extended)
}

// Virtual-key names for keys whose name does not depend on the layout.
var virtualKeys = map[uint32]event.Key{
	0x08: event.KeyBackspace,
	0x09: event.KeyTab,
	0x0d: event.KeyEnter,
	0x13: event.KeyPause,
	0x14: event.KeyCapsLock,
	0x1b: event.KeyEscape,
	0x20: event.KeySpace,
	0x21: event.KeyPageUp,
	0x22: event.KeyPageDown,
	0x23: event.KeyEnd,
	0x24: event.KeyHome,
	0x25: event.KeyLeft,
	0x26: event.KeyUp,
	0x27: event.KeyRight,
	0x28: event.KeyDown,
	0x2c: event.KeyPrint,
	0x2d: event.KeyInsert,
	0x2e: event.KeyDelete,
	0x5b: event.KeyLeftSuper,
	0x5c: event.KeyRightSuper,
	0x5d: event.KeyMenu,
	0x90: event.KeyNumLock,
	0x91: event.KeyScrollLock,
	0xa0: event.KeyLeftShift,
	0xa1: event.KeyRightShift,
	0xa2: event.KeyLeftCtrl,
	0xa3: event.KeyRightCtrl,
	0xa4: event.KeyLeftAlt,
	0xa5: event.KeyRightAlt,
}

// virtualKeyName names a virtual-key code. Letters and digits use their
// ASCII code as the virtual key, so they follow the active layout.
func virtualKeyName(vk uint32) (event.Key, bool) {
	if '0' <= vk && vk <= '9' || 'A' <= vk && vk <= 'Z' {
		return event.Key(rune(vk)), true
	}
	if vk >= 0x70 && vk <= 0x7b {
		return event.Key("F" + strconv.Itoa(int(vk-0x70)+1)), true
	}
	k, ok := virtualKeys[vk]
	return k, ok
}
