//go:build linux

package x11

import (
	"strconv"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/keybind"

	"github.com/1broseidon/platlayer/internal/event"
)

// X11 keycodes are evdev scancodes offset by 8.
const keycodeOffset = 8

const (
	keysymBackspace = 0xff08
	keysymTab       = 0xff09
	keysymReturn    = 0xff0d
	keysymPause     = 0xff13
	keysymScroll    = 0xff14
	keysymEscape    = 0xff1b
	keysymHome      = 0xff50
	keysymLeft      = 0xff51
	keysymUp        = 0xff52
	keysymRight     = 0xff53
	keysymDown      = 0xff54
	keysymPrior     = 0xff55
	keysymNext      = 0xff56
	keysymEnd       = 0xff57
	keysymPrint     = 0xff61
	keysymInsert    = 0xff63
	keysymMenu      = 0xff67
	keysymNumLock   = 0xff7f
	keysymKPEnter   = 0xff8d
	keysymF1        = 0xffbe
	keysymF12       = 0xffc9
	keysymShiftL    = 0xffe1
	keysymShiftR    = 0xffe2
	keysymControlL  = 0xffe3
	keysymControlR  = 0xffe4
	keysymCapsLock  = 0xffe5
	keysymAltL      = 0xffe9
	keysymAltR      = 0xffea
	keysymSuperL    = 0xffeb
	keysymSuperR    = 0xffec
	keysymDelete    = 0xffff
	keysymISOLevel3 = 0xfe03
)

var namedKeysyms = map[xproto.Keysym]event.Key{
	keysymBackspace: event.KeyBackspace,
	keysymTab:       event.KeyTab,
	keysymReturn:    event.KeyEnter,
	keysymPause:     event.KeyPause,
	keysymScroll:    event.KeyScrollLock,
	keysymEscape:    event.KeyEscape,
	keysymHome:      event.KeyHome,
	keysymLeft:      event.KeyLeft,
	keysymUp:        event.KeyUp,
	keysymRight:     event.KeyRight,
	keysymDown:      event.KeyDown,
	keysymPrior:     event.KeyPageUp,
	keysymNext:      event.KeyPageDown,
	keysymEnd:       event.KeyEnd,
	keysymPrint:     event.KeyPrint,
	keysymInsert:    event.KeyInsert,
	keysymMenu:      event.KeyMenu,
	keysymNumLock:   event.KeyNumLock,
	keysymKPEnter:   "KeypadEnter",
	keysymShiftL:    event.KeyLeftShift,
	keysymShiftR:    event.KeyRightShift,
	keysymControlL:  event.KeyLeftCtrl,
	keysymControlR:  event.KeyRightCtrl,
	keysymCapsLock:  event.KeyCapsLock,
	keysymAltL:      event.KeyLeftAlt,
	keysymAltR:      event.KeyRightAlt,
	keysymISOLevel3: event.KeyRightAlt,
	keysymSuperL:    event.KeyLeftSuper,
	keysymSuperR:    event.KeyRightSuper,
	keysymDelete:    event.KeyDelete,
	0x20:            event.KeySpace,
}

// keysymToKey names a keysym. Latin-1 letters fold to upper case so a key
// keeps its name regardless of shift state.
func keysymToKey(ks xproto.Keysym) (event.Key, bool) {
	if k, ok := namedKeysyms[ks]; ok {
		return k, true
	}
	switch {
	case ks >= 'a' && ks <= 'z':
		return event.Key(rune(ks - 'a' + 'A')), true
	case ks > 0x20 && ks < 0x7f:
		return event.Key(rune(ks)), true
	case ks >= keysymF1 && ks <= keysymF12:
		return event.Key("F" + strconv.Itoa(int(ks-keysymF1)+1)), true
	}
	return event.KeyUnknown, false
}

func keycodeToScancode(kc xproto.Keycode) event.Scancode {
	if kc < keycodeOffset {
		return 0
	}
	return event.Scancode(kc - keycodeOffset)
}

// keymap resolves keys through the server's current keyboard mapping.
type keymap struct {
	conn *Connection
}

func (m keymap) Key(sc event.Scancode) (event.Key, bool) {
	kc := int(sc) + keycodeOffset
	if kc > 255 {
		return event.KeyUnknown, false
	}
	return keysymToKey(keybind.KeysymGet(m.conn.XUtil, xproto.Keycode(kc), 0))
}

func (m keymap) Scancode(k event.Key) (event.Scancode, bool) {
	setup := xproto.Setup(m.conn.XUtil.Conn())
	for kc := int(setup.MinKeycode); kc <= int(setup.MaxKeycode); kc++ {
		got, ok := keysymToKey(keybind.KeysymGet(m.conn.XUtil, xproto.Keycode(kc), 0))
		if ok && got == k {
			return keycodeToScancode(xproto.Keycode(kc)), true
		}
	}
	return 0, false
}
