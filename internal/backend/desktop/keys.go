//go:build glfw

package desktop

import (
	"strconv"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/1broseidon/platlayer/internal/event"
)

var namedKeys = map[glfw.Key]event.Key{
	glfw.KeySpace:        event.KeySpace,
	glfw.KeyEscape:       event.KeyEscape,
	glfw.KeyEnter:        event.KeyEnter,
	glfw.KeyTab:          event.KeyTab,
	glfw.KeyBackspace:    event.KeyBackspace,
	glfw.KeyInsert:       event.KeyInsert,
	glfw.KeyDelete:       event.KeyDelete,
	glfw.KeyRight:        event.KeyRight,
	glfw.KeyLeft:         event.KeyLeft,
	glfw.KeyDown:         event.KeyDown,
	glfw.KeyUp:           event.KeyUp,
	glfw.KeyPageUp:       event.KeyPageUp,
	glfw.KeyPageDown:     event.KeyPageDown,
	glfw.KeyHome:         event.KeyHome,
	glfw.KeyEnd:          event.KeyEnd,
	glfw.KeyCapsLock:     event.KeyCapsLock,
	glfw.KeyScrollLock:   event.KeyScrollLock,
	glfw.KeyNumLock:      event.KeyNumLock,
	glfw.KeyPrintScreen:  event.KeyPrint,
	glfw.KeyPause:        event.KeyPause,
	glfw.KeyLeftShift:    event.KeyLeftShift,
	glfw.KeyLeftControl:  event.KeyLeftCtrl,
	glfw.KeyLeftAlt:      event.KeyLeftAlt,
	glfw.KeyLeftSuper:    event.KeyLeftSuper,
	glfw.KeyRightShift:   event.KeyRightShift,
	glfw.KeyRightControl: event.KeyRightCtrl,
	glfw.KeyRightAlt:     event.KeyRightAlt,
	glfw.KeyRightSuper:   event.KeyRightSuper,
	glfw.KeyMenu:         event.KeyMenu,
	glfw.KeyKPDecimal:    "Keypad.",
	glfw.KeyKPDivide:     "Keypad/",
	glfw.KeyKPMultiply:   "Keypad*",
	glfw.KeyKPSubtract:   "Keypad-",
	glfw.KeyKPAdd:        "Keypad+",
	glfw.KeyKPEnter:      "KeypadEnter",
}

// keyName maps a GLFW key token to a Key. GLFW tokens for printable keys
// are their US-layout ASCII codes.
func keyName(k glfw.Key) event.Key {
	if name, ok := namedKeys[k]; ok {
		return name
	}
	switch {
	case k > glfw.KeySpace && k < 127:
		return event.Key(string(rune(k)))
	case k >= glfw.KeyF1 && k <= glfw.KeyF12:
		return event.Key("F" + strconv.Itoa(int(k-glfw.KeyF1)+1))
	case k >= glfw.KeyKP0 && k <= glfw.KeyKP9:
		return event.Key("Keypad" + strconv.Itoa(int(k-glfw.KeyKP0)))
	}
	return event.KeyUnknown
}

func modifiers(mods glfw.ModifierKey) event.Modifiers {
	var m event.Modifiers
	if mods&glfw.ModShift != 0 {
		m |= event.ModShift
	}
	if mods&glfw.ModControl != 0 {
		m |= event.ModCtrl
	}
	if mods&glfw.ModAlt != 0 {
		m |= event.ModAlt
	}
	if mods&glfw.ModSuper != 0 {
		m |= event.ModSuper
	}
	if mods&glfw.ModCapsLock != 0 {
		m |= event.ModCapsLock
	}
	if mods&glfw.ModNumLock != 0 {
		m |= event.ModNumLock
	}
	return m
}

func keyAction(a glfw.Action) event.KeyAction {
	switch a {
	case glfw.Release:
		return event.KeyRelease
	case glfw.Repeat:
		return event.KeyRepeat
	default:
		return event.KeyPress
	}
}

func mouseButton(b glfw.MouseButton) event.Button {
	switch b {
	case glfw.MouseButtonLeft:
		return event.ButtonLeft
	case glfw.MouseButtonMiddle:
		return event.ButtonMiddle
	case glfw.MouseButtonRight:
		return event.ButtonRight
	case glfw.MouseButton4:
		return event.ButtonBack
	case glfw.MouseButton5:
		return event.ButtonForward
	default:
		return event.ButtonNone
	}
}
