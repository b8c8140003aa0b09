package event

// Key is a layout-mapped key symbol. Printable keys use their upper-case
// character ("A", "1", ";"); other keys use descriptive names.
type Key string

// Scancode is a physical key position in the Linux evdev code space.
// Backends with another native code space convert into this one.
type Scancode uint16

const (
	KeyUnknown    Key = ""
	KeyEscape     Key = "Escape"
	KeyEnter      Key = "Enter"
	KeyTab        Key = "Tab"
	KeyBackspace  Key = "Backspace"
	KeySpace      Key = "Space"
	KeyLeft       Key = "Left"
	KeyRight      Key = "Right"
	KeyUp         Key = "Up"
	KeyDown       Key = "Down"
	KeyHome       Key = "Home"
	KeyEnd        Key = "End"
	KeyPageUp     Key = "PageUp"
	KeyPageDown   Key = "PageDown"
	KeyInsert     Key = "Insert"
	KeyDelete     Key = "Delete"
	KeyLeftShift  Key = "LeftShift"
	KeyRightShift Key = "RightShift"
	KeyLeftCtrl   Key = "LeftCtrl"
	KeyRightCtrl  Key = "RightCtrl"
	KeyLeftAlt    Key = "LeftAlt"
	KeyRightAlt   Key = "RightAlt"
	KeyLeftSuper  Key = "LeftSuper"
	KeyRightSuper Key = "RightSuper"
	KeyCapsLock   Key = "CapsLock"
	KeyNumLock    Key = "NumLock"
	KeyScrollLock Key = "ScrollLock"
	KeyPrint      Key = "Print"
	KeyPause      Key = "Pause"
	KeyMenu       Key = "Menu"
)

// usLayout maps evdev scancodes to keys on a US QWERTY layout. It is the
// last-resort mapping when a backend cannot resolve a key itself.
var usLayout = map[Scancode]Key{
	1: KeyEscape, 2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7", 9: "8", 10: "9", 11: "0",
	12: "-", 13: "=", 14: KeyBackspace, 15: KeyTab,
	16: "Q", 17: "W", 18: "E", 19: "R", 20: "T", 21: "Y", 22: "U", 23: "I", 24: "O", 25: "P",
	26: "[", 27: "]", 28: KeyEnter, 29: KeyLeftCtrl,
	30: "A", 31: "S", 32: "D", 33: "F", 34: "G", 35: "H", 36: "J", 37: "K", 38: "L",
	39: ";", 40: "'", 41: "`", 42: KeyLeftShift, 43: "\\",
	44: "Z", 45: "X", 46: "C", 47: "V", 48: "B", 49: "N", 50: "M",
	51: ",", 52: ".", 53: "/", 54: KeyRightShift, 55: "Keypad*", 56: KeyLeftAlt, 57: KeySpace, 58: KeyCapsLock,
	59: "F1", 60: "F2", 61: "F3", 62: "F4", 63: "F5", 64: "F6", 65: "F7", 66: "F8", 67: "F9", 68: "F10",
	69: KeyNumLock, 70: KeyScrollLock,
	71: "Keypad7", 72: "Keypad8", 73: "Keypad9", 74: "Keypad-",
	75: "Keypad4", 76: "Keypad5", 77: "Keypad6", 78: "Keypad+",
	79: "Keypad1", 80: "Keypad2", 81: "Keypad3", 82: "Keypad0", 83: "Keypad.",
	87: "F11", 88: "F12",
	96: "KeypadEnter", 97: KeyRightCtrl, 98: "Keypad/", 99: KeyPrint, 100: KeyRightAlt,
	102: KeyHome, 103: KeyUp, 104: KeyPageUp, 105: KeyLeft, 106: KeyRight,
	107: KeyEnd, 108: KeyDown, 109: KeyPageDown, 110: KeyInsert, 111: KeyDelete,
	119: KeyPause, 125: KeyLeftSuper, 126: KeyRightSuper, 127: KeyMenu,
}

var usLayoutReverse = func() map[Key]Scancode {
	m := make(map[Key]Scancode, len(usLayout))
	for sc, k := range usLayout {
		m[k] = sc
	}
	return m
}()

// DefaultKey resolves sc on the built-in US layout.
func DefaultKey(sc Scancode) (Key, bool) {
	k, ok := usLayout[sc]
	return k, ok
}

// DefaultScancode resolves k to its US layout position.
func DefaultScancode(k Key) (Scancode, bool) {
	sc, ok := usLayoutReverse[k]
	return sc, ok
}
