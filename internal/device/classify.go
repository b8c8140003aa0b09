package device

import (
	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

// Linux input event codes used for classification.
const (
	relX = 0x00
	relY = 0x01

	absMTPositionX = 0x35

	keyQ = 16
	keyA = 30
	keyZ = 44

	btnLeft       = 0x110
	btnJoystick   = 0x120
	btnGamepadEnd = 0x13f
	btnTouch      = 0x14a
	btnTriggerMax = 0x2c0
	btnTriggerEnd = 0x2e8
)

var hintClasses = []struct {
	property string
	class    event.DeviceClass
}{
	{"ID_INPUT_JOYSTICK", event.ClassController},
	{"ID_INPUT_TOUCHSCREEN", event.ClassTouch},
	{"ID_INPUT_TOUCHPAD", event.ClassTouch},
	{"ID_INPUT_MOUSE", event.ClassPointer},
	{"ID_INPUT_POINTINGSTICK", event.ClassPointer},
	{"ID_INPUT_TRACKBALL", event.ClassPointer},
	{"ID_INPUT_TABLET", event.ClassPointer},
	{"ID_INPUT_KEYBOARD", event.ClassKeyboard},
}

// Classify assigns a device class from classification hints, falling back
// to capability bits. It reports false for devices matching no class.
func Classify(p backend.DeviceProbe) (event.DeviceClass, bool) {
	for _, h := range hintClasses {
		if v := p.Hints[h.property]; v == "1" {
			return h.class, true
		}
	}

	keys := make(map[uint16]bool, len(p.Keys))
	gamepad := false
	for _, k := range p.Keys {
		keys[k] = true
		if (k >= btnJoystick && k < btnGamepadEnd) || (k >= btnTriggerMax && k < btnTriggerEnd) {
			gamepad = true
		}
	}
	if gamepad {
		return event.ClassController, true
	}

	for _, a := range p.AbsAxes {
		if a.Code == absMTPositionX {
			return event.ClassTouch, true
		}
	}
	if keys[btnTouch] && !keys[btnLeft] {
		return event.ClassTouch, true
	}

	rel := make(map[uint16]bool, len(p.RelAxes))
	for _, r := range p.RelAxes {
		rel[r] = true
	}
	if (rel[relX] && rel[relY]) || keys[btnLeft] {
		return event.ClassPointer, true
	}

	if keys[keyQ] && keys[keyA] && keys[keyZ] {
		return event.ClassKeyboard, true
	}
	return 0, false
}
