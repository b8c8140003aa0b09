package translate

import (
	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

func (t *Translator) key(id event.WindowID, n backend.Notification) event.Event {
	sc, key := n.Scancode, n.Key
	if sc == 0 && key != event.KeyUnknown {
		sc = t.scancodeFor(key)
	}
	if key == event.KeyUnknown && sc != 0 {
		key = t.keyFor(sc)
	}
	action := n.Action
	if action == 0 {
		action = event.KeyPress
	}
	return event.KeyEvent{
		Window:    id,
		Device:    t.device(n.Device.NativeID),
		Time:      n.Arrival,
		Action:    action,
		Scancode:  sc,
		Key:       key,
		Modifiers: n.Modifiers,
	}
}

func (t *Translator) keyFor(sc event.Scancode) event.Key {
	if t.keymap != nil {
		if k, ok := t.keymap.Key(sc); ok {
			return k
		}
	}
	if k, ok := event.DefaultKey(sc); ok {
		return k
	}
	return event.KeyUnknown
}

func (t *Translator) scancodeFor(k event.Key) event.Scancode {
	if t.keymap != nil {
		if sc, ok := t.keymap.Scancode(k); ok {
			return sc
		}
	}
	sc, _ := event.DefaultScancode(k)
	return sc
}

func (t *Translator) pointer(id event.WindowID, n backend.Notification) []event.Event {
	t.mu.Lock()
	st, ok := t.pointers[id]
	if !ok {
		st = &pointerState{}
		t.pointers[id] = st
	}

	ev := event.PointerEvent{
		Window:    id,
		Device:    t.device(n.Device.NativeID),
		Time:      n.Arrival,
		Source:    event.SourceMouse,
		Modifiers: n.Modifiers,
	}

	switch n.Kind {
	case backend.NotifyPointerMotion:
		ev.Kind = event.PointerMove
		switch {
		case n.HasPosition && n.HasDelta:
			ev.Position, ev.Delta = n.Position, n.Delta
		case n.HasPosition:
			ev.Position = n.Position
			if st.seen {
				ev.Delta = n.Position.Sub(st.position)
			}
		case n.HasDelta:
			ev.Delta = n.Delta
			ev.Position = st.position.Add(n.Delta)
		default:
			ev.Position = st.position
		}
		st.position = ev.Position
		st.seen = true
	case backend.NotifyPointerButton:
		ev.Button = n.Button
		ev.Position = t.positionOf(st, n)
		if n.Pressed {
			ev.Kind = event.PointerPress
			st.buttons = st.buttons.With(n.Button)
		} else {
			ev.Kind = event.PointerRelease
			st.buttons = st.buttons.Without(n.Button)
		}
	case backend.NotifyPointerScroll:
		ev.Kind = event.PointerScroll
		ev.Scroll = n.Scroll
		ev.Position = t.positionOf(st, n)
	case backend.NotifyPointerEnter:
		ev.Kind = event.PointerEnter
		ev.Position = t.positionOf(st, n)
	case backend.NotifyPointerLeave:
		ev.Kind = event.PointerLeave
		ev.Position = t.positionOf(st, n)
	}
	ev.Buttons = st.buttons
	t.mu.Unlock()

	return []event.Event{ev}
}

// positionOf updates the tracked position from n when n carries one. The
// caller holds t.mu.
func (t *Translator) positionOf(st *pointerState, n backend.Notification) event.Point {
	if n.HasPosition {
		st.position = n.Position
		st.seen = true
	}
	return st.position
}

func (t *Translator) touch(id event.WindowID, n backend.Notification) event.Event {
	phase := n.Phase
	if phase == 0 {
		phase = event.PointerMove
	}
	return event.PointerEvent{
		Window:    id,
		Device:    t.device(n.Device.NativeID),
		Time:      n.Arrival,
		Kind:      phase,
		Source:    event.SourceTouch,
		Position:  n.Position,
		Finger:    n.Finger,
		Modifiers: n.Modifiers,
	}
}
