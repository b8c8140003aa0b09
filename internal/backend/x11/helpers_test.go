//go:build linux

package x11

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

func TestKeysymToKey(t *testing.T) {
	tests := []struct {
		keysym xproto.Keysym
		want   event.Key
		ok     bool
	}{
		{keysym: 'a', want: "A", ok: true},
		{keysym: 'Q', want: "Q", ok: true},
		{keysym: '7', want: "7", ok: true},
		{keysym: ';', want: ";", ok: true},
		{keysym: 0x20, want: event.KeySpace, ok: true},
		{keysym: keysymReturn, want: event.KeyEnter, ok: true},
		{keysym: keysymF1, want: "F1", ok: true},
		{keysym: keysymF12, want: "F12", ok: true},
		{keysym: keysymSuperL, want: event.KeyLeftSuper, ok: true},
		{keysym: 0x13bd, ok: false},
	}
	for _, tt := range tests {
		got, ok := keysymToKey(tt.keysym)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("keysymToKey(%#x) = %q, %v; want %q, %v", tt.keysym, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKeycodeToScancode(t *testing.T) {
	if got := keycodeToScancode(9); got != 1 {
		t.Fatalf("keycode 9 (Escape) = %d, want 1", got)
	}
	if got := keycodeToScancode(3); got != 0 {
		t.Fatalf("keycodes below the offset should map to 0, got %d", got)
	}
}

func TestMonitorScale(t *testing.T) {
	tests := []struct {
		name string
		mon  Monitor
		want float64
	}{
		{name: "96 dpi", mon: Monitor{Width: 1920, MmWidth: 508}, want: 1},
		{name: "192 dpi", mon: Monitor{Width: 3840, MmWidth: 508}, want: 2},
		{name: "144 dpi", mon: Monitor{Width: 2880, MmWidth: 508}, want: 1.5},
		{name: "no physical size", mon: Monitor{Width: 1920}, want: 1},
		{name: "low dpi clamps", mon: Monitor{Width: 1024, MmWidth: 600}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mon.Scale(); got != tt.want {
				t.Fatalf("Scale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStateFromAtoms(t *testing.T) {
	tests := []struct {
		states []string
		want   event.WindowState
	}{
		{states: nil, want: event.StateNormal},
		{states: []string{stateMaxVert}, want: event.StateNormal},
		{states: []string{stateMaxHorz, stateMaxVert}, want: event.StateMaximized},
		{states: []string{stateMaxHorz, stateMaxVert, stateFullscreen}, want: event.StateFullscreen},
		{states: []string{stateFullscreen, stateHidden}, want: event.StateMinimized},
	}
	for _, tt := range tests {
		if got := stateFromAtoms(tt.states); got != tt.want {
			t.Fatalf("stateFromAtoms(%v) = %s, want %s", tt.states, got, tt.want)
		}
	}
}

func TestParseFBConfigs(t *testing.T) {
	// Two configs, five properties each.
	props := []uint32{
		glxFBConfigID, 0x21, glxDrawableType, glxWindowBit, glxRenderType, glxRGBABit, glxRedSize, 8, glxDoubleBuffer, 1,
		glxFBConfigID, 0x22, glxDrawableType, 0x4, glxRenderType, glxRGBABit, glxRedSize, 8, glxDoubleBuffer, 1,
	}
	got := parseFBConfigs(2, 5, props)
	if len(got) != 1 {
		t.Fatalf("expected only the window-capable config, got %d", len(got))
	}
	if got[0].ID != 0x21 || got[0].Format.RedBits != 8 || !got[0].Format.DoubleBuffer {
		t.Fatalf("unexpected candidate %#v", got[0])
	}

	if got := parseFBConfigs(3, 5, props); len(got) != 1 {
		t.Fatalf("a truncated property list should be tolerated, got %d", len(got))
	}
}

func TestContextAttribs(t *testing.T) {
	attribs := contextAttribs(backend.ContextSettings{Major: 3, Minor: 3, Profile: backend.ProfileCore, Debug: true})
	want := []uint32{
		glxContextMajor, 3,
		glxContextMinor, 3,
		glxContextProfileMask, glxContextCoreBit,
		glxContextFlags, glxContextDebugBit,
	}
	if len(attribs) != len(want) {
		t.Fatalf("got %v, want %v", attribs, want)
	}
	for i := range want {
		if attribs[i] != want[i] {
			t.Fatalf("attrib %d = %#x, want %#x", i, attribs[i], want[i])
		}
	}
}
