//go:build linux

package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

const (
	wmStateRemove = 0
	wmStateAdd    = 1

	iconicState = 3

	stateFullscreen = "_NET_WM_STATE_FULLSCREEN"
	stateHidden     = "_NET_WM_STATE_HIDDEN"
	stateMaxVert    = "_NET_WM_STATE_MAXIMIZED_VERT"
	stateMaxHorz    = "_NET_WM_STATE_MAXIMIZED_HORZ"
)

const windowEventMask = xproto.EventMaskKeyPress |
	xproto.EventMaskKeyRelease |
	xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion |
	xproto.EventMaskEnterWindow |
	xproto.EventMaskLeaveWindow |
	xproto.EventMaskStructureNotify |
	xproto.EventMaskFocusChange |
	xproto.EventMaskPropertyChange

func (b *Backend) CreateWindow(spec backend.WindowSpec) (backend.WindowInfo, error) {
	xu := b.conn.XUtil
	conn := xu.Conn()
	screen := b.conn.Screen

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return backend.WindowInfo{}, err
	}

	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		b.conn.Root,
		int16(spec.X), int16(spec.Y),
		uint16(spec.Width), uint16(spec.Height),
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		// Values follow the mask bit order: back pixel, then event mask.
		[]uint32{screen.BlackPixel, windowEventMask},
	).Check()
	if err != nil {
		return backend.WindowInfo{}, fmt.Errorf("failed to create window: %w", err)
	}

	b.mu.Lock()
	b.windows[wid] = spec
	b.mu.Unlock()

	if err := b.configureNewWindow(wid, spec); err != nil {
		b.forget(wid)
		xproto.DestroyWindow(conn, wid)
		return backend.WindowInfo{}, err
	}

	if spec.Visible {
		xproto.MapWindow(conn, wid)
	}

	state := event.StateNormal
	if spec.Fullscreen {
		state = event.StateFullscreen
	}
	return backend.WindowInfo{
		Native: uintptr(wid),
		Geometry: event.Geometry{
			X:     spec.X,
			Y:     spec.Y,
			Size:  event.Size{Width: spec.Width, Height: spec.Height},
			Scale: b.Scale(uintptr(wid)),
		},
		State: state,
	}, nil
}

// configureNewWindow sets the properties a window manager reads when the
// window is first mapped.
func (b *Backend) configureNewWindow(wid xproto.Window, spec backend.WindowSpec) error {
	xu := b.conn.XUtil

	if err := b.SetWindowTitle(uintptr(wid), spec.Title); err != nil {
		return err
	}
	if err := icccm.WmProtocolsSet(xu, wid, []string{"WM_DELETE_WINDOW"}); err != nil {
		return fmt.Errorf("failed to set WM_PROTOCOLS: %w", err)
	}

	hints := &icccm.NormalHints{}
	if spec.Positioned {
		hints.Flags |= icccm.SizeHintUSPosition
		hints.X, hints.Y = spec.X, spec.Y
	}
	if !spec.Resizable {
		hints.Flags |= icccm.SizeHintPMinSize | icccm.SizeHintPMaxSize
		hints.MinWidth, hints.MaxWidth = uint(spec.Width), uint(spec.Width)
		hints.MinHeight, hints.MaxHeight = uint(spec.Height), uint(spec.Height)
	}
	if hints.Flags != 0 {
		if err := icccm.WmNormalHintsSet(xu, wid, hints); err != nil {
			return fmt.Errorf("failed to set size hints: %w", err)
		}
	}

	if !spec.Decorated {
		mh := &motif.Hints{Flags: motif.HintDecorations, Decoration: motif.DecorationNone}
		if err := motif.WmHintsSet(xu, wid, mh); err != nil {
			return fmt.Errorf("failed to set motif hints: %w", err)
		}
	}

	if spec.Fullscreen {
		if err := ewmh.WmStateSet(xu, wid, []string{stateFullscreen}); err != nil {
			return fmt.Errorf("failed to request fullscreen: %w", err)
		}
	}
	return nil
}

func (b *Backend) DestroyWindow(native uintptr) error {
	wid := xproto.Window(native)
	if !b.forget(wid) {
		return fmt.Errorf("no window %#x", native)
	}
	return xproto.DestroyWindowChecked(b.conn.XUtil.Conn(), wid).Check()
}

// forget stops decoding events for wid and reports whether it was owned.
func (b *Backend) forget(wid xproto.Window) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.windows[wid]; !ok {
		return false
	}
	delete(b.windows, wid)
	return true
}

func (b *Backend) owns(wid xproto.Window) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.windows[wid]
	return ok
}

// SetWindowState asks the window manager for the state. The result arrives
// as a _NET_WM_STATE property change.
func (b *Backend) SetWindowState(native uintptr, state event.WindowState) error {
	xu := b.conn.XUtil
	wid := xproto.Window(native)
	if !b.owns(wid) {
		return fmt.Errorf("no window %#x", native)
	}

	switch state {
	case event.StateNormal:
		for _, s := range []string{stateFullscreen, stateMaxVert, stateMaxHorz} {
			if err := ewmh.WmStateReq(xu, wid, wmStateRemove, s); err != nil {
				return err
			}
		}
		// Mapping an iconic window restores it.
		return xproto.MapWindowChecked(xu.Conn(), wid).Check()
	case event.StateMinimized:
		return b.iconify(wid)
	case event.StateMaximized:
		if err := ewmh.WmStateReq(xu, wid, wmStateRemove, stateFullscreen); err != nil {
			return err
		}
		if err := ewmh.WmStateReq(xu, wid, wmStateAdd, stateMaxVert); err != nil {
			return err
		}
		return ewmh.WmStateReq(xu, wid, wmStateAdd, stateMaxHorz)
	case event.StateFullscreen:
		return ewmh.WmStateReq(xu, wid, wmStateAdd, stateFullscreen)
	}
	return fmt.Errorf("unsupported window state %s", state)
}

// iconify minimizes a window via WM_CHANGE_STATE.
func (b *Backend) iconify(wid xproto.Window) error {
	atom, err := b.conn.Atom("WM_CHANGE_STATE")
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: wid,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{iconicState, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		b.conn.XUtil.Conn(),
		false,
		b.conn.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

func (b *Backend) SetWindowTitle(native uintptr, title string) error {
	xu := b.conn.XUtil
	wid := xproto.Window(native)
	if err := ewmh.WmNameSet(xu, wid, title); err != nil {
		return fmt.Errorf("failed to set _NET_WM_NAME: %w", err)
	}
	return icccm.WmNameSet(xu, wid, title)
}

func (b *Backend) SetWindowGeometry(native uintptr, x, y, width, height int) error {
	wid := xproto.Window(native)
	if !b.owns(wid) {
		return fmt.Errorf("no window %#x", native)
	}

	// Use EWMH MoveResize for better WM compatibility
	if err := ewmh.MoveresizeWindow(b.conn.XUtil, wid, x, y, width, height); err != nil {
		// Fallback to direct window manipulation
		xwindow.New(b.conn.XUtil, wid).MoveResize(x, y, width, height)
	}
	return nil
}

func (b *Backend) FocusWindow(native uintptr) error {
	wid := xproto.Window(native)
	if !b.owns(wid) {
		return fmt.Errorf("no window %#x", native)
	}
	return ewmh.ActiveWindowReq(b.conn.XUtil, wid)
}

func (b *Backend) WindowAlive(native uintptr) (bool, error) {
	b.mu.Lock()
	lost := b.lost
	b.mu.Unlock()
	if lost {
		return false, nil
	}
	_, err := xproto.GetGeometry(b.conn.XUtil.Conn(), xproto.Drawable(native)).Reply()
	if err == nil {
		return true, nil
	}
	switch err.(type) {
	case xproto.DrawableError, xproto.WindowError:
		return false, nil
	}
	return false, err
}

// MinSize is 1x1: X11 itself imposes no larger minimum.
func (b *Backend) MinSize(bool) (int, int) {
	return 1, 1
}

func (b *Backend) Scale(native uintptr) float64 {
	if mon, ok := b.conn.MonitorForWindow(xproto.Window(native)); ok {
		return mon.Scale()
	}
	screen := b.conn.Screen
	return Monitor{Width: int(screen.WidthInPixels), MmWidth: int(screen.WidthInMillimeters)}.Scale()
}

// windowState reads the state the window manager last published.
func (b *Backend) windowState(wid xproto.Window) event.WindowState {
	states, err := ewmh.WmStateGet(b.conn.XUtil, wid)
	if err != nil {
		return event.StateNormal
	}
	return stateFromAtoms(states)
}

func stateFromAtoms(states []string) event.WindowState {
	var hidden, full, maxV, maxH bool
	for _, s := range states {
		switch s {
		case stateHidden:
			hidden = true
		case stateFullscreen:
			full = true
		case stateMaxVert:
			maxV = true
		case stateMaxHorz:
			maxH = true
		}
	}
	switch {
	case hidden:
		return event.StateMinimized
	case full:
		return event.StateFullscreen
	case maxV && maxH:
		return event.StateMaximized
	}
	return event.StateNormal
}
