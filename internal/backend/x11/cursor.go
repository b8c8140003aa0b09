//go:build linux

package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// SetCursorVisible swaps the window's cursor for a blank one. Showing it
// again resets the attribute so the window inherits its parent's cursor.
func (b *Backend) SetCursorVisible(native uintptr, visible bool) error {
	wid := xproto.Window(native)
	if !b.owns(wid) {
		return fmt.Errorf("no window %#x", native)
	}
	cursor := xproto.Cursor(xproto.CursorNone)
	if !visible {
		blank, err := b.blankCursor()
		if err != nil {
			return err
		}
		cursor = blank
	}
	xc := b.conn.XUtil.Conn()
	if err := xproto.ChangeWindowAttributesChecked(xc, wid, xproto.CwCursor, []uint32{uint32(cursor)}).Check(); err != nil {
		return fmt.Errorf("failed to set window cursor: %w", err)
	}
	return nil
}

// blankCursor returns the shared invisible cursor, built on first use from
// an empty 1x1 bitmap used as both source and mask.
func (b *Backend) blankCursor() (xproto.Cursor, error) {
	b.cursorMu.Lock()
	defer b.cursorMu.Unlock()
	if b.blank != 0 {
		return b.blank, nil
	}

	xc := b.conn.XUtil.Conn()
	pix, err := xproto.NewPixmapId(xc)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate pixmap id: %w", err)
	}
	if err := xproto.CreatePixmapChecked(xc, 1, pix, xproto.Drawable(b.conn.XUtil.RootWin()), 1, 1).Check(); err != nil {
		return 0, fmt.Errorf("failed to create cursor bitmap: %w", err)
	}
	defer xproto.FreePixmap(xc, pix)

	cid, err := xproto.NewCursorId(xc)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate cursor id: %w", err)
	}
	if err := xproto.CreateCursorChecked(xc, cid, pix, pix, 0, 0, 0, 0, 0, 0, 0, 0).Check(); err != nil {
		return 0, fmt.Errorf("failed to create blank cursor: %w", err)
	}
	b.blank = cid
	return cid, nil
}
