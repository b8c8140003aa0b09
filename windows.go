package platlayer

import (
	"github.com/1broseidon/platlayer/internal/perr"
)

// CreateWindow opens a window. Sizes below the OS minimum are clamped.
func (p *Platform) CreateWindow(cfg WindowConfig) (Window, error) {
	p.check("platlayer.CreateWindow")
	return p.windows.Create(cfg)
}

// CreateWindowPreset opens a window from a named preset of the windows
// config section.
func (p *Platform) CreateWindowPreset(name string) (Window, error) {
	p.check("platlayer.CreateWindowPreset")
	cfg, err := p.cfg.Window(name)
	if err != nil {
		return Window{}, perr.New("platlayer.CreateWindowPreset", perr.ErrInvalidArgument, name, err)
	}
	return p.windows.Create(cfg)
}

// CloseWindow destroys a window. Closing an already closed window is a
// no-op.
func (p *Platform) CloseWindow(id WindowID) error {
	p.check("platlayer.CloseWindow")
	return p.windows.Close(id)
}

// SetWindowState requests a state change, reported later as StateChanged.
func (p *Platform) SetWindowState(id WindowID, state WindowState) error {
	p.check("platlayer.SetWindowState")
	return p.windows.SetState(id, state)
}

// SetWindowTitle changes the title bar text.
func (p *Platform) SetWindowTitle(id WindowID, title string) error {
	p.check("platlayer.SetWindowTitle")
	return p.windows.SetTitle(id, title)
}

// SetWindowSize requests a new client size, reported later as Resized.
func (p *Platform) SetWindowSize(id WindowID, width, height int) error {
	p.check("platlayer.SetWindowSize")
	return p.windows.SetSize(id, width, height)
}

// SetWindowPosition requests a move, reported later as Moved.
func (p *Platform) SetWindowPosition(id WindowID, x, y int) error {
	p.check("platlayer.SetWindowPosition")
	return p.windows.SetPosition(id, x, y)
}

// FocusWindow asks the OS to give the window keyboard focus.
func (p *Platform) FocusWindow(id WindowID) error {
	p.check("platlayer.FocusWindow")
	return p.windows.Focus(id)
}

// HideCursor hides the pointer while it is over the window. Backends
// without cursor control report ErrPlatform.
func (p *Platform) HideCursor(id WindowID) error {
	p.check("platlayer.HideCursor")
	return p.windows.SetCursorVisible(id, false)
}

// ShowCursor undoes HideCursor.
func (p *Platform) ShowCursor(id WindowID) error {
	p.check("platlayer.ShowCursor")
	return p.windows.SetCursorVisible(id, true)
}

// CursorVisible reports whether the pointer is shown over the window.
func (p *Platform) CursorVisible(id WindowID) (bool, error) {
	p.check("platlayer.CursorVisible")
	return p.windows.CursorVisible(id)
}

// Window returns a snapshot of a live window.
func (p *Platform) Window(id WindowID) (Window, error) {
	p.check("platlayer.Window")
	return p.windows.Window(id)
}

// Windows returns every live window ordered by id.
func (p *Platform) Windows() []Window {
	p.check("platlayer.Windows")
	return p.windows.Windows()
}

// ValidWindow reports whether id names a live window.
func (p *Platform) ValidWindow(id WindowID) bool {
	p.check("platlayer.ValidWindow")
	return p.windows.Valid(id)
}

// Reconcile checks every live window against the backend now and closes
// those the OS destroyed without notice. It returns the number closed.
func (p *Platform) Reconcile() (int, error) {
	p.check("platlayer.Reconcile")
	return p.windows.Sweep()
}
