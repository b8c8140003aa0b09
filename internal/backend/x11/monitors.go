//go:build linux

package x11

import (
	"fmt"
	"math"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// Monitor represents a physical display
type Monitor struct {
	ID       int
	Name     string
	X        int
	Y        int
	Width    int
	Height   int
	MmWidth  int
	MmHeight int
}

// Contains reports whether the point lies on the monitor.
func (m Monitor) Contains(x, y int) bool {
	return x >= m.X && x < m.X+m.Width && y >= m.Y && y < m.Y+m.Height
}

// Scale derives physical pixels per logical pixel from the monitor's DPI,
// relative to 96 DPI and rounded to quarter steps. Monitors that report no
// physical size have scale 1.
func (m Monitor) Scale() float64 {
	if m.MmWidth <= 0 || m.Width <= 0 {
		return 1
	}
	dpi := float64(m.Width) / (float64(m.MmWidth) / 25.4)
	scale := math.Round(dpi/96*4) / 4
	if scale < 1 {
		return 1
	}
	return scale
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		mon := Monitor{
			ID:     i,
			Name:   fmt.Sprintf("Monitor%d", i),
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		}
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			mon.Name = string(outputInfo.Name)
			mon.MmWidth = int(outputInfo.MmWidth)
			mon.MmHeight = int(outputInfo.MmHeight)
		}
		monitors = append(monitors, mon)
	}

	return monitors, nil
}

// MonitorForWindow returns the monitor holding the window's center.
func (c *Connection) MonitorForWindow(windowID xproto.Window) (Monitor, bool) {
	monitors, err := c.GetMonitors()
	if err != nil || len(monitors) == 0 {
		return Monitor{}, false
	}

	x, y, w, h, err := c.RootGeometry(windowID)
	if err != nil {
		return monitors[0], true
	}
	cx, cy := x+w/2, y+h/2
	for _, mon := range monitors {
		if mon.Contains(cx, cy) {
			return mon, true
		}
	}
	return monitors[0], true
}

// RootGeometry returns the window's client area in root coordinates.
func (c *Connection) RootGeometry(windowID xproto.Window) (x, y, width, height int, err error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return 0, 0, 0, 0, err
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return 0, 0, 0, 0, err
	}

	return int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height), nil
}
