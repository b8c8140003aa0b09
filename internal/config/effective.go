package config

import (
	"fmt"

	"github.com/1broseidon/platlayer/internal/window"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig applies raw onto DefaultConfig. Window presets start
// from window.DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Backend != nil {
		cfg.Backend = *raw.Backend
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if l := raw.Log; l != nil {
		setString(&cfg.Log.Level, l.Level)
		setString(&cfg.Log.File, l.File)
		setInt(&cfg.Log.MaxSizeMB, l.MaxSizeMB)
		setInt(&cfg.Log.MaxFiles, l.MaxFiles)
	}
	if e := raw.Events; e != nil {
		setInt(&cfg.Events.HotplugBuffer, e.HotplugBuffer)
		setBool(&cfg.Events.CoalesceGeometry, e.CoalesceGeometry)
	}
	if d := raw.Devices; d != nil {
		setBool(&cfg.Devices.Enabled, d.Enabled)
		setInt(&cfg.Devices.ProbeTimeoutMS, d.ProbeTimeoutMS)
	}
	if r := raw.Reconcile; r != nil {
		setInt(&cfg.Reconcile.IntervalMS, r.IntervalMS)
	}
	if p := raw.PixelFormat; p != nil {
		pf := &cfg.PixelFormat
		setInt(&pf.RedBits, p.RedBits)
		setInt(&pf.GreenBits, p.GreenBits)
		setInt(&pf.BlueBits, p.BlueBits)
		setInt(&pf.AlphaBits, p.AlphaBits)
		setInt(&pf.DepthBits, p.DepthBits)
		setInt(&pf.StencilBits, p.StencilBits)
		setInt(&pf.Samples, p.Samples)
		setBool(&pf.DoubleBuffer, p.DoubleBuffer)
		setBool(&pf.SRGB, p.SRGB)
	}
	if c := raw.Context; c != nil {
		setInt(&cfg.Context.Major, c.Major)
		setInt(&cfg.Context.Minor, c.Minor)
		setString(&cfg.Context.Profile, c.Profile)
		setBool(&cfg.Context.Debug, c.Debug)
	}
	for name, rw := range raw.Windows {
		cfg.Windows[name] = buildWindow(rw)
	}
	return cfg, nil
}

func buildWindow(rw RawWindow) window.Config {
	w := window.DefaultConfig()
	setString(&w.Title, rw.Title)
	if rw.Size != nil {
		w.Size = *rw.Size
	}
	if rw.Position != nil {
		p := *rw.Position
		w.Position = &p
	}
	setBool(&w.Resizable, rw.Resizable)
	setBool(&w.Fullscreen, rw.Fullscreen)
	setBool(&w.Decorated, rw.Decorated)
	setBool(&w.Visible, rw.Visible)
	return w
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
