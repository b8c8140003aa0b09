package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawLogConfig struct {
	Level     *string `yaml:"level"`
	File      *string `yaml:"file"`
	MaxSizeMB *int    `yaml:"max_size_mb"`
	MaxFiles  *int    `yaml:"max_files"`
}

type RawEventsConfig struct {
	HotplugBuffer    *int  `yaml:"hotplug_buffer"`
	CoalesceGeometry *bool `yaml:"coalesce_geometry"`
}

type RawDevicesConfig struct {
	Enabled        *bool `yaml:"enabled"`
	ProbeTimeoutMS *int  `yaml:"probe_timeout_ms"`
}

type RawReconcileConfig struct {
	IntervalMS *int `yaml:"interval_ms"`
}

type RawPixelFormat struct {
	RedBits      *int  `yaml:"red_bits"`
	GreenBits    *int  `yaml:"green_bits"`
	BlueBits     *int  `yaml:"blue_bits"`
	AlphaBits    *int  `yaml:"alpha_bits"`
	DepthBits    *int  `yaml:"depth_bits"`
	StencilBits  *int  `yaml:"stencil_bits"`
	Samples      *int  `yaml:"samples"`
	DoubleBuffer *bool `yaml:"double_buffer"`
	SRGB         *bool `yaml:"srgb"`
}

type RawContextConfig struct {
	Major   *int    `yaml:"major"`
	Minor   *int    `yaml:"minor"`
	Profile *string `yaml:"profile"`
	Debug   *bool   `yaml:"debug"`
}

// RawWindow is a window preset. Unset keys take the window defaults.
type RawWindow struct {
	Title      *string `yaml:"title"`
	Size       *[2]int `yaml:"size"`
	Position   *[2]int `yaml:"position"`
	Resizable  *bool   `yaml:"resizable"`
	Fullscreen *bool   `yaml:"fullscreen"`
	Decorated  *bool   `yaml:"decorated"`
	Visible    *bool   `yaml:"visible"`
}

type RawConfig struct {
	Include     IncludeList          `yaml:"include"`
	Backend     *string              `yaml:"backend"`
	Display     *string              `yaml:"display"`
	Log         *RawLogConfig        `yaml:"log"`
	Events      *RawEventsConfig     `yaml:"events"`
	Devices     *RawDevicesConfig    `yaml:"devices"`
	Reconcile   *RawReconcileConfig  `yaml:"reconcile"`
	PixelFormat *RawPixelFormat      `yaml:"pixel_format"`
	Context     *RawContextConfig    `yaml:"context"`
	Windows     map[string]RawWindow `yaml:"windows"`
}

// merge overlays other onto r; set fields in other win.
func (r RawConfig) merge(other RawConfig) RawConfig {
	out := r
	out.Include = nil
	if other.Backend != nil {
		out.Backend = other.Backend
	}
	if other.Display != nil {
		out.Display = other.Display
	}
	if other.Log != nil {
		out.Log = mergeLog(out.Log, other.Log)
	}
	if other.Events != nil {
		out.Events = mergeEvents(out.Events, other.Events)
	}
	if other.Devices != nil {
		out.Devices = mergeDevices(out.Devices, other.Devices)
	}
	if other.Reconcile != nil {
		out.Reconcile = mergeReconcile(out.Reconcile, other.Reconcile)
	}
	if other.PixelFormat != nil {
		out.PixelFormat = mergePixelFormat(out.PixelFormat, other.PixelFormat)
	}
	if other.Context != nil {
		out.Context = mergeContext(out.Context, other.Context)
	}
	if other.Windows != nil {
		windows := make(map[string]RawWindow, len(out.Windows)+len(other.Windows))
		for name, w := range out.Windows {
			windows[name] = w
		}
		for name, w := range other.Windows {
			windows[name] = mergeWindow(windows[name], w)
		}
		out.Windows = windows
	}
	return out
}

func mergeLog(base, over *RawLogConfig) *RawLogConfig {
	out := RawLogConfig{}
	if base != nil {
		out = *base
	}
	if over.Level != nil {
		out.Level = over.Level
	}
	if over.File != nil {
		out.File = over.File
	}
	if over.MaxSizeMB != nil {
		out.MaxSizeMB = over.MaxSizeMB
	}
	if over.MaxFiles != nil {
		out.MaxFiles = over.MaxFiles
	}
	return &out
}

func mergeEvents(base, over *RawEventsConfig) *RawEventsConfig {
	out := RawEventsConfig{}
	if base != nil {
		out = *base
	}
	if over.HotplugBuffer != nil {
		out.HotplugBuffer = over.HotplugBuffer
	}
	if over.CoalesceGeometry != nil {
		out.CoalesceGeometry = over.CoalesceGeometry
	}
	return &out
}

func mergeDevices(base, over *RawDevicesConfig) *RawDevicesConfig {
	out := RawDevicesConfig{}
	if base != nil {
		out = *base
	}
	if over.Enabled != nil {
		out.Enabled = over.Enabled
	}
	if over.ProbeTimeoutMS != nil {
		out.ProbeTimeoutMS = over.ProbeTimeoutMS
	}
	return &out
}

func mergeReconcile(base, over *RawReconcileConfig) *RawReconcileConfig {
	out := RawReconcileConfig{}
	if base != nil {
		out = *base
	}
	if over.IntervalMS != nil {
		out.IntervalMS = over.IntervalMS
	}
	return &out
}

func mergePixelFormat(base, over *RawPixelFormat) *RawPixelFormat {
	out := RawPixelFormat{}
	if base != nil {
		out = *base
	}
	if over.RedBits != nil {
		out.RedBits = over.RedBits
	}
	if over.GreenBits != nil {
		out.GreenBits = over.GreenBits
	}
	if over.BlueBits != nil {
		out.BlueBits = over.BlueBits
	}
	if over.AlphaBits != nil {
		out.AlphaBits = over.AlphaBits
	}
	if over.DepthBits != nil {
		out.DepthBits = over.DepthBits
	}
	if over.StencilBits != nil {
		out.StencilBits = over.StencilBits
	}
	if over.Samples != nil {
		out.Samples = over.Samples
	}
	if over.DoubleBuffer != nil {
		out.DoubleBuffer = over.DoubleBuffer
	}
	if over.SRGB != nil {
		out.SRGB = over.SRGB
	}
	return &out
}

func mergeContext(base, over *RawContextConfig) *RawContextConfig {
	out := RawContextConfig{}
	if base != nil {
		out = *base
	}
	if over.Major != nil {
		out.Major = over.Major
	}
	if over.Minor != nil {
		out.Minor = over.Minor
	}
	if over.Profile != nil {
		out.Profile = over.Profile
	}
	if over.Debug != nil {
		out.Debug = over.Debug
	}
	return &out
}

func mergeWindow(base, over RawWindow) RawWindow {
	out := base
	if over.Title != nil {
		out.Title = over.Title
	}
	if over.Size != nil {
		out.Size = over.Size
	}
	if over.Position != nil {
		out.Position = over.Position
	}
	if over.Resizable != nil {
		out.Resizable = over.Resizable
	}
	if over.Fullscreen != nil {
		out.Fullscreen = over.Fullscreen
	}
	if over.Decorated != nil {
		out.Decorated = over.Decorated
	}
	if over.Visible != nil {
		out.Visible = over.Visible
	}
	return out
}
