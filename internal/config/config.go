// Package config loads the platform configuration: backend selection,
// logging, event and device tuning, default GL requests and named window
// presets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/glctx"
	"github.com/1broseidon/platlayer/internal/runtimepath"
	"github.com/1broseidon/platlayer/internal/window"
)

// Backends lists the accepted values of the backend key.
var Backends = []string{"auto", "x11", "win32", "glfw", "headless"}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level"`
	// File is an optional log file; empty logs to stderr only.
	File      string `yaml:"file,omitempty"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
}

// EventsConfig tunes the event pipeline.
type EventsConfig struct {
	// HotplugBuffer is the capacity of the device notification channel.
	HotplugBuffer    int  `yaml:"hotplug_buffer"`
	CoalesceGeometry bool `yaml:"coalesce_geometry"`
}

// DevicesConfig controls the device source.
type DevicesConfig struct {
	Enabled        bool `yaml:"enabled"`
	ProbeTimeoutMS int  `yaml:"probe_timeout_ms"`
}

// ReconcileConfig controls the external-destruction sweep.
type ReconcileConfig struct {
	// IntervalMS is the sweep period; zero disables the reconciler.
	IntervalMS int `yaml:"interval_ms"`
}

// ContextConfig is the default context request.
type ContextConfig struct {
	Major   int    `yaml:"major"`
	Minor   int    `yaml:"minor"`
	Profile string `yaml:"profile"`
	Debug   bool   `yaml:"debug"`
}

// Config is the effective configuration.
type Config struct {
	Backend     string                   `yaml:"backend"`
	Display     string                   `yaml:"display,omitempty"`
	Log         LogConfig                `yaml:"log"`
	Events      EventsConfig             `yaml:"events"`
	Devices     DevicesConfig            `yaml:"devices"`
	Reconcile   ReconcileConfig          `yaml:"reconcile"`
	PixelFormat backend.PixelFormat      `yaml:"pixel_format"`
	Context     ContextConfig            `yaml:"context"`
	Windows     map[string]window.Config `yaml:"windows,omitempty"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend: "auto",
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  3,
		},
		Events: EventsConfig{
			HotplugBuffer:    256,
			CoalesceGeometry: true,
		},
		Devices: DevicesConfig{
			Enabled:        true,
			ProbeTimeoutMS: 500,
		},
		Reconcile:   ReconcileConfig{IntervalMS: 2000},
		PixelFormat: backend.DefaultPixelFormat(),
		Context:     ContextConfig{Profile: "any"},
		Windows:     map[string]window.Config{},
	}
}

// DefaultConfigPath returns the standard config file location.
func DefaultConfigPath() (string, error) {
	return runtimepath.ConfigPath()
}

// ContextSettings converts the context section. The profile must have been
// validated.
func (c *Config) ContextSettings() backend.ContextSettings {
	profile, _ := backend.ParseProfile(c.Context.Profile)
	return backend.ContextSettings{
		Major:   c.Context.Major,
		Minor:   c.Context.Minor,
		Profile: profile,
		Debug:   c.Context.Debug,
	}
}

// ReconcileInterval returns the sweep period, zero when disabled.
func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.Reconcile.IntervalMS) * time.Millisecond
}

// ProbeTimeout returns the device probe timeout.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Devices.ProbeTimeoutMS) * time.Millisecond
}

// Window returns the named window preset.
func (c *Config) Window(name string) (window.Config, error) {
	w, ok := c.Windows[name]
	if !ok {
		return window.Config{}, fmt.Errorf("window preset %q not found", name)
	}
	return w, nil
}

// Save writes the configuration to path.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if !contains(Backends, c.Backend) {
		return &ValidationError{Path: "backend", Err: fmt.Errorf("backend must be one of: %s", strings.Join(Backends, ", "))}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	if c.Log.MaxSizeMB < 0 {
		return &ValidationError{Path: "log.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Log.MaxFiles < 0 {
		return &ValidationError{Path: "log.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}
	if c.Events.HotplugBuffer <= 0 {
		return &ValidationError{Path: "events.hotplug_buffer", Err: fmt.Errorf("hotplug_buffer must be > 0")}
	}
	if c.Devices.ProbeTimeoutMS < 0 {
		return &ValidationError{Path: "devices.probe_timeout_ms", Err: fmt.Errorf("probe_timeout_ms must be >= 0")}
	}
	if c.Reconcile.IntervalMS < 0 {
		return &ValidationError{Path: "reconcile.interval_ms", Err: fmt.Errorf("interval_ms must be >= 0")}
	}
	if err := glctx.ValidateFormat(c.PixelFormat); err != nil {
		return &ValidationError{Path: "pixel_format", Err: err}
	}
	if _, ok := backend.ParseProfile(c.Context.Profile); !ok {
		return &ValidationError{Path: "context.profile", Err: fmt.Errorf("profile must be one of: any, core, compat, es")}
	}
	if err := glctx.ValidateSettings(c.ContextSettings()); err != nil {
		return &ValidationError{Path: "context", Err: err}
	}
	for name, w := range c.Windows {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: "windows", Err: fmt.Errorf("windows contains an empty preset name")}
		}
		if err := w.Validate(); err != nil {
			return &ValidationError{Path: "windows." + name, Err: err}
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
