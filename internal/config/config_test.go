package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/platlayer/internal/backend"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.ReconcileInterval() != 2*time.Second {
		t.Fatalf("reconcile interval = %v", cfg.ReconcileInterval())
	}
	if cfg.ProbeTimeout() != 500*time.Millisecond {
		t.Fatalf("probe timeout = %v", cfg.ProbeTimeout())
	}
	if cfg.ContextSettings().Profile != backend.ProfileAny {
		t.Fatalf("unexpected default profile %v", cfg.ContextSettings().Profile)
	}
}

func TestLoadFromPath_MissingFileYieldsDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if res.Config.Backend != "auto" || len(res.Files) != 0 {
		t.Fatalf("unexpected result %#v", res)
	}
}

func TestLoadFromPath_OverridesAndWindowPresets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
backend: headless
log:
  level: debug
events:
  coalesce_geometry: false
pixel_format:
  samples: 4
context:
  major: 3
  minor: 3
  profile: core
windows:
  main:
    title: T
    size: [1024, 768]
    resizable: true
`)
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	cfg := res.Config
	if cfg.Backend != "headless" || cfg.Log.Level != "debug" || cfg.Events.CoalesceGeometry {
		t.Fatalf("overrides not applied: %#v", cfg)
	}
	if cfg.Events.HotplugBuffer != 256 || cfg.Log.MaxFiles != 3 {
		t.Fatalf("unset keys should keep defaults: %#v", cfg)
	}
	if cfg.PixelFormat.Samples != 4 || cfg.PixelFormat.DepthBits != 24 {
		t.Fatalf("pixel format = %#v", cfg.PixelFormat)
	}
	cs := cfg.ContextSettings()
	if cs.Major != 3 || cs.Minor != 3 || cs.Profile != backend.ProfileCore {
		t.Fatalf("context settings = %#v", cs)
	}
	main, err := cfg.Window("main")
	if err != nil {
		t.Fatalf("Window(main): %v", err)
	}
	if main.Title != "T" || main.Size != [2]int{1024, 768} || !main.Resizable || !main.Decorated || !main.Visible {
		t.Fatalf("preset = %#v", main)
	}
	if _, err := cfg.Window("other"); err == nil {
		t.Fatalf("expected missing preset error")
	}
}

func TestLoadFromPath_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "backend: x11\nvsync: true\n")
	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "vsync") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorCarriesPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "log:\n  level: verbose\n")
	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "log.level" || verr.Source.Line != 2 {
		t.Fatalf("unexpected error context %#v", verr)
	}
	if !strings.HasPrefix(err.Error(), verr.Source.File+":2:") {
		t.Fatalf("error should lead with file position: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"backend", func(c *Config) { c.Backend = "wayland" }, "backend"},
		{"buffer", func(c *Config) { c.Events.HotplugBuffer = 0 }, "events.hotplug_buffer"},
		{"probe", func(c *Config) { c.Devices.ProbeTimeoutMS = -1 }, "devices.probe_timeout_ms"},
		{"reconcile", func(c *Config) { c.Reconcile.IntervalMS = -5 }, "reconcile.interval_ms"},
		{"samples", func(c *Config) { c.PixelFormat.Samples = 3 }, "pixel_format"},
		{"profile", func(c *Config) { c.Context.Profile = "legacy" }, "context.profile"},
		{"core version", func(c *Config) { c.Context.Profile = "core"; c.Context.Major = 2 }, "context"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			var verr *ValidationError
			if err := cfg.Validate(); !errors.As(err, &verr) || verr.Path != tc.path {
				t.Fatalf("Validate() = %v, want path %q", err, tc.path)
			}
		})
	}
}

func TestValidate_WindowPreset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Windows["bad"] = buildWindow(RawWindow{Size: &[2]int{0, 10}})
	var verr *ValidationError
	if err := cfg.Validate(); !errors.As(err, &verr) || verr.Path != "windows.bad" {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestLoadFromPath_IncludesMergeBeforeFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "conf.d", "10-log.yaml"), "log:\n  level: warn\n  max_files: 7\n")
	writeFile(t, filepath.Join(dir, "conf.d", "20-win.yaml"), "windows:\n  tool:\n    size: [320, 200]\n")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include: conf.d\nlog:\n  level: error\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if res.Config.Log.Level != "error" || res.Config.Log.MaxFiles != 7 {
		t.Fatalf("merge order wrong: %#v", res.Config.Log)
	}
	if _, err := res.Config.Window("tool"); err != nil {
		t.Fatalf("included preset missing: %v", err)
	}
	if len(res.Files) != 3 || !strings.HasSuffix(res.Files[2], "config.yaml") {
		t.Fatalf("files = %v", res.Files)
	}
}

func TestLoadFromPath_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "include: b.yaml\n")
	writeFile(t, filepath.Join(dir, "b.yaml"), "include: a.yaml\n")
	_, err := LoadFromPath(filepath.Join(dir, "a.yaml"))
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestParse_RejectsInclude(t *testing.T) {
	if _, err := Parse([]byte("include: other.yaml\n")); err == nil {
		t.Fatalf("expected error")
	}
	cfg, err := Parse([]byte("backend: glfw\n"))
	if err != nil || cfg.Backend != "glfw" {
		t.Fatalf("Parse = %#v, %v", cfg, err)
	}
}

func TestExplain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "devices:\n  probe_timeout_ms: 900\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	v, src, err := Explain(res, "devices.probe_timeout_ms")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if v != 900 || src.Kind != SourceFile || src.Line != 2 {
		t.Fatalf("Explain = %v, %#v", v, src)
	}

	v, src, err = Explain(res, "log.level")
	if err != nil || v != "info" || src.Kind != SourceDefault {
		t.Fatalf("Explain(log.level) = %v, %#v, %v", v, src, err)
	}

	if _, _, err := Explain(res, "log.colour"); err == nil {
		t.Fatalf("expected unknown path error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "x11"
	cfg.Display = ":1"
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if res.Config.Backend != "x11" || res.Config.Display != ":1" {
		t.Fatalf("round trip lost values: %#v", res.Config)
	}
}
