package backend

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/platlayer/internal/event"
	"github.com/1broseidon/platlayer/internal/perr"
)

// Options is passed to a variant when it is opened.
type Options struct {
	// Display overrides the display connection string, such as an X11 display.
	Display string
	Clock   *event.Clock
	Logger  *slog.Logger
	// HotplugDevices asks the backend to attach its device source.
	HotplugDevices bool
	// FormatHint and ContextHint are used by backends that must fix the
	// framebuffer and context when a window is created.
	FormatHint  PixelFormat
	ContextHint ContextSettings
}

// Variant is a named backend implementation.
type Variant struct {
	Name string
	// Priority orders automatic selection, highest first.
	Priority int
	// Available reports whether the variant can run in this environment.
	Available func(opts Options) bool
	Open      func(opts Options) (Backend, error)
}

var (
	variantsMu sync.RWMutex
	variants   = make(map[string]Variant)
)

// Register makes a variant selectable. It panics on a duplicate name or a
// variant without an Open function.
func Register(v Variant) {
	variantsMu.Lock()
	defer variantsMu.Unlock()
	if v.Open == nil {
		panic("backend: Register with nil Open for " + v.Name)
	}
	if _, dup := variants[v.Name]; dup {
		panic("backend: Register called twice for " + v.Name)
	}
	variants[v.Name] = v
}

// Variants returns the registered variants, highest priority first.
func Variants() []Variant {
	variantsMu.RLock()
	defer variantsMu.RUnlock()
	out := make([]Variant, 0, len(variants))
	for _, v := range variants {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Select opens the preferred variant, or with preference "" or "auto" the
// highest-priority variant that is available and opens successfully.
func Select(preference string, opts Options) (Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if preference != "" && preference != "auto" {
		variantsMu.RLock()
		v, ok := variants[preference]
		variantsMu.RUnlock()
		if !ok {
			return nil, perr.Invalid("select backend", "unknown backend %q", preference)
		}
		b, err := v.Open(opts)
		if err != nil {
			return nil, perr.Platform("open backend "+v.Name, err)
		}
		return b, nil
	}

	var lastErr error
	for _, v := range Variants() {
		if v.Available != nil && !v.Available(opts) {
			logger.Debug("backend unavailable", "backend", v.Name)
			continue
		}
		b, err := v.Open(opts)
		if err != nil {
			logger.Warn("backend failed to open", "backend", v.Name, "error", err)
			lastErr = err
			continue
		}
		logger.Info("backend selected", "backend", v.Name)
		return b, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no backend available")
	}
	return nil, perr.Platform("select backend", lastErr)
}
