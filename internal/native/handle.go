// Package native wraps OS window, graphics-context and device-file handles.
//
// A Handle is owned by exactly one manager. It must not be copied; share the
// pointer instead. Raw panics once the handle has been destroyed or forgotten,
// so a dangling native id can never reach a backend call.
package native

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/platlayer/internal/perr"
)

// Kind names what a Handle refers to.
type Kind uint8

const (
	KindWindow Kind = iota + 1
	KindContext
	KindDevice
)

func (k Kind) String() string {
	switch k {
	case KindWindow:
		return "window"
	case KindContext:
		return "context"
	case KindDevice:
		return "device"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// DestroyFunc releases the native object behind a handle.
type DestroyFunc func(raw uintptr) error

// Handle is an opaque, non-copyable native resource.
// The embedded mutex lets go vet's copylocks check flag copies.
type Handle struct {
	kind    Kind
	raw     uintptr
	destroy DestroyFunc
	logger  *slog.Logger

	mu   sync.Mutex
	dead bool
}

// New wraps raw. destroy is called at most once, by Destroy.
func New(kind Kind, raw uintptr, destroy DestroyFunc, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{kind: kind, raw: raw, destroy: destroy, logger: logger}
}

// Kind returns what the handle refers to.
func (h *Handle) Kind() Kind { return h.kind }

// Raw returns the native value. Using a destroyed handle is a fatal
// precondition violation.
func (h *Handle) Raw() uintptr {
	h.mu.Lock()
	dead := h.dead
	h.mu.Unlock()
	if dead {
		perr.Violate(h.logger, "native.Raw", "use of destroyed %s handle %#x", h.kind, h.raw)
	}
	return h.raw
}

// Alive reports whether the native object is still owned.
func (h *Handle) Alive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.dead
}

// Destroy releases the native object. Later calls are no-ops.
func (h *Handle) Destroy() error {
	h.mu.Lock()
	if h.dead {
		h.mu.Unlock()
		return nil
	}
	h.dead = true
	h.mu.Unlock()

	if h.destroy == nil {
		return nil
	}
	if err := h.destroy(h.raw); err != nil {
		return fmt.Errorf("failed to destroy %s %#x: %w", h.kind, h.raw, err)
	}
	return nil
}

// Forget marks the handle dead without calling destroy. It is used when the
// OS has already destroyed the object behind our back.
func (h *Handle) Forget() {
	h.mu.Lock()
	h.dead = true
	h.mu.Unlock()
}

// Matches reports whether the handle is alive and wraps raw.
func (h *Handle) Matches(raw uintptr) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.dead && h.raw == raw
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s:%#x", h.kind, h.raw)
}
