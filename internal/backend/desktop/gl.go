//go:build glfw

package desktop

import (
	"errors"
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/1broseidon/platlayer/internal/backend"
)

// formatID is the only candidate a window offers: the framebuffer it was
// created with.
const formatID = 1

var errNotCurrent = errors.New("context is not current")

func (b *Backend) PixelFormats(window uintptr) ([]backend.FormatCandidate, error) {
	if _, err := b.lookup(window); err != nil {
		return nil, err
	}
	return []backend.FormatCandidate{{ID: formatID, Format: b.format}}, nil
}

// CreateContext hands out the window's own context. Version and profile
// requests beyond what the window was created with are not supported.
func (b *Backend) CreateContext(window uintptr, format backend.FormatCandidate, settings backend.ContextSettings) (uintptr, error) {
	w, err := b.lookup(window)
	if err != nil {
		return 0, err
	}
	if format.ID != formatID {
		return 0, fmt.Errorf("unknown pixel format %d", format.ID)
	}
	if err := contextSatisfies(w.gw, settings); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if w.ctx != 0 {
		return 0, fmt.Errorf("window %d already has a context: %w", window, backend.ErrNotSupported)
	}
	ctx := b.nextNative
	b.nextNative++
	w.ctx = ctx
	b.contexts[ctx] = window
	return ctx, nil
}

func contextSatisfies(gw *glfw.Window, settings backend.ContextSettings) error {
	major := gw.GetAttrib(glfw.ContextVersionMajor)
	minor := gw.GetAttrib(glfw.ContextVersionMinor)
	if settings.Major > major || (settings.Major == major && settings.Minor > minor) {
		return fmt.Errorf("window context is %d.%d, %d.%d requested: %w",
			major, minor, settings.Major, settings.Minor, backend.ErrNotSupported)
	}
	api := gw.GetAttrib(glfw.ClientAPI)
	profile := gw.GetAttrib(glfw.OpenGLProfile)
	switch settings.Profile {
	case backend.ProfileES:
		if api != glfw.OpenGLESAPI {
			return fmt.Errorf("window context is not OpenGL ES: %w", backend.ErrNotSupported)
		}
	case backend.ProfileCore:
		if profile != glfw.OpenGLCoreProfile {
			return fmt.Errorf("window context is not a core profile: %w", backend.ErrNotSupported)
		}
	case backend.ProfileCompat:
		if profile == glfw.OpenGLCoreProfile {
			return fmt.Errorf("window context is a core profile: %w", backend.ErrNotSupported)
		}
	}
	if settings.Debug && gw.GetAttrib(glfw.OpenGLDebugContext) != glfw.True {
		return fmt.Errorf("window context has no debug flag: %w", backend.ErrNotSupported)
	}
	return nil
}

func (b *Backend) contextWindow(ctx uintptr) (*window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	native, ok := b.contexts[ctx]
	if !ok {
		return nil, fmt.Errorf("no context %d", ctx)
	}
	return b.windows[native], nil
}

func (b *Backend) MakeCurrent(ctx, window uintptr) error {
	w, err := b.contextWindow(ctx)
	if err != nil {
		return err
	}
	if w.ctx != ctx || b.nativeOf(w) != window {
		return fmt.Errorf("context %d is bound to another window: %w", ctx, backend.ErrNotSupported)
	}
	w.gw.MakeContextCurrent()
	b.mu.Lock()
	b.current = ctx
	b.mu.Unlock()
	return nil
}

func (b *Backend) nativeOf(w *window) uintptr {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.natives[w.gw]
}

func (b *Backend) ClearCurrent() error {
	glfw.DetachCurrentContext()
	b.mu.Lock()
	b.current = 0
	b.mu.Unlock()
	return nil
}

// DestroyContext releases the handle; the GL context itself lives until
// its window is destroyed.
func (b *Backend) DestroyContext(ctx uintptr) error {
	b.mu.Lock()
	native, ok := b.contexts[ctx]
	delete(b.contexts, ctx)
	current := b.current == ctx
	if current {
		b.current = 0
	}
	if w, live := b.windows[native]; live {
		w.ctx = 0
	}
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("no context %d", ctx)
	}
	if current {
		glfw.DetachCurrentContext()
	}
	return nil
}

func (b *Backend) SwapBuffers(ctx, window uintptr) error {
	w, err := b.contextWindow(ctx)
	if err != nil {
		return err
	}
	if b.nativeOf(w) != window {
		return fmt.Errorf("context %d is bound to another window: %w", ctx, backend.ErrNotSupported)
	}
	w.gw.SwapBuffers()
	return nil
}

func (b *Backend) SetSwapInterval(ctx, _ uintptr, interval int) error {
	b.mu.Lock()
	current := b.current == ctx
	b.mu.Unlock()
	if !current {
		return errNotCurrent
	}
	glfw.SwapInterval(interval)
	return nil
}
