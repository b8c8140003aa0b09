//go:build glfw

package desktop

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

func boolHint(v bool) int {
	if v {
		return glfw.True
	}
	return glfw.False
}

func (b *Backend) windowHints(spec backend.WindowSpec) {
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Resizable, boolHint(spec.Resizable))
	glfw.WindowHint(glfw.Decorated, boolHint(spec.Decorated))
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ScaleToMonitor, glfw.True)

	glfw.WindowHint(glfw.RedBits, b.format.RedBits)
	glfw.WindowHint(glfw.GreenBits, b.format.GreenBits)
	glfw.WindowHint(glfw.BlueBits, b.format.BlueBits)
	glfw.WindowHint(glfw.AlphaBits, b.format.AlphaBits)
	glfw.WindowHint(glfw.DepthBits, b.format.DepthBits)
	glfw.WindowHint(glfw.StencilBits, b.format.StencilBits)
	glfw.WindowHint(glfw.Samples, b.format.Samples)
	glfw.WindowHint(glfw.SRGBCapable, boolHint(b.format.SRGB))
	glfw.WindowHint(glfw.DoubleBuffer, boolHint(b.format.DoubleBuffer))

	s := b.context
	if s.Profile == backend.ProfileES {
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLESAPI)
	} else {
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
	}
	if s.Major > 0 {
		glfw.WindowHint(glfw.ContextVersionMajor, s.Major)
		glfw.WindowHint(glfw.ContextVersionMinor, s.Minor)
	}
	switch s.Profile {
	case backend.ProfileCore:
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	case backend.ProfileCompat:
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCompatProfile)
	}
	glfw.WindowHint(glfw.OpenGLDebugContext, boolHint(s.Debug))
}

func (b *Backend) CreateWindow(spec backend.WindowSpec) (backend.WindowInfo, error) {
	b.windowHints(spec)

	width, height := spec.Width, spec.Height
	var monitor *glfw.Monitor
	if spec.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
		if mode := monitor.GetVideoMode(); mode != nil {
			width, height = mode.Width, mode.Height
		}
	}
	gw, err := glfw.CreateWindow(width, height, spec.Title, monitor, nil)
	if err != nil {
		return backend.WindowInfo{}, fmt.Errorf("failed to create glfw window: %w", err)
	}

	b.mu.Lock()
	native := b.nextNative
	b.nextNative++
	w := &window{gw: gw, spec: spec, fullscreen: spec.Fullscreen}
	if spec.Fullscreen {
		w.restore = [4]int{spec.X, spec.Y, spec.Width, spec.Height}
	}
	b.windows[native] = w
	b.natives[gw] = native
	b.mu.Unlock()

	if spec.Positioned && !spec.Fullscreen {
		gw.SetPos(spec.X, spec.Y)
	}
	b.installCallbacks(gw)
	if spec.Visible {
		gw.Show()
		b.push(backend.Notification{Kind: backend.NotifyWindowVisibility, Window: native, Visible: true})
	}

	state := event.StateNormal
	if spec.Fullscreen {
		state = event.StateFullscreen
	}
	return backend.WindowInfo{Native: native, Geometry: geometry(gw), State: state}, nil
}

// geometry reports the framebuffer in physical pixels. GLFW positions are
// in screen coordinates, which differ from pixels only on macOS.
func geometry(gw *glfw.Window) event.Geometry {
	x, y := gw.GetPos()
	fw, fh := gw.GetFramebufferSize()
	sx, _ := gw.GetContentScale()
	scale := float64(sx)
	if scale <= 0 {
		scale = 1
	}
	return event.Geometry{X: x, Y: y, Size: event.Size{Width: fw, Height: fh}, Scale: scale}
}

// pixelRatio converts screen coordinates to framebuffer pixels.
func pixelRatio(gw *glfw.Window) float64 {
	w, _ := gw.GetSize()
	fw, _ := gw.GetFramebufferSize()
	if w == 0 {
		return 1
	}
	return float64(fw) / float64(w)
}

func (b *Backend) installCallbacks(gw *glfw.Window) {
	gw.SetPosCallback(func(gw *glfw.Window, _, _ int) {
		b.notify(gw, backend.Notification{Kind: backend.NotifyWindowGeometry, Geometry: geometry(gw)})
	})
	gw.SetFramebufferSizeCallback(func(gw *glfw.Window, _, _ int) {
		b.notify(gw, backend.Notification{Kind: backend.NotifyWindowGeometry, Geometry: geometry(gw)})
	})
	gw.SetContentScaleCallback(func(gw *glfw.Window, _, _ float32) {
		b.notify(gw, backend.Notification{Kind: backend.NotifyWindowGeometry, Geometry: geometry(gw)})
	})
	gw.SetCloseCallback(func(gw *glfw.Window) {
		// The window stays until the application closes it.
		gw.SetShouldClose(false)
		b.notify(gw, backend.Notification{Kind: backend.NotifyWindowCloseRequested})
	})
	gw.SetFocusCallback(func(gw *glfw.Window, focused bool) {
		b.notify(gw, backend.Notification{Kind: backend.NotifyWindowFocus, Focused: focused})
	})
	gw.SetIconifyCallback(func(gw *glfw.Window, iconified bool) {
		b.notify(gw, backend.Notification{Kind: backend.NotifyWindowState, State: b.stateOf(gw, iconified)})
	})
	gw.SetMaximizeCallback(func(gw *glfw.Window, _ bool) {
		b.notify(gw, backend.Notification{Kind: backend.NotifyWindowState, State: b.stateOf(gw, false)})
	})
	gw.SetKeyCallback(func(gw *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		name := keyName(key)
		sc, _ := event.DefaultScancode(name)
		b.notify(gw, backend.Notification{
			Kind:      backend.NotifyKey,
			Action:    keyAction(action),
			Scancode:  sc,
			Key:       name,
			Modifiers: modifiers(mods),
		})
	})
	gw.SetMouseButtonCallback(func(gw *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		btn := mouseButton(button)
		if btn == event.ButtonNone {
			return
		}
		x, y := gw.GetCursorPos()
		r := pixelRatio(gw)
		b.notify(gw, backend.Notification{
			Kind:        backend.NotifyPointerButton,
			Button:      btn,
			Pressed:     action == glfw.Press,
			Position:    event.Point{X: x * r, Y: y * r},
			HasPosition: true,
			Modifiers:   modifiers(mods),
		})
	})
	gw.SetCursorPosCallback(func(gw *glfw.Window, x, y float64) {
		r := pixelRatio(gw)
		b.notify(gw, backend.Notification{
			Kind:        backend.NotifyPointerMotion,
			Position:    event.Point{X: x * r, Y: y * r},
			HasPosition: true,
		})
	})
	gw.SetCursorEnterCallback(func(gw *glfw.Window, entered bool) {
		kind := backend.NotifyPointerLeave
		if entered {
			kind = backend.NotifyPointerEnter
		}
		b.notify(gw, backend.Notification{Kind: kind})
	})
	gw.SetScrollCallback(func(gw *glfw.Window, xoff, yoff float64) {
		b.notify(gw, backend.Notification{Kind: backend.NotifyPointerScroll, Scroll: event.Point{X: xoff, Y: yoff}})
	})
}

// notify attributes n to gw and queues it. Callbacks for windows already
// destroyed are dropped.
func (b *Backend) notify(gw *glfw.Window, n backend.Notification) {
	b.mu.Lock()
	native, ok := b.natives[gw]
	b.mu.Unlock()
	if !ok {
		return
	}
	n.Window = native
	b.push(n)
}

func (b *Backend) stateOf(gw *glfw.Window, iconified bool) event.WindowState {
	b.mu.Lock()
	w := b.windows[b.natives[gw]]
	b.mu.Unlock()
	switch {
	case iconified:
		return event.StateMinimized
	case w != nil && w.fullscreen:
		return event.StateFullscreen
	case gw.GetAttrib(glfw.Maximized) == glfw.True:
		return event.StateMaximized
	default:
		return event.StateNormal
	}
}

func (b *Backend) lookup(native uintptr) (*window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[native]
	if !ok {
		return nil, fmt.Errorf("no window %d", native)
	}
	return w, nil
}

func (b *Backend) DestroyWindow(native uintptr) error {
	b.mu.Lock()
	w, ok := b.windows[native]
	if ok {
		delete(b.windows, native)
		delete(b.natives, w.gw)
		if w.ctx != 0 {
			delete(b.contexts, w.ctx)
			if b.current == w.ctx {
				b.current = 0
			}
		}
	}
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("no window %d", native)
	}
	w.gw.Destroy()
	return nil
}

func (b *Backend) SetWindowState(native uintptr, state event.WindowState) error {
	w, err := b.lookup(native)
	if err != nil {
		return err
	}
	switch state {
	case event.StateMinimized:
		w.gw.Iconify()
	case event.StateMaximized:
		if w.fullscreen {
			b.exitFullscreen(w)
		}
		w.gw.Maximize()
	case event.StateNormal:
		if w.fullscreen {
			b.exitFullscreen(w)
			b.push(backend.Notification{Kind: backend.NotifyWindowState, Window: native, State: event.StateNormal})
			return nil
		}
		w.gw.Restore()
	case event.StateFullscreen:
		if w.fullscreen {
			return nil
		}
		monitor := glfw.GetPrimaryMonitor()
		mode := monitor.GetVideoMode()
		if mode == nil {
			return fmt.Errorf("primary monitor has no video mode")
		}
		x, y := w.gw.GetPos()
		width, height := w.gw.GetSize()
		b.mu.Lock()
		w.fullscreen = true
		w.restore = [4]int{x, y, width, height}
		b.mu.Unlock()
		w.gw.SetMonitor(monitor, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
		b.push(backend.Notification{Kind: backend.NotifyWindowState, Window: native, State: event.StateFullscreen})
	default:
		return fmt.Errorf("unsupported window state %s", state)
	}
	return nil
}

func (b *Backend) exitFullscreen(w *window) {
	b.mu.Lock()
	w.fullscreen = false
	r := w.restore
	b.mu.Unlock()
	w.gw.SetMonitor(nil, r[0], r[1], r[2], r[3], 0)
}

func (b *Backend) SetWindowTitle(native uintptr, title string) error {
	w, err := b.lookup(native)
	if err != nil {
		return err
	}
	w.gw.SetTitle(title)
	return nil
}

// SetWindowGeometry takes the size in pixels and converts it to screen
// coordinates for GLFW.
func (b *Backend) SetWindowGeometry(native uintptr, x, y, width, height int) error {
	w, err := b.lookup(native)
	if err != nil {
		return err
	}
	r := pixelRatio(w.gw)
	w.gw.SetPos(x, y)
	w.gw.SetSize(int(float64(width)/r), int(float64(height)/r))
	return nil
}

func (b *Backend) FocusWindow(native uintptr) error {
	w, err := b.lookup(native)
	if err != nil {
		return err
	}
	w.gw.Focus()
	return nil
}

func (b *Backend) SetCursorVisible(native uintptr, visible bool) error {
	w, err := b.lookup(native)
	if err != nil {
		return err
	}
	mode := glfw.CursorNormal
	if !visible {
		mode = glfw.CursorHidden
	}
	w.gw.SetInputMode(glfw.CursorMode, mode)
	return nil
}

// WindowAlive is true while the window is registered; GLFW windows only
// go away through DestroyWindow.
func (b *Backend) WindowAlive(native uintptr) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.windows[native]
	return ok, nil
}

func (b *Backend) MinSize(bool) (int, int) { return 1, 1 }

func (b *Backend) Scale(native uintptr) float64 {
	w, err := b.lookup(native)
	if err != nil {
		return 1
	}
	return geometry(w.gw).Scale
}
