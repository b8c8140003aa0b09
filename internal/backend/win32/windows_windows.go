package win32

import (
	"fmt"

	syscall "golang.org/x/sys/windows"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

func windowStyle(spec backend.WindowSpec) uint32 {
	style := uint32(_WS_POPUP)
	if spec.Decorated {
		style = _WS_OVERLAPPEDWINDOW
		if !spec.Resizable {
			style &^= _WS_THICKFRAME | _WS_MAXIMIZEBOX
		}
	}
	return style | _WS_CLIPSIBLINGS | _WS_CLIPCHILDREN
}

func (b *Backend) CreateWindow(spec backend.WindowSpec) (backend.WindowInfo, error) {
	style := windowStyle(spec)
	exStyle := uint32(_WS_EX_APPWINDOW | _WS_EX_WINDOWEDGE)

	wr := rect{right: int32(spec.Width), bottom: int32(spec.Height)}
	adjustWindowRectEx(&wr, style, 0, exStyle)
	x, y := int32(_CW_USEDEFAULT), int32(_CW_USEDEFAULT)
	if spec.Positioned {
		x, y = int32(spec.X)+wr.left, int32(spec.Y)+wr.top
	}

	hwnd, err := createWindowEx(exStyle,
		b.class,
		spec.Title,
		style,
		x, y,
		wr.right-wr.left,
		wr.bottom-wr.top,
		0,
		0,
		b.hInst,
		0)
	if err != nil {
		return backend.WindowInfo{}, err
	}
	hdc, err := getDC(hwnd)
	if err != nil {
		destroyWindow(hwnd)
		return backend.WindowInfo{}, err
	}

	w := &window{spec: spec, hdc: hdc, style: style, exStyle: exStyle}
	b.mu.Lock()
	b.windows[hwnd] = w
	b.mu.Unlock()
	hwndMu.Lock()
	winMap[hwnd] = b
	hwndMu.Unlock()

	state := event.StateNormal
	if spec.Fullscreen {
		if err := b.enterFullscreen(hwnd); err != nil {
			b.logger.Warn("fullscreen request failed", "error", err)
		} else {
			state = event.StateFullscreen
		}
	}
	if spec.Visible {
		showWindow(hwnd, _SW_SHOW)
	}

	return backend.WindowInfo{
		Native:   uintptr(hwnd),
		Geometry: b.geometry(hwnd),
		State:    state,
	}, nil
}

func (b *Backend) DestroyWindow(native uintptr) error {
	hwnd := syscall.Handle(native)
	b.mu.Lock()
	w, ok := b.windows[hwnd]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("no window %#x", native)
	}
	b.forget(hwnd)
	releaseDC(hwnd, w.hdc)
	return destroyWindow(hwnd)
}

// forget stops routing messages for hwnd and reports whether it was owned.
func (b *Backend) forget(hwnd syscall.Handle) bool {
	hwndMu.Lock()
	delete(winMap, hwnd)
	hwndMu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[hwnd]
	if !ok {
		return false
	}
	b.hideCursor(w, false)
	delete(b.windows, hwnd)
	return true
}

// SetCursorVisible drives the thread's cursor display counter. The counter
// is shared by every window, so the cursor stays hidden while any window
// has it hidden.
func (b *Backend) SetCursorVisible(native uintptr, visible bool) error {
	_, w, err := b.lookup(native)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.hideCursor(w, !visible)
	b.mu.Unlock()
	return nil
}

// hideCursor records w's cursor request and calls ShowCursor when the
// number of hiding windows crosses zero. b.mu must be held.
func (b *Backend) hideCursor(w *window, hidden bool) {
	if w.cursorHidden == hidden {
		return
	}
	w.cursorHidden = hidden
	if hidden {
		b.hidingCursor++
		if b.hidingCursor == 1 {
			showCursor(false)
		}
		return
	}
	b.hidingCursor--
	if b.hidingCursor == 0 {
		showCursor(true)
	}
}

func (b *Backend) lookup(native uintptr) (syscall.Handle, *window, error) {
	hwnd := syscall.Handle(native)
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[hwnd]
	if !ok {
		return 0, nil, fmt.Errorf("no window %#x", native)
	}
	return hwnd, w, nil
}

func (b *Backend) SetWindowState(native uintptr, state event.WindowState) error {
	hwnd, w, err := b.lookup(native)
	if err != nil {
		return err
	}
	b.mu.Lock()
	fullscreen := w.fullscreen
	b.mu.Unlock()

	switch state {
	case event.StateMinimized:
		showWindow(hwnd, _SW_MINIMIZE)
	case event.StateMaximized:
		if fullscreen {
			b.exitFullscreen(hwnd)
		}
		showWindow(hwnd, _SW_MAXIMIZE)
	case event.StateNormal:
		if fullscreen {
			b.exitFullscreen(hwnd)
			b.push(backend.Notification{Kind: backend.NotifyWindowState, Window: native, State: event.StateNormal})
			return nil
		}
		showWindow(hwnd, _SW_RESTORE)
	case event.StateFullscreen:
		if fullscreen {
			return nil
		}
		if err := b.enterFullscreen(hwnd); err != nil {
			return err
		}
		b.push(backend.Notification{Kind: backend.NotifyWindowState, Window: native, State: event.StateFullscreen})
	default:
		return fmt.Errorf("unsupported window state %s", state)
	}
	return nil
}

// enterFullscreen turns the window into a borderless popup covering its
// monitor, remembering the frame to restore.
func (b *Backend) enterFullscreen(hwnd syscall.Handle) error {
	mi, err := getMonitorInfo(hwnd)
	if err != nil {
		return err
	}
	b.mu.Lock()
	w := b.windows[hwnd]
	getWindowRect(hwnd, &w.restore)
	w.fullscreen = true
	style := w.style
	b.mu.Unlock()

	setWindowLong(hwnd, _GWL_STYLE, style&^_WS_OVERLAPPEDWINDOW|_WS_POPUP)
	r := mi.rcMonitor
	return setWindowPos(hwnd, r.left, r.top, r.right-r.left, r.bottom-r.top, _SWP_NOOWNERZORDER|_SWP_FRAMECHANGED)
}

func (b *Backend) exitFullscreen(hwnd syscall.Handle) {
	b.mu.Lock()
	w := b.windows[hwnd]
	w.fullscreen = false
	style, r := w.style, w.restore
	b.mu.Unlock()

	setWindowLong(hwnd, _GWL_STYLE, style)
	if err := setWindowPos(hwnd, r.left, r.top, r.right-r.left, r.bottom-r.top, _SWP_NOZORDER|_SWP_NOOWNERZORDER|_SWP_FRAMECHANGED); err != nil {
		b.logger.Warn("failed to restore window frame", "error", err)
	}
}

func (b *Backend) SetWindowTitle(native uintptr, title string) error {
	hwnd, _, err := b.lookup(native)
	if err != nil {
		return err
	}
	return setWindowText(hwnd, title)
}

// SetWindowGeometry places the client area; the frame is added around it.
func (b *Backend) SetWindowGeometry(native uintptr, x, y, width, height int) error {
	hwnd, w, err := b.lookup(native)
	if err != nil {
		return err
	}
	wr := rect{right: int32(width), bottom: int32(height)}
	adjustWindowRectEx(&wr, w.style, 0, w.exStyle)
	return setWindowPos(hwnd,
		int32(x)+wr.left, int32(y)+wr.top,
		wr.right-wr.left, wr.bottom-wr.top,
		_SWP_NOZORDER|_SWP_NOACTIVATE)
}

func (b *Backend) FocusWindow(native uintptr) error {
	hwnd, _, err := b.lookup(native)
	if err != nil {
		return err
	}
	setForegroundWindow(hwnd)
	setFocus(hwnd)
	return nil
}

func (b *Backend) WindowAlive(native uintptr) (bool, error) {
	return isWindow(syscall.Handle(native)), nil
}

// MinSize is the smallest tracking size of a framed window; popups have no
// OS minimum.
func (b *Backend) MinSize(decorated bool) (int, int) {
	if !decorated {
		return 1, 1
	}
	return getSystemMetrics(_SM_CXMINTRACK), getSystemMetrics(_SM_CYMINTRACK)
}

func (b *Backend) Scale(native uintptr) float64 {
	return float64(getDpiForWindow(syscall.Handle(native))) / _USER_DEFAULT_SCREEN_DPI
}
