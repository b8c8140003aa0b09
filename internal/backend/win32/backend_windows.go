package win32

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	syscall "golang.org/x/sys/windows"

	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/event"
)

// Name is the variant name.
const Name = "win32"

func init() {
	backend.Register(backend.Variant{
		Name:      Name,
		Priority:  20,
		Available: func(backend.Options) bool { return true },
		Open: func(opts backend.Options) (backend.Backend, error) {
			return Open(opts)
		},
	})
}

var (
	procOnce sync.Once
	wndProc  uintptr
	classSeq atomic.Int64

	// hwndMu guards winMap, which routes window messages to their backend.
	hwndMu sync.Mutex
	winMap = make(map[syscall.Handle]*Backend)
)

type window struct {
	spec       backend.WindowSpec
	hdc        syscall.Handle
	style      uint32
	exStyle    uint32
	fullscreen bool
	// restore is the outer window rect before entering fullscreen.
	restore rect
	hovered bool
	// cursorHidden is set while SetCursorVisible(false) is in effect.
	cursorHidden bool
	// format is the pixel format index once a context was created.
	format int32
}

// Backend is the Win32 backend.
type Backend struct {
	logger *slog.Logger
	seq    *backend.Sequencer
	hInst  syscall.Handle
	class  uint16
	wake   syscall.Handle

	mu      sync.Mutex
	pending []backend.Notification
	windows map[syscall.Handle]*window
	// hidingCursor counts windows with a hidden cursor.
	hidingCursor int

	glMu     sync.Mutex
	contexts map[uintptr]*wglContext

	devices *RawInputSource
}

var (
	_ backend.Backend = (*Backend)(nil)
	_ backend.Keymap  = (*Backend)(nil)
	_ backend.Cursor  = (*Backend)(nil)
)

// Open registers the window class. Call it from the thread that will own
// the windows.
func Open(opts backend.Options) (*Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	setProcessDPIAware()

	hInst, err := getModuleHandle()
	if err != nil {
		return nil, err
	}
	curs, err := loadCursor(_IDC_ARROW)
	if err != nil {
		return nil, err
	}
	procOnce.Do(func() {
		wndProc = syscall.NewCallback(windowProc)
	})
	wcls := wndClassEx{
		cbSize:        uint32(unsafe.Sizeof(wndClassEx{})),
		style:         _CS_HREDRAW | _CS_VREDRAW | _CS_OWNDC,
		lpfnWndProc:   wndProc,
		hInstance:     hInst,
		hCursor:       curs,
		lpszClassName: syscall.StringToUTF16Ptr(fmt.Sprintf("PlatlayerWindow%d", classSeq.Add(1))),
	}
	cls, err := registerClassEx(&wcls)
	if err != nil {
		return nil, err
	}

	wake, err := syscall.CreateEvent(nil, 0, 0, nil)
	if err != nil {
		unregisterClass(cls, hInst)
		return nil, fmt.Errorf("failed to create wake event: %w", err)
	}

	b := &Backend{
		logger:   logger.With("backend", Name),
		seq:      backend.NewSequencer(Name, opts.Clock),
		hInst:    hInst,
		class:    cls,
		wake:     wake,
		windows:  make(map[syscall.Handle]*window),
		contexts: make(map[uintptr]*wglContext),
	}
	if opts.HotplugDevices {
		b.devices = NewRawInputSource(opts.Clock, logger)
	}
	return b, nil
}

func (b *Backend) Name() string { return Name }

func (b *Backend) Devices() backend.DeviceSource {
	if b.devices == nil {
		return nil
	}
	return b.devices
}

func (b *Backend) Close() error {
	b.mu.Lock()
	hwnds := make([]syscall.Handle, 0, len(b.windows))
	for hwnd := range b.windows {
		hwnds = append(hwnds, hwnd)
	}
	b.mu.Unlock()
	for _, hwnd := range hwnds {
		b.DestroyWindow(uintptr(hwnd))
	}
	unregisterClass(b.class, b.hInst)
	return syscall.CloseHandle(b.wake)
}

func (b *Backend) push(n backend.Notification) {
	b.mu.Lock()
	b.pending = append(b.pending, b.seq.Stamp(n))
	b.mu.Unlock()
}

// PollNative dispatches every queued message of the calling thread; the
// window procedure collects notifications while it runs.
func (b *Backend) PollNative() ([]backend.Notification, error) {
	var m msg
	for peekMessage(&m, 0, 0, 0, _PM_REMOVE) {
		translateMessage(&m)
		dispatchMessage(&m)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out, nil
}

func (b *Backend) WaitNative(timeout time.Duration) error {
	b.mu.Lock()
	ready := len(b.pending) > 0
	b.mu.Unlock()
	if ready {
		return nil
	}

	millis := uint32(_INFINITE)
	if timeout >= 0 {
		millis = uint32(timeout / time.Millisecond)
	}
	handles := []syscall.Handle{b.wake}
	_, err := msgWaitForMultipleObjectsEx(1, uintptr(unsafe.Pointer(&handles[0])), millis, _QS_ALLINPUT, _MWMO_INPUTAVAILABLE)
	return err
}

// Interrupt signals the auto-reset wake event, which stays set until a
// wait consumes it.
func (b *Backend) Interrupt() {
	syscall.SetEvent(b.wake)
}

func windowProc(hwnd syscall.Handle, msg uint32, wParam, lParam uintptr) uintptr {
	hwndMu.Lock()
	b := winMap[hwnd]
	hwndMu.Unlock()
	if b == nil {
		return defWindowProc(hwnd, msg, wParam, lParam)
	}
	if handled := b.handle(hwnd, msg, wParam, lParam); handled {
		return 0
	}
	return defWindowProc(hwnd, msg, wParam, lParam)
}

// handle turns one message into notifications. It reports whether the
// default window procedure must be skipped.
func (b *Backend) handle(hwnd syscall.Handle, msg uint32, wParam, lParam uintptr) bool {
	native := uintptr(hwnd)
	switch msg {
	case _WM_CLOSE:
		// The window stays until the application closes it.
		b.push(backend.Notification{Kind: backend.NotifyWindowCloseRequested, Window: native})
		return true
	case _WM_DESTROY:
		if b.forget(hwnd) {
			b.push(backend.Notification{Kind: backend.NotifyWindowDestroyed, Window: native})
		}
	case _WM_MOVE:
		b.push(backend.Notification{Kind: backend.NotifyWindowGeometry, Window: native, Geometry: b.geometry(hwnd)})
	case _WM_SIZE:
		b.mu.Lock()
		fullscreen := false
		if w, ok := b.windows[hwnd]; ok {
			fullscreen = w.fullscreen
		}
		b.mu.Unlock()
		if state, ok := sizeState(wParam, fullscreen); ok {
			b.push(backend.Notification{Kind: backend.NotifyWindowState, Window: native, State: state})
		}
		if wParam != _SIZE_MINIMIZED {
			b.push(backend.Notification{Kind: backend.NotifyWindowGeometry, Window: native, Geometry: b.geometry(hwnd)})
		}
	case _WM_DPICHANGED:
		b.push(backend.Notification{Kind: backend.NotifyWindowGeometry, Window: native, Geometry: b.geometry(hwnd)})
	case _WM_SETFOCUS, _WM_KILLFOCUS:
		b.push(backend.Notification{Kind: backend.NotifyWindowFocus, Window: native, Focused: msg == _WM_SETFOCUS})
	case _WM_SHOWWINDOW:
		b.push(backend.Notification{Kind: backend.NotifyWindowVisibility, Window: native, Visible: wParam != 0})
	default:
		n, ok := inputNotification(msg, wParam, lParam, keyModifiers())
		if !ok {
			return false
		}
		n.Window = native
		switch n.Kind {
		case backend.NotifyPointerScroll:
			x, y := coordsFromlParam(lParam)
			p := point{x: int32(x), y: int32(y)}
			screenToClient(hwnd, &p)
			n.Position = event.Point{X: float64(p.x), Y: float64(p.y)}
			n.HasPosition = true
		case backend.NotifyPointerMotion:
			if b.startHover(hwnd) {
				trackMouseLeave(hwnd)
				enter := n
				enter.Kind = backend.NotifyPointerEnter
				b.push(enter)
			}
		case backend.NotifyPointerLeave:
			b.endHover(hwnd)
		}
		b.push(n)
		// Let the system see ALT and F10 so the window menu keeps working.
		return msg != _WM_SYSKEYDOWN && msg != _WM_SYSKEYUP
	}
	return false
}

func (b *Backend) startHover(hwnd syscall.Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[hwnd]
	if !ok || w.hovered {
		return false
	}
	w.hovered = true
	return true
}

func (b *Backend) endHover(hwnd syscall.Handle) {
	b.mu.Lock()
	if w, ok := b.windows[hwnd]; ok {
		w.hovered = false
	}
	b.mu.Unlock()
}

func keyModifiers() event.Modifiers {
	var m event.Modifiers
	if getKeyState(_VK_SHIFT)&-0x8000 != 0 {
		m |= event.ModShift
	}
	if getKeyState(_VK_CONTROL)&-0x8000 != 0 {
		m |= event.ModCtrl
	}
	if getKeyState(_VK_MENU)&-0x8000 != 0 {
		m |= event.ModAlt
	}
	if (getKeyState(_VK_LWIN)|getKeyState(_VK_RWIN))&-0x8000 != 0 {
		m |= event.ModSuper
	}
	if getKeyState(_VK_CAPITAL)&1 != 0 {
		m |= event.ModCapsLock
	}
	if getKeyState(_VK_NUMLOCK)&1 != 0 {
		m |= event.ModNumLock
	}
	return m
}

// geometry reads the client area in screen coordinates.
func (b *Backend) geometry(hwnd syscall.Handle) event.Geometry {
	var r rect
	getClientRect(hwnd, &r)
	origin := point{}
	clientToScreen(hwnd, &origin)
	return event.Geometry{
		X:     int(origin.x),
		Y:     int(origin.y),
		Size:  event.Size{Width: int(r.right - r.left), Height: int(r.bottom - r.top)},
		Scale: float64(getDpiForWindow(hwnd)) / _USER_DEFAULT_SCREEN_DPI,
	}
}

func (b *Backend) Key(sc event.Scancode) (event.Key, bool) {
	set1, extended, ok := fromEvdev(sc)
	if !ok {
		return event.KeyUnknown, false
	}
	code := uint32(set1)
	if extended {
		code |= 0xe000
	}
	vk := mapVirtualKey(code, _MAPVK_VSC_TO_VK_EX)
	if vk == 0 {
		return event.KeyUnknown, false
	}
	return virtualKeyName(vk)
}

func (b *Backend) Scancode(k event.Key) (event.Scancode, bool) {
	for vk := uint32(1); vk < 0xff; vk++ {
		if name, ok := virtualKeyName(vk); !ok || name != k {
			continue
		}
		code := mapVirtualKey(vk, _MAPVK_VK_TO_VSC_EX)
		if code == 0 {
			return 0, false
		}
		return toEvdev(uint8(code), code&0xff00 == 0xe000)
	}
	return 0, false
}
