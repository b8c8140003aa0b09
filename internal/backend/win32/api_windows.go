package win32

import (
	"fmt"
	"unsafe"

	syscall "golang.org/x/sys/windows"
)

type rect struct {
	left, top, right, bottom int32
}

type point struct {
	x, y int32
}

type wndClassEx struct {
	cbSize        uint32
	style         uint32
	lpfnWndProc   uintptr
	cnClsExtra    int32
	cbWndExtra    int32
	hInstance     syscall.Handle
	hIcon         syscall.Handle
	hCursor       syscall.Handle
	hbrBackground syscall.Handle
	lpszMenuName  *uint16
	lpszClassName *uint16
	hIconSm       syscall.Handle
}

type msg struct {
	hwnd     syscall.Handle
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

type monitorInfo struct {
	cbSize    uint32
	rcMonitor rect
	rcWork    rect
	dwFlags   uint32
}

type trackMouseEvent struct {
	cbSize      uint32
	dwFlags     uint32
	hwndTrack   syscall.Handle
	dwHoverTime uint32
}

const (
	_CS_HREDRAW = 0x0002
	_CS_VREDRAW = 0x0001
	_CS_OWNDC   = 0x0020

	_CW_USEDEFAULT = -2147483648

	_IDC_ARROW = 32512

	_GWL_STYLE = -16

	_MONITOR_DEFAULTTONEAREST = 2

	_SM_CXMINTRACK = 34
	_SM_CYMINTRACK = 35

	_SW_SHOW     = 5
	_SW_MINIMIZE = 6
	_SW_MAXIMIZE = 3
	_SW_RESTORE  = 9

	_SWP_NOZORDER      = 0x0004
	_SWP_NOACTIVATE    = 0x0010
	_SWP_FRAMECHANGED  = 0x0020
	_SWP_NOOWNERZORDER = 0x0200

	_TME_LEAVE = 0x00000002

	_VK_SHIFT   = 0x10
	_VK_CONTROL = 0x11
	_VK_MENU    = 0x12
	_VK_CAPITAL = 0x14
	_VK_LWIN    = 0x5B
	_VK_RWIN    = 0x5C
	_VK_NUMLOCK = 0x90

	_MAPVK_VK_TO_VSC_EX = 4
	_MAPVK_VSC_TO_VK_EX = 3

	_WS_CLIPCHILDREN     = 0x02000000
	_WS_CLIPSIBLINGS     = 0x04000000
	_WS_POPUP            = 0x80000000
	_WS_OVERLAPPED       = 0x00000000
	_WS_OVERLAPPEDWINDOW = _WS_OVERLAPPED | _WS_CAPTION | _WS_SYSMENU | _WS_THICKFRAME |
		_WS_MINIMIZEBOX | _WS_MAXIMIZEBOX
	_WS_CAPTION     = 0x00C00000
	_WS_SYSMENU     = 0x00080000
	_WS_THICKFRAME  = 0x00040000
	_WS_MINIMIZEBOX = 0x00020000
	_WS_MAXIMIZEBOX = 0x00010000

	_WS_EX_APPWINDOW  = 0x00040000
	_WS_EX_WINDOWEDGE = 0x00000100

	_QS_ALLINPUT = 0x04FF

	_MWMO_INPUTAVAILABLE = 0x0004

	_INFINITE = 0xFFFFFFFF

	_PM_REMOVE = 0x0001

	_USER_DEFAULT_SCREEN_DPI = 96
)

var (
	kernel32          = syscall.NewLazySystemDLL("kernel32.dll")
	_GetModuleHandleW = kernel32.NewProc("GetModuleHandleW")

	user32                       = syscall.NewLazySystemDLL("user32.dll")
	_AdjustWindowRectEx          = user32.NewProc("AdjustWindowRectEx")
	_ClientToScreen              = user32.NewProc("ClientToScreen")
	_CreateWindowEx              = user32.NewProc("CreateWindowExW")
	_DefWindowProc               = user32.NewProc("DefWindowProcW")
	_DestroyWindow               = user32.NewProc("DestroyWindow")
	_DispatchMessage             = user32.NewProc("DispatchMessageW")
	_GetClientRect               = user32.NewProc("GetClientRect")
	_GetDC                       = user32.NewProc("GetDC")
	_GetDpiForWindow             = user32.NewProc("GetDpiForWindow")
	_GetKeyState                 = user32.NewProc("GetKeyState")
	_GetMonitorInfo              = user32.NewProc("GetMonitorInfoW")
	_GetSystemMetrics            = user32.NewProc("GetSystemMetrics")
	_GetWindowRect               = user32.NewProc("GetWindowRect")
	_IsWindow                    = user32.NewProc("IsWindow")
	_LoadCursor                  = user32.NewProc("LoadCursorW")
	_MapVirtualKey               = user32.NewProc("MapVirtualKeyW")
	_MonitorFromWindow           = user32.NewProc("MonitorFromWindow")
	_MsgWaitForMultipleObjectsEx = user32.NewProc("MsgWaitForMultipleObjectsEx")
	_PeekMessage                 = user32.NewProc("PeekMessageW")
	_RegisterClassExW            = user32.NewProc("RegisterClassExW")
	_ReleaseDC                   = user32.NewProc("ReleaseDC")
	_ScreenToClient              = user32.NewProc("ScreenToClient")
	_SetFocus                    = user32.NewProc("SetFocus")
	_SetForegroundWindow         = user32.NewProc("SetForegroundWindow")
	_SetProcessDPIAware          = user32.NewProc("SetProcessDPIAware")
	_SetWindowLong               = user32.NewProc("SetWindowLongW")
	_SetWindowPos                = user32.NewProc("SetWindowPos")
	_SetWindowText               = user32.NewProc("SetWindowTextW")
	_ShowCursor                  = user32.NewProc("ShowCursor")
	_ShowWindow                  = user32.NewProc("ShowWindow")
	_TrackMouseEvent             = user32.NewProc("TrackMouseEvent")
	_TranslateMessage            = user32.NewProc("TranslateMessage")
	_UnregisterClass             = user32.NewProc("UnregisterClassW")

	gdi32                = syscall.NewLazySystemDLL("gdi32")
	_DescribePixelFormat = gdi32.NewProc("DescribePixelFormat")
	_SetPixelFormat      = gdi32.NewProc("SetPixelFormat")
	_SwapBuffers         = gdi32.NewProc("SwapBuffers")
)

func getModuleHandle() (syscall.Handle, error) {
	h, _, err := _GetModuleHandleW.Call(uintptr(0))
	if h == 0 {
		return 0, fmt.Errorf("GetModuleHandleW failed: %v", err)
	}
	return syscall.Handle(h), nil
}

func adjustWindowRectEx(r *rect, dwStyle uint32, bMenu int, dwExStyle uint32) {
	_AdjustWindowRectEx.Call(uintptr(unsafe.Pointer(r)), uintptr(dwStyle), uintptr(bMenu), uintptr(dwExStyle))
}

func clientToScreen(hwnd syscall.Handle, p *point) {
	_ClientToScreen.Call(uintptr(hwnd), uintptr(unsafe.Pointer(p)))
}

func createWindowEx(dwExStyle uint32, lpClassName uint16, lpWindowName string, dwStyle uint32, x, y, w, h int32, hWndParent, hMenu, hInstance syscall.Handle, lpParam uintptr) (syscall.Handle, error) {
	hwnd, _, err := _CreateWindowEx.Call(
		uintptr(dwExStyle),
		uintptr(lpClassName),
		uintptr(unsafe.Pointer(syscall.StringToUTF16Ptr(lpWindowName))),
		uintptr(dwStyle),
		uintptr(x), uintptr(y),
		uintptr(w), uintptr(h),
		uintptr(hWndParent),
		uintptr(hMenu),
		uintptr(hInstance),
		uintptr(lpParam))
	if hwnd == 0 {
		return 0, fmt.Errorf("CreateWindowEx failed: %v", err)
	}
	return syscall.Handle(hwnd), nil
}

func defWindowProc(hwnd syscall.Handle, msg uint32, wparam, lparam uintptr) uintptr {
	r, _, _ := _DefWindowProc.Call(uintptr(hwnd), uintptr(msg), wparam, lparam)
	return r
}

func destroyWindow(hwnd syscall.Handle) error {
	r, _, err := _DestroyWindow.Call(uintptr(hwnd))
	if r == 0 {
		return fmt.Errorf("DestroyWindow failed: %v", err)
	}
	return nil
}

func dispatchMessage(m *msg) {
	_DispatchMessage.Call(uintptr(unsafe.Pointer(m)))
}

func getClientRect(hwnd syscall.Handle, r *rect) {
	_GetClientRect.Call(uintptr(hwnd), uintptr(unsafe.Pointer(r)))
}

func getWindowRect(hwnd syscall.Handle, r *rect) {
	_GetWindowRect.Call(uintptr(hwnd), uintptr(unsafe.Pointer(r)))
}

func getDC(hwnd syscall.Handle) (syscall.Handle, error) {
	hdc, _, err := _GetDC.Call(uintptr(hwnd))
	if hdc == 0 {
		return 0, fmt.Errorf("GetDC failed: %v", err)
	}
	return syscall.Handle(hdc), nil
}

// getDpiForWindow falls back to 96 on systems without per-monitor DPI.
func getDpiForWindow(hwnd syscall.Handle) int {
	if _GetDpiForWindow.Find() != nil {
		return _USER_DEFAULT_SCREEN_DPI
	}
	r, _, _ := _GetDpiForWindow.Call(uintptr(hwnd))
	if r == 0 {
		return _USER_DEFAULT_SCREEN_DPI
	}
	return int(r)
}

func getKeyState(nVirtKey int32) int16 {
	c, _, _ := _GetKeyState.Call(uintptr(nVirtKey))
	return int16(c)
}

func getMonitorInfo(hwnd syscall.Handle) (monitorInfo, error) {
	mon, _, _ := _MonitorFromWindow.Call(uintptr(hwnd), _MONITOR_DEFAULTTONEAREST)
	mi := monitorInfo{cbSize: uint32(unsafe.Sizeof(monitorInfo{}))}
	r, _, err := _GetMonitorInfo.Call(mon, uintptr(unsafe.Pointer(&mi)))
	if r == 0 {
		return monitorInfo{}, fmt.Errorf("GetMonitorInfoW failed: %v", err)
	}
	return mi, nil
}

func getSystemMetrics(index int32) int {
	r, _, _ := _GetSystemMetrics.Call(uintptr(index))
	return int(int32(r))
}

func setWindowLong(hwnd syscall.Handle, index int32, value uint32) {
	_SetWindowLong.Call(uintptr(hwnd), uintptr(index), uintptr(value))
}

func isWindow(hwnd syscall.Handle) bool {
	r, _, _ := _IsWindow.Call(uintptr(hwnd))
	return r != 0
}

func loadCursor(curID uint16) (syscall.Handle, error) {
	h, _, err := _LoadCursor.Call(0, uintptr(curID))
	if h == 0 {
		return 0, fmt.Errorf("LoadCursorW failed: %v", err)
	}
	return syscall.Handle(h), nil
}

func mapVirtualKey(code, mapType uint32) uint32 {
	r, _, _ := _MapVirtualKey.Call(uintptr(code), uintptr(mapType))
	return uint32(r)
}

func msgWaitForMultipleObjectsEx(nCount uint32, pHandles uintptr, millis, mask, flags uint32) (uint32, error) {
	r, _, err := _MsgWaitForMultipleObjectsEx.Call(uintptr(nCount), pHandles, uintptr(millis), uintptr(mask), uintptr(flags))
	res := uint32(r)
	if res == 0xFFFFFFFF {
		return 0, fmt.Errorf("MsgWaitForMultipleObjectsEx failed: %v", err)
	}
	return res, nil
}

func peekMessage(m *msg, hwnd syscall.Handle, wMsgFilterMin, wMsgFilterMax, wRemoveMsg uint32) bool {
	r, _, _ := _PeekMessage.Call(uintptr(unsafe.Pointer(m)), uintptr(hwnd), uintptr(wMsgFilterMin), uintptr(wMsgFilterMax), uintptr(wRemoveMsg))
	return r != 0
}

func registerClassEx(cls *wndClassEx) (uint16, error) {
	a, _, err := _RegisterClassExW.Call(uintptr(unsafe.Pointer(cls)))
	if a == 0 {
		return 0, fmt.Errorf("RegisterClassExW failed: %v", err)
	}
	return uint16(a), nil
}

func releaseDC(hwnd, hdc syscall.Handle) {
	_ReleaseDC.Call(uintptr(hwnd), uintptr(hdc))
}

func screenToClient(hwnd syscall.Handle, p *point) {
	_ScreenToClient.Call(uintptr(hwnd), uintptr(unsafe.Pointer(p)))
}

// showCursor moves the display counter until the cursor is in the wanted
// state. ShowCursor returns the new counter; the cursor is shown while it
// is non-negative.
func showCursor(show bool) {
	var arg uintptr
	if show {
		arg = 1
	}
	for range 16 {
		r, _, _ := _ShowCursor.Call(arg)
		count := int32(r)
		if show == (count >= 0) {
			return
		}
	}
}

func setFocus(hwnd syscall.Handle) {
	_SetFocus.Call(uintptr(hwnd))
}

func setForegroundWindow(hwnd syscall.Handle) {
	_SetForegroundWindow.Call(uintptr(hwnd))
}

func setProcessDPIAware() {
	_SetProcessDPIAware.Call()
}

func setWindowPos(hwnd syscall.Handle, x, y, w, h int32, flags uint32) error {
	r, _, err := _SetWindowPos.Call(uintptr(hwnd), _HWND_TOP, uintptr(x), uintptr(y), uintptr(w), uintptr(h), uintptr(flags))
	if r == 0 {
		return fmt.Errorf("SetWindowPos failed: %v", err)
	}
	return nil
}

func setWindowText(hwnd syscall.Handle, text string) error {
	p, err := syscall.UTF16PtrFromString(text)
	if err != nil {
		return err
	}
	r, _, err := _SetWindowText.Call(uintptr(hwnd), uintptr(unsafe.Pointer(p)))
	if r == 0 {
		return fmt.Errorf("SetWindowTextW failed: %v", err)
	}
	return nil
}

func showWindow(hwnd syscall.Handle, nCmdShow int32) {
	_ShowWindow.Call(uintptr(hwnd), uintptr(nCmdShow))
}

func trackMouseLeave(hwnd syscall.Handle) {
	tme := trackMouseEvent{
		cbSize:    uint32(unsafe.Sizeof(trackMouseEvent{})),
		dwFlags:   _TME_LEAVE,
		hwndTrack: hwnd,
	}
	_TrackMouseEvent.Call(uintptr(unsafe.Pointer(&tme)))
}

func translateMessage(m *msg) {
	_TranslateMessage.Call(uintptr(unsafe.Pointer(m)))
}

func unregisterClass(cls uint16, hInst syscall.Handle) {
	_UnregisterClass.Call(uintptr(cls), uintptr(hInst))
}

// describePixelFormat fills pfd and returns the number of formats the
// device context supports.
func describePixelFormat(hdc syscall.Handle, index int32, pfd *pixelFormatDescriptor) int32 {
	r, _, _ := _DescribePixelFormat.Call(uintptr(hdc), uintptr(index), unsafe.Sizeof(*pfd), uintptr(unsafe.Pointer(pfd)))
	return int32(r)
}

func setPixelFormat(hdc syscall.Handle, index int32, pfd *pixelFormatDescriptor) error {
	r, _, err := _SetPixelFormat.Call(uintptr(hdc), uintptr(index), uintptr(unsafe.Pointer(pfd)))
	if r == 0 {
		return fmt.Errorf("SetPixelFormat failed: %v", err)
	}
	return nil
}

func swapBuffers(hdc syscall.Handle) error {
	r, _, err := _SwapBuffers.Call(uintptr(hdc))
	if r == 0 {
		return fmt.Errorf("SwapBuffers failed: %v", err)
	}
	return nil
}
