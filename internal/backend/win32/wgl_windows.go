package win32

import (
	"errors"
	"fmt"
	stdsyscall "syscall"
	"unsafe"

	syscall "golang.org/x/sys/windows"

	"github.com/1broseidon/platlayer/internal/backend"
)

var (
	opengl32           = syscall.NewLazySystemDLL("opengl32.dll")
	_wglCreateContext  = opengl32.NewProc("wglCreateContext")
	_wglDeleteContext  = opengl32.NewProc("wglDeleteContext")
	_wglGetProcAddress = opengl32.NewProc("wglGetProcAddress")
	_wglMakeCurrent    = opengl32.NewProc("wglMakeCurrent")
)

var errNoCurrentContext = errors.New("no context is current on this thread")

type wglContext struct {
	hglrc  syscall.Handle
	window syscall.Handle
	hdc    syscall.Handle
	// current is set while the context is bound on the backend's thread.
	current bool
}

func wglCreateContext(hdc syscall.Handle) (syscall.Handle, error) {
	r, _, err := _wglCreateContext.Call(uintptr(hdc))
	if r == 0 {
		return 0, fmt.Errorf("wglCreateContext failed: %v", err)
	}
	return syscall.Handle(r), nil
}

func wglDeleteContext(hglrc syscall.Handle) error {
	r, _, err := _wglDeleteContext.Call(uintptr(hglrc))
	if r == 0 {
		return fmt.Errorf("wglDeleteContext failed: %v", err)
	}
	return nil
}

func wglMakeCurrent(hdc, hglrc syscall.Handle) error {
	r, _, err := _wglMakeCurrent.Call(uintptr(hdc), uintptr(hglrc))
	if r == 0 {
		return fmt.Errorf("wglMakeCurrent failed: %v", err)
	}
	return nil
}

// wglProc resolves an extension entry point of the current context. Some
// drivers return small sentinel values instead of NULL for missing entries.
func wglProc(name string) uintptr {
	cname, err := syscall.BytePtrFromString(name)
	if err != nil {
		return 0
	}
	r, _, _ := _wglGetProcAddress.Call(uintptr(unsafe.Pointer(cname)))
	switch r {
	case 0, 1, 2, 3, ^uintptr(0):
		return 0
	}
	return r
}

func (b *Backend) windowDC(native uintptr) (syscall.Handle, error) {
	_, w, err := b.lookup(native)
	if err != nil {
		return 0, err
	}
	return w.hdc, nil
}

func (b *Backend) PixelFormats(window uintptr) ([]backend.FormatCandidate, error) {
	hdc, err := b.windowDC(window)
	if err != nil {
		return nil, err
	}
	var pfd pixelFormatDescriptor
	count := describePixelFormat(hdc, 1, &pfd)
	if count == 0 {
		return nil, errors.New("DescribePixelFormat reported no formats")
	}
	var out []backend.FormatCandidate
	for i := int32(1); i <= count; i++ {
		if describePixelFormat(hdc, i, &pfd) == 0 {
			continue
		}
		if f, ok := describedFormat(pfd); ok {
			out = append(out, backend.FormatCandidate{ID: uintptr(i), Format: f})
		}
	}
	return out, nil
}

func (b *Backend) CreateContext(window uintptr, format backend.FormatCandidate, settings backend.ContextSettings) (uintptr, error) {
	hwnd, w, err := b.lookup(window)
	if err != nil {
		return 0, err
	}
	index := int32(format.ID)

	// A window's pixel format can be set once.
	b.mu.Lock()
	chosen := w.format
	b.mu.Unlock()
	switch {
	case chosen == 0:
		var pfd pixelFormatDescriptor
		if describePixelFormat(w.hdc, index, &pfd) == 0 {
			return 0, fmt.Errorf("unknown pixel format %d", index)
		}
		if err := setPixelFormat(w.hdc, index, &pfd); err != nil {
			return 0, err
		}
		b.mu.Lock()
		w.format = index
		b.mu.Unlock()
	case chosen != index:
		return 0, fmt.Errorf("window already uses pixel format %d", chosen)
	}

	legacy, err := wglCreateContext(w.hdc)
	if err != nil {
		return 0, err
	}
	ctx := &wglContext{hglrc: legacy, window: hwnd, hdc: w.hdc}
	if needsAttribs(settings) {
		ctx.hglrc, err = b.createAttribsContext(w.hdc, legacy, settings)
		wglDeleteContext(legacy)
		if err != nil {
			return 0, err
		}
	}

	b.glMu.Lock()
	b.contexts[uintptr(ctx.hglrc)] = ctx
	b.glMu.Unlock()
	return uintptr(ctx.hglrc), nil
}

// createAttribsContext resolves wglCreateContextAttribsARB through a
// temporary legacy context and creates the requested context with it.
func (b *Backend) createAttribsContext(hdc, legacy syscall.Handle, settings backend.ContextSettings) (syscall.Handle, error) {
	if err := wglMakeCurrent(hdc, legacy); err != nil {
		return 0, err
	}
	defer wglMakeCurrent(0, 0)

	create := wglProc("wglCreateContextAttribsARB")
	if create == 0 {
		return 0, fmt.Errorf("wglCreateContextAttribsARB: %w", backend.ErrNotSupported)
	}
	attribs := contextAttribs(settings)
	r, _, err := stdsyscall.SyscallN(create, uintptr(hdc), 0, uintptr(unsafe.Pointer(&attribs[0])))
	if r == 0 {
		return 0, fmt.Errorf("wglCreateContextAttribsARB failed for %d.%d %s: %v",
			settings.Major, settings.Minor, settings.Profile, err)
	}
	return syscall.Handle(r), nil
}

func (b *Backend) context(ctx uintptr) (*wglContext, error) {
	b.glMu.Lock()
	defer b.glMu.Unlock()
	c, ok := b.contexts[ctx]
	if !ok {
		return nil, fmt.Errorf("no context %#x", ctx)
	}
	return c, nil
}

func (b *Backend) MakeCurrent(ctx, window uintptr) error {
	c, err := b.context(ctx)
	if err != nil {
		return err
	}
	hdc, err := b.windowDC(window)
	if err != nil {
		return err
	}
	if err := wglMakeCurrent(hdc, c.hglrc); err != nil {
		return err
	}
	b.glMu.Lock()
	for _, other := range b.contexts {
		other.current = false
	}
	c.current = true
	b.glMu.Unlock()
	return nil
}

func (b *Backend) ClearCurrent() error {
	b.glMu.Lock()
	for _, c := range b.contexts {
		c.current = false
	}
	b.glMu.Unlock()
	return wglMakeCurrent(0, 0)
}

func (b *Backend) DestroyContext(ctx uintptr) error {
	b.glMu.Lock()
	c, ok := b.contexts[ctx]
	delete(b.contexts, ctx)
	b.glMu.Unlock()
	if !ok {
		return fmt.Errorf("no context %#x", ctx)
	}
	if c.current {
		wglMakeCurrent(0, 0)
	}
	return wglDeleteContext(c.hglrc)
}

func (b *Backend) SwapBuffers(ctx, window uintptr) error {
	if _, err := b.context(ctx); err != nil {
		return err
	}
	hdc, err := b.windowDC(window)
	if err != nil {
		return err
	}
	return swapBuffers(hdc)
}

// SetSwapInterval needs ctx current; WGL_EXT_swap_control applies to the
// current context only.
func (b *Backend) SetSwapInterval(ctx, _ uintptr, interval int) error {
	c, err := b.context(ctx)
	if err != nil {
		return err
	}
	b.glMu.Lock()
	current := c.current
	b.glMu.Unlock()
	if !current {
		return errNoCurrentContext
	}
	swap := wglProc("wglSwapIntervalEXT")
	if swap == 0 {
		return fmt.Errorf("wglSwapIntervalEXT: %w", backend.ErrNotSupported)
	}
	if r, _, err := stdsyscall.SyscallN(swap, uintptr(interval)); r == 0 {
		return fmt.Errorf("wglSwapIntervalEXT failed: %v", err)
	}
	return nil
}
