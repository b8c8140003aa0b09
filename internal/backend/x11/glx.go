//go:build linux

package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/glx"

	"github.com/1broseidon/platlayer/internal/backend"
)

// GLX attribute names and values from glx.h and GLX_ARB_create_context.
const (
	glxDoubleBuffer       = 5
	glxRedSize            = 8
	glxGreenSize          = 9
	glxBlueSize           = 10
	glxAlphaSize          = 11
	glxDepthSize          = 12
	glxStencilSize        = 13
	glxSamples            = 100001
	glxDrawableType       = 0x8010
	glxRenderType         = 0x8011
	glxFBConfigID         = 0x8013
	glxRGBAType           = 0x8014
	glxFramebufferSRGB    = 0x20b2
	glxWindowBit          = 0x1
	glxRGBABit            = 0x1
	glxContextMajor       = 0x2091
	glxContextMinor       = 0x2092
	glxContextFlags       = 0x2094
	glxContextProfileMask = 0x9126
	glxContextDebugBit    = 0x1
	glxContextCoreBit     = 0x1
	glxContextCompatBit   = 0x2
	glxContextES2Bit      = 0x4
)

type glxContext struct {
	id  glx.Context
	tag glx.ContextTag
}

func (b *Backend) initGLX() error {
	b.glxMu.Lock()
	defer b.glxMu.Unlock()
	if b.glxReady {
		return nil
	}
	if err := glx.Init(b.conn.XUtil.Conn()); err != nil {
		return fmt.Errorf("glx init failed: %w", err)
	}
	b.glxReady = true
	return nil
}

func (b *Backend) screenNumber() uint32 {
	return uint32(b.conn.XUtil.Conn().DefaultScreen)
}

func (b *Backend) PixelFormats(uintptr) ([]backend.FormatCandidate, error) {
	if err := b.initGLX(); err != nil {
		return nil, err
	}
	reply, err := glx.GetFBConfigs(b.conn.XUtil.Conn(), b.screenNumber()).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to list framebuffer configs: %w", err)
	}
	return parseFBConfigs(int(reply.NumFbConfigs), int(reply.NumProperties), reply.PropertyList), nil
}

// parseFBConfigs decodes GetFBConfigs' flat list of attribute/value pairs,
// numProps pairs per config, keeping window-capable RGBA configs.
func parseFBConfigs(numConfigs, numProps int, props []uint32) []backend.FormatCandidate {
	stride := numProps * 2
	var out []backend.FormatCandidate
	for i := 0; i < numConfigs && (i+1)*stride <= len(props); i++ {
		attrs := make(map[uint32]uint32, numProps)
		for j := i * stride; j < (i+1)*stride; j += 2 {
			attrs[props[j]] = props[j+1]
		}
		if attrs[glxDrawableType]&glxWindowBit == 0 || attrs[glxRenderType]&glxRGBABit == 0 {
			continue
		}
		out = append(out, backend.FormatCandidate{
			ID: uintptr(attrs[glxFBConfigID]),
			Format: backend.PixelFormat{
				RedBits:      int(attrs[glxRedSize]),
				GreenBits:    int(attrs[glxGreenSize]),
				BlueBits:     int(attrs[glxBlueSize]),
				AlphaBits:    int(attrs[glxAlphaSize]),
				DepthBits:    int(attrs[glxDepthSize]),
				StencilBits:  int(attrs[glxStencilSize]),
				Samples:      int(attrs[glxSamples]),
				DoubleBuffer: attrs[glxDoubleBuffer] != 0,
				SRGB:         attrs[glxFramebufferSRGB] != 0,
			},
		})
	}
	return out
}

// contextAttribs builds the GLX_ARB_create_context attribute list.
func contextAttribs(settings backend.ContextSettings) []uint32 {
	attribs := []uint32{
		glxContextMajor, uint32(settings.Major),
		glxContextMinor, uint32(settings.Minor),
	}
	switch settings.Profile {
	case backend.ProfileCore:
		attribs = append(attribs, glxContextProfileMask, glxContextCoreBit)
	case backend.ProfileCompat:
		attribs = append(attribs, glxContextProfileMask, glxContextCompatBit)
	case backend.ProfileES:
		attribs = append(attribs, glxContextProfileMask, glxContextES2Bit)
	}
	if settings.Debug {
		attribs = append(attribs, glxContextFlags, glxContextDebugBit)
	}
	return attribs
}

func (b *Backend) CreateContext(window uintptr, format backend.FormatCandidate, settings backend.ContextSettings) (uintptr, error) {
	if err := b.initGLX(); err != nil {
		return 0, err
	}
	conn := b.conn.XUtil.Conn()
	id, err := glx.NewContextId(conn)
	if err != nil {
		return 0, err
	}

	fb := glx.Fbconfig(format.ID)
	if settings.Major == 0 && settings.Profile == backend.ProfileAny && !settings.Debug {
		err = glx.CreateNewContextChecked(conn, id, fb, b.screenNumber(), glxRGBAType, 0, false).Check()
	} else {
		attribs := contextAttribs(settings)
		err = glx.CreateContextAttribsARBChecked(conn, id, fb, b.screenNumber(), 0, false,
			uint32(len(attribs)/2), attribs).Check()
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create GLX context: %w", err)
	}

	b.glxMu.Lock()
	b.contexts[uintptr(id)] = &glxContext{id: id}
	b.glxMu.Unlock()
	return uintptr(id), nil
}

func (b *Backend) MakeCurrent(ctx, window uintptr) error {
	b.glxMu.Lock()
	defer b.glxMu.Unlock()
	c, ok := b.contexts[ctx]
	if !ok {
		return fmt.Errorf("no context %#x", ctx)
	}
	reply, err := glx.MakeCurrent(b.conn.XUtil.Conn(), glx.Drawable(window), c.id, b.currentTag).Reply()
	if err != nil {
		return err
	}
	for _, other := range b.contexts {
		other.tag = 0
	}
	c.tag = reply.ContextTag
	b.currentTag = reply.ContextTag
	return nil
}

func (b *Backend) ClearCurrent() error {
	b.glxMu.Lock()
	defer b.glxMu.Unlock()
	if b.currentTag == 0 {
		return nil
	}
	if _, err := glx.MakeCurrent(b.conn.XUtil.Conn(), 0, 0, b.currentTag).Reply(); err != nil {
		return err
	}
	for _, c := range b.contexts {
		c.tag = 0
	}
	b.currentTag = 0
	return nil
}

func (b *Backend) DestroyContext(ctx uintptr) error {
	b.glxMu.Lock()
	c, ok := b.contexts[ctx]
	delete(b.contexts, ctx)
	b.glxMu.Unlock()
	if !ok {
		return fmt.Errorf("no context %#x", ctx)
	}
	return glx.DestroyContextChecked(b.conn.XUtil.Conn(), c.id).Check()
}

var errNotCurrent = errors.New("context is not current")

func (b *Backend) SwapBuffers(ctx, window uintptr) error {
	b.glxMu.Lock()
	c, ok := b.contexts[ctx]
	var tag glx.ContextTag
	if ok {
		tag = c.tag
	}
	b.glxMu.Unlock()
	if !ok {
		return fmt.Errorf("no context %#x", ctx)
	}
	if tag == 0 {
		return errNotCurrent
	}
	return glx.SwapBuffersChecked(b.conn.XUtil.Conn(), tag, glx.Drawable(window)).Check()
}

// SetSwapInterval is not available over the GLX wire protocol; swap control
// is a client-side extension of direct rendering.
func (b *Backend) SetSwapInterval(uintptr, uintptr, int) error {
	return backend.ErrNotSupported
}
