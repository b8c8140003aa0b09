package win32

import "github.com/1broseidon/platlayer/internal/backend"

// PIXELFORMATDESCRIPTOR flags and WGL_ARB_create_context attributes.
const (
	_PFD_DOUBLEBUFFER        = 0x00000001
	_PFD_DRAW_TO_WINDOW      = 0x00000004
	_PFD_SUPPORT_OPENGL      = 0x00000020
	_PFD_GENERIC_FORMAT      = 0x00000040
	_PFD_GENERIC_ACCELERATED = 0x00001000
	_PFD_TYPE_RGBA           = 0

	_WGL_CONTEXT_MAJOR_VERSION_ARB    = 0x2091
	_WGL_CONTEXT_MINOR_VERSION_ARB    = 0x2092
	_WGL_CONTEXT_FLAGS_ARB            = 0x2094
	_WGL_CONTEXT_PROFILE_MASK_ARB     = 0x9126
	_WGL_CONTEXT_DEBUG_BIT_ARB        = 0x0001
	_WGL_CONTEXT_CORE_PROFILE_BIT_ARB = 0x0001
	_WGL_CONTEXT_COMPAT_PROFILE_BIT   = 0x0002
	_WGL_CONTEXT_ES2_PROFILE_BIT_EXT  = 0x0004
)

type pixelFormatDescriptor struct {
	nSize           uint16
	nVersion        uint16
	dwFlags         uint32
	iPixelType      uint8
	cColorBits      uint8
	cRedBits        uint8
	cRedShift       uint8
	cGreenBits      uint8
	cGreenShift     uint8
	cBlueBits       uint8
	cBlueShift      uint8
	cAlphaBits      uint8
	cAlphaShift     uint8
	cAccumBits      uint8
	cAccumRedBits   uint8
	cAccumGreenBits uint8
	cAccumBlueBits  uint8
	cAccumAlphaBits uint8
	cDepthBits      uint8
	cStencilBits    uint8
	cAuxBuffers     uint8
	iLayerType      uint8
	bReserved       uint8
	dwLayerMask     uint32
	dwVisibleMask   uint32
	dwDamageMask    uint32
}

// describedFormat converts a descriptor to a PixelFormat. Only RGBA formats
// that can draw to a window through OpenGL qualify, and GDI's unaccelerated
// software formats are skipped.
func describedFormat(pfd pixelFormatDescriptor) (backend.PixelFormat, bool) {
	const required = _PFD_DRAW_TO_WINDOW | _PFD_SUPPORT_OPENGL
	if pfd.dwFlags&required != required || pfd.iPixelType != _PFD_TYPE_RGBA {
		return backend.PixelFormat{}, false
	}
	if pfd.dwFlags&_PFD_GENERIC_FORMAT != 0 && pfd.dwFlags&_PFD_GENERIC_ACCELERATED == 0 {
		return backend.PixelFormat{}, false
	}
	return backend.PixelFormat{
		RedBits:      int(pfd.cRedBits),
		GreenBits:    int(pfd.cGreenBits),
		BlueBits:     int(pfd.cBlueBits),
		AlphaBits:    int(pfd.cAlphaBits),
		DepthBits:    int(pfd.cDepthBits),
		StencilBits:  int(pfd.cStencilBits),
		DoubleBuffer: pfd.dwFlags&_PFD_DOUBLEBUFFER != 0,
	}, true
}

// needsAttribs reports whether settings can only be met through
// wglCreateContextAttribsARB.
func needsAttribs(settings backend.ContextSettings) bool {
	return settings.Major > 0 || settings.Profile != backend.ProfileAny || settings.Debug
}

// contextAttribs builds the zero-terminated attribute list for
// wglCreateContextAttribsARB.
func contextAttribs(settings backend.ContextSettings) []int32 {
	var attribs []int32
	if settings.Major > 0 {
		attribs = append(attribs,
			_WGL_CONTEXT_MAJOR_VERSION_ARB, int32(settings.Major),
			_WGL_CONTEXT_MINOR_VERSION_ARB, int32(settings.Minor))
	}
	switch settings.Profile {
	case backend.ProfileCore:
		attribs = append(attribs, _WGL_CONTEXT_PROFILE_MASK_ARB, _WGL_CONTEXT_CORE_PROFILE_BIT_ARB)
	case backend.ProfileCompat:
		attribs = append(attribs, _WGL_CONTEXT_PROFILE_MASK_ARB, _WGL_CONTEXT_COMPAT_PROFILE_BIT)
	case backend.ProfileES:
		attribs = append(attribs, _WGL_CONTEXT_PROFILE_MASK_ARB, _WGL_CONTEXT_ES2_PROFILE_BIT_EXT)
	}
	if settings.Debug {
		attribs = append(attribs, _WGL_CONTEXT_FLAGS_ARB, _WGL_CONTEXT_DEBUG_BIT_ARB)
	}
	return append(attribs, 0)
}
