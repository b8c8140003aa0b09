package glctx

import (
	"github.com/1broseidon/platlayer/internal/backend"
	"github.com/1broseidon/platlayer/internal/perr"
)

// PixelFormat and ContextSettings are the request types of Create.
type (
	PixelFormat     = backend.PixelFormat
	ContextSettings = backend.ContextSettings
)

// ValidateFormat rejects requests no backend could satisfy.
func ValidateFormat(f PixelFormat) error {
	for name, bits := range map[string]int{
		"red_bits": f.RedBits, "green_bits": f.GreenBits, "blue_bits": f.BlueBits,
		"alpha_bits": f.AlphaBits, "depth_bits": f.DepthBits, "stencil_bits": f.StencilBits,
	} {
		if bits < 0 || bits > 32 {
			return perr.Invalid("glctx.ValidateFormat", "%s must be between 0 and 32, got %d", name, bits)
		}
	}
	if f.Samples < 0 || f.Samples&(f.Samples-1) != 0 {
		return perr.Invalid("glctx.ValidateFormat", "samples must be zero or a power of two, got %d", f.Samples)
	}
	return nil
}

// ValidateSettings rejects malformed context settings.
func ValidateSettings(s ContextSettings) error {
	if s.Major < 0 || s.Minor < 0 {
		return perr.Invalid("glctx.ValidateSettings", "negative version %d.%d", s.Major, s.Minor)
	}
	switch s.Profile {
	case backend.ProfileAny, backend.ProfileCompat, backend.ProfileES:
	case backend.ProfileCore:
		if s.Major != 0 && (s.Major < 3 || (s.Major == 3 && s.Minor < 2)) {
			return perr.Invalid("glctx.ValidateSettings", "core profile needs version 3.2 or later, got %d.%d", s.Major, s.Minor)
		}
	default:
		return perr.Invalid("glctx.ValidateSettings", "unknown profile %s", s.Profile)
	}
	return nil
}

// Choose picks the candidate closest to req among those meeting every
// minimum. Ties keep the backend's order.
func Choose(req PixelFormat, candidates []backend.FormatCandidate) (backend.FormatCandidate, bool) {
	best := -1
	bestScore := 0
	for i, c := range candidates {
		score, ok := distance(req, c.Format)
		if !ok {
			continue
		}
		if best < 0 || score < bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return backend.FormatCandidate{}, false
	}
	return candidates[best], true
}

func distance(req, got PixelFormat) (int, bool) {
	pairs := [][2]int{
		{req.RedBits, got.RedBits},
		{req.GreenBits, got.GreenBits},
		{req.BlueBits, got.BlueBits},
		{req.AlphaBits, got.AlphaBits},
		{req.DepthBits, got.DepthBits},
		{req.StencilBits, got.StencilBits},
		{req.Samples, got.Samples},
	}
	score := 0
	for _, p := range pairs {
		if p[1] < p[0] {
			return 0, false
		}
		score += p[1] - p[0]
	}
	if req.DoubleBuffer && !got.DoubleBuffer {
		return 0, false
	}
	if req.SRGB && !got.SRGB {
		return 0, false
	}
	if req.DoubleBuffer != got.DoubleBuffer {
		score += 16
	}
	if req.SRGB != got.SRGB {
		score += 16
	}
	return score, true
}
