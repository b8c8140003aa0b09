package backend

import "fmt"

// PixelFormat describes a framebuffer configuration. In a request every
// field is a minimum; in a FormatCandidate it is what the driver offers.
type PixelFormat struct {
	RedBits      int  `yaml:"red_bits" json:"red_bits"`
	GreenBits    int  `yaml:"green_bits" json:"green_bits"`
	BlueBits     int  `yaml:"blue_bits" json:"blue_bits"`
	AlphaBits    int  `yaml:"alpha_bits" json:"alpha_bits"`
	DepthBits    int  `yaml:"depth_bits" json:"depth_bits"`
	StencilBits  int  `yaml:"stencil_bits" json:"stencil_bits"`
	Samples      int  `yaml:"samples" json:"samples"`
	DoubleBuffer bool `yaml:"double_buffer" json:"double_buffer"`
	SRGB         bool `yaml:"srgb" json:"srgb"`
}

// DefaultPixelFormat is RGBA8 with a 24-bit depth and 8-bit stencil buffer,
// double buffered.
func DefaultPixelFormat() PixelFormat {
	return PixelFormat{
		RedBits:      8,
		GreenBits:    8,
		BlueBits:     8,
		AlphaBits:    8,
		DepthBits:    24,
		StencilBits:  8,
		DoubleBuffer: true,
	}
}

func (f PixelFormat) String() string {
	return fmt.Sprintf("rgba%d%d%d%d d%d s%d ms%d db=%t srgb=%t",
		f.RedBits, f.GreenBits, f.BlueBits, f.AlphaBits,
		f.DepthBits, f.StencilBits, f.Samples, f.DoubleBuffer, f.SRGB)
}

// FormatCandidate is a pixel format the backend can realize, with the
// native identifier needed to create a context from it.
type FormatCandidate struct {
	ID     uintptr
	Format PixelFormat
}

// Profile selects the OpenGL profile of a context.
type Profile uint8

const (
	ProfileAny Profile = iota
	ProfileCore
	ProfileCompat
	ProfileES
)

func (p Profile) String() string {
	switch p {
	case ProfileAny:
		return "any"
	case ProfileCore:
		return "core"
	case ProfileCompat:
		return "compat"
	case ProfileES:
		return "es"
	default:
		return fmt.Sprintf("profile(%d)", uint8(p))
	}
}

// ParseProfile converts a profile name to a Profile.
func ParseProfile(name string) (Profile, bool) {
	for _, p := range []Profile{ProfileAny, ProfileCore, ProfileCompat, ProfileES} {
		if p.String() == name {
			return p, true
		}
	}
	return 0, false
}

// ContextSettings are the requested context attributes. A zero Major means
// the driver default.
type ContextSettings struct {
	Major   int
	Minor   int
	Profile Profile
	Debug   bool
}
