package window

import (
	"fmt"
	"sort"
	"strings"

	"github.com/1broseidon/platlayer/internal/perr"
)

// Config is a window creation request.
type Config struct {
	Title string `yaml:"title" json:"title"`
	// Size is the requested client size in physical pixels.
	Size [2]int `yaml:"size" json:"size"`
	// Position is the requested client origin; nil lets the OS choose.
	Position   *[2]int `yaml:"position,omitempty" json:"position,omitempty"`
	Resizable  bool    `yaml:"resizable" json:"resizable"`
	Fullscreen bool    `yaml:"fullscreen" json:"fullscreen"`
	Decorated  bool    `yaml:"decorated" json:"decorated"`
	Visible    bool    `yaml:"visible" json:"visible"`
}

// DefaultConfig is an 800x600 decorated, visible, fixed-size window.
func DefaultConfig() Config {
	return Config{
		Size:      [2]int{800, 600},
		Decorated: true,
		Visible:   true,
	}
}

// Validate checks the request ranges.
func (c Config) Validate() error {
	if c.Size[0] <= 0 || c.Size[1] <= 0 {
		return perr.Invalid("window.Config", "size must be positive, got %dx%d", c.Size[0], c.Size[1])
	}
	return nil
}

var configKeys = []string{"decorated", "fullscreen", "position", "resizable", "size", "title", "visible"}

// ConfigFromMap builds a Config from loosely typed options, starting from
// DefaultConfig. Unknown keys and mistyped values are rejected.
func ConfigFromMap(opts map[string]any) (Config, error) {
	cfg := DefaultConfig()

	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := opts[key]
		var err error
		switch key {
		case "title":
			s, ok := v.(string)
			if !ok {
				err = fmt.Errorf("title must be a string, got %T", v)
			}
			cfg.Title = s
		case "size":
			cfg.Size, err = pair(key, v)
		case "position":
			var p [2]int
			p, err = pair(key, v)
			cfg.Position = &p
		case "resizable":
			cfg.Resizable, err = flag(key, v)
		case "fullscreen":
			cfg.Fullscreen, err = flag(key, v)
		case "decorated":
			cfg.Decorated, err = flag(key, v)
		case "visible":
			cfg.Visible, err = flag(key, v)
		default:
			err = fmt.Errorf("unknown option %q (known: %s)", key, strings.Join(configKeys, ", "))
		}
		if err != nil {
			return Config{}, perr.Invalid("window.ConfigFromMap", "%v", err)
		}
	}
	return cfg, cfg.Validate()
}

func flag(key string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s must be a bool, got %T", key, v)
	}
	return b, nil
}

func pair(key string, v any) ([2]int, error) {
	var out [2]int
	switch p := v.(type) {
	case [2]int:
		return p, nil
	case []int:
		if len(p) != 2 {
			return out, fmt.Errorf("%s must have two elements, got %d", key, len(p))
		}
		return [2]int{p[0], p[1]}, nil
	case []any:
		if len(p) != 2 {
			return out, fmt.Errorf("%s must have two elements, got %d", key, len(p))
		}
		for i, elem := range p {
			n, ok := integer(elem)
			if !ok {
				return out, fmt.Errorf("%s[%d] must be an integer, got %T", key, i, elem)
			}
			out[i] = n
		}
		return out, nil
	default:
		return out, fmt.Errorf("%s must be a pair of integers, got %T", key, v)
	}
}

func integer(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
