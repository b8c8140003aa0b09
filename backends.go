package platlayer

import (
	"github.com/1broseidon/platlayer/internal/backend"

	_ "github.com/1broseidon/platlayer/internal/backend/headless"
)

// Backends returns the names of the compiled-in backend variants, highest
// priority first.
func Backends() []string {
	vs := backend.Variants()
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Name)
	}
	return out
}
