//go:build glfw

package platlayer

import _ "github.com/1broseidon/platlayer/internal/backend/desktop"
