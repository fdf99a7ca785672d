// Package knowledge holds the reference text injected into every advisory
// prompt: an excerpt of the IDAE "Guía práctica de la energía para la
// rehabilitación de edificios".
package knowledge

import (
	_ "embed"
	"strings"
)

//go:embed guide.md
var guide string

// Guide returns the reference text, trimmed of surrounding blank lines.
func Guide() string { return strings.TrimSpace(guide) }
