// Package color wraps text in ANSI escape sequences and groups the colors the
// report uses into a Palette that can be switched off as a whole.
//
//nolint:revive // package name conflicts with standard library
package color

// ANSI color codes
const (
	resetCode  = "\033[0m"
	greenCode  = "\033[32m"
	yellowCode = "\033[33m"
	redCode    = "\033[31m"
	blueCode   = "\033[34m"
	boldCode   = "\033[1m"
)

// Color represents a color function that wraps text with ANSI escape
// sequences.
type Color func(text string) string

// NewColor creates a color function with the specified ANSI code.
func NewColor(ansiCode string) Color {
	return func(text string) string {
		return ansiCode + text + resetCode
	}
}

// Plain returns text unchanged.
func Plain(text string) string { return text }

// Predefined color functions
var (
	Green  = NewColor(greenCode)
	Yellow = NewColor(yellowCode)
	Red    = NewColor(redCode)
	Blue   = NewColor(blueCode)
	Bold   = NewColor(boldCode)
)

// Palette maps the verdict of a mitigation to a Color.
type Palette struct {
	Good    Color // mitigation present
	Partial Color // mitigation present but weakened
	Bad     Color // mitigation missing
	Marker  Color // "[*]" line marker
	Path    Color
}

// NewPalette returns the report palette, or a palette of Plain when disabled.
func NewPalette(enabled bool) Palette {
	if !enabled {
		return Palette{Good: Plain, Partial: Plain, Bad: Plain, Marker: Plain, Path: Plain}
	}
	return Palette{Good: Green, Partial: Yellow, Bad: Red, Marker: Blue, Path: Bold}
}
