// Package terminal decides whether report output should be colored, combining
// the user's explicit choice, the conventional color environment variables,
// CI detection and whether the output is a terminal.
package terminal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidColorMode is returned by ParseColorMode for unknown values.
var ErrInvalidColorMode = errors.New("invalid color mode")

// ColorMode is the user's color choice from the command line or config file.
type ColorMode int

const (
	// ColorAuto colors output when the environment allows it.
	ColorAuto ColorMode = iota

	// ColorAlways colors output unconditionally.
	ColorAlways

	// ColorNever never colors output.
	ColorNever
)

// String returns a string representation of ColorMode.
func (m ColorMode) String() string {
	switch m {
	case ColorAuto:
		return "auto"
	case ColorAlways:
		return "always"
	case ColorNever:
		return "never"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseColorMode parses "auto", "always" or "never". The empty string is auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("%w: %q (want auto, always or never)", ErrInvalidColorMode, s)
	}
}
