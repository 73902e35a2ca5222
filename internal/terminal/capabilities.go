package terminal

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// colorTerminals lists TERM values (or prefixes) known to support basic colors.
var colorTerminals = []string{
	"xterm",
	"screen",
	"tmux",
	"rxvt",
	"vt100",
	"vt220",
	"ansi",
	"linux",
	"cygwin",
	"putty",
}

// ciEnvVars contains common CI environment variables.
var ciEnvVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"TRAVIS",
	"CIRCLECI",
	"JENKINS_URL",
	"BUILD_NUMBER",
	"GITLAB_CI",
	"APPVEYOR",
	"BUILDKITE",
	"DRONE",
	"TF_BUILD",
}

// LookupEnv has the signature of os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// Capabilities reports what the output stream supports.
type Capabilities struct {
	mode       ColorMode
	lookupEnv  LookupEnv
	isTerminal func() bool
}

// NewCapabilities returns the Capabilities of out under mode, reading the
// process environment. Writers that are not an *os.File are never terminals.
func NewCapabilities(mode ColorMode, out io.Writer) *Capabilities {
	isTerminal := func() bool { return false }
	if f, ok := out.(*os.File); ok {
		isTerminal = func() bool { return term.IsTerminal(int(f.Fd())) }
	}
	return newCapabilities(mode, os.LookupEnv, isTerminal)
}

func newCapabilities(mode ColorMode, lookupEnv LookupEnv, isTerminal func() bool) *Capabilities {
	return &Capabilities{mode: mode, lookupEnv: lookupEnv, isTerminal: isTerminal}
}

// SupportsColor reports whether output should carry ANSI colors. In order:
//  1. --color=always / --color=never (and --no-color)
//  2. CLICOLOR_FORCE set to a truthy value
//  3. NO_COLOR set to anything, even empty
//  4. not interactive (CI, or not a terminal)
//  5. TERM unset, dumb or unknown
//  6. CLICOLOR, when set
func (c *Capabilities) SupportsColor() bool {
	switch c.mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}

	if isTruthy(c.getenv("CLICOLOR_FORCE")) {
		return true
	}
	if _, ok := c.lookupEnv("NO_COLOR"); ok {
		return false
	}

	if !c.IsInteractive() || !c.terminalSupportsColor() {
		return false
	}

	if cliColor := c.getenv("CLICOLOR"); cliColor != "" {
		return isTruthy(cliColor)
	}
	return true
}

// IsInteractive reports whether the output is a terminal outside CI.
func (c *Capabilities) IsInteractive() bool {
	return !c.IsCIEnvironment() && c.isTerminal()
}

// IsCIEnvironment reports whether a CI system is detected. CI=false, CI=0
// and CI=no are not.
func (c *Capabilities) IsCIEnvironment() bool {
	for _, envVar := range ciEnvVars {
		value := c.getenv(envVar)
		if value == "" {
			continue
		}
		if envVar == "CI" {
			return isCITruthy(value)
		}
		return true
	}
	return false
}

func (c *Capabilities) terminalSupportsColor() bool {
	t := strings.ToLower(strings.TrimSpace(c.getenv("TERM")))
	if t == "" || t == "dumb" {
		return false
	}
	for _, colorTerm := range colorTerminals {
		if t == colorTerm || strings.HasPrefix(t, colorTerm+"-") {
			return true
		}
	}
	return false
}

func (c *Capabilities) getenv(key string) string {
	v, _ := c.lookupEnv(key)
	return v
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func isCITruthy(value string) bool {
	lower := strings.ToLower(strings.TrimSpace(value))
	return lower != "false" && lower != "0" && lower != "no"
}
