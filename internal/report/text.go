package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/3akur6/checksec/internal/checksec"
	"github.com/3akur6/checksec/internal/color"
)

// line is one "Label:    value" row of a text block.
type line struct {
	label string
	value string
}

func writeText(stdout, stderr io.Writer, rep Report, p color.Palette) error {
	for _, e := range rep.Results {
		switch {
		case e.Profile != nil:
			if err := writeBlock(stdout, e.Path, profileLines(e.Profile, p), p); err != nil {
				return err
			}
		case e.Unsupported != nil:
			value := e.Unsupported.Format
			if e.Unsupported.Detail != "" {
				value += " (" + e.Unsupported.Detail + ")"
			}
			lines := []line{{label: "Unsupported format", value: p.Partial(value)}}
			if err := writeBlock(stdout, e.Path, lines, p); err != nil {
				return err
			}
		case e.Error != nil:
			if _, err := fmt.Fprintf(stderr, "%s '%s': %s\n", p.Bad("[!]"), e.Path, e.Error.Message); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeBlock(w io.Writer, path string, lines []line, p color.Palette) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s '%s'\n", p.Marker("[*]"), p.Path(path))
	for _, l := range lines {
		fmt.Fprintf(&b, "    %s%s\n", padLabel(l.label), l.value)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// padLabel left-aligns labels in a ten-column field, keeping at least one
// space before the value.
func padLabel(label string) string {
	const width = 10
	s := label + ":"
	if len(s) < width {
		return s + strings.Repeat(" ", width-len(s))
	}
	return s + " "
}

func profileLines(sp *checksec.SecurityProfile, p color.Palette) []line {
	lines := []line{
		{label: "Arch", value: sp.Architecture},
		{label: "RELRO", value: relroText(sp.Relro, p)},
		{label: "Stack", value: pick(sp.Canary, p.Good("Canary found"), p.Bad("No canary found"))},
		{label: "NX", value: pick(sp.NX, p.Good("NX enabled"), p.Bad("NX disabled"))},
		{label: "PIE", value: pieText(sp, p)},
	}
	if sp.Fortify {
		lines = append(lines, line{label: "FORTIFY", value: p.Good("Enabled")})
	}
	if sp.RWX {
		lines = append(lines, line{label: "RWX", value: p.Bad("Has RWX segments")})
	}
	if len(sp.RPath) > 0 {
		lines = append(lines, line{label: "RPATH", value: p.Bad(quoteList(sp.RPath))})
	}
	if len(sp.RunPath) > 0 {
		lines = append(lines, line{label: "RUNPATH", value: p.Bad(quoteList(sp.RunPath))})
	}
	return lines
}

func relroText(r checksec.Relro, p color.Palette) string {
	switch r {
	case checksec.RelroFull:
		return p.Good("Full RELRO")
	case checksec.RelroPartial:
		return p.Partial("Partial RELRO")
	default:
		return p.Bad("No RELRO")
	}
}

func pieText(sp *checksec.SecurityProfile, p color.Palette) string {
	if sp.PIE.IsRandomized() {
		return p.Good("PIE enabled")
	}
	return p.Bad(fmt.Sprintf("No PIE (%#x)", sp.BaseAddress))
}

func quoteList(items []string) string {
	return "'" + strings.Join(items, ":") + "'"
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
