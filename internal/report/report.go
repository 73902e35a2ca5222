// Package report renders scan results as colored text, JSON, YAML or a table.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/3akur6/checksec/internal/checksec"
	"github.com/3akur6/checksec/internal/color"
	"github.com/3akur6/checksec/internal/objfile"
	"github.com/3akur6/checksec/internal/scan"
)

// ErrInvalidFormat is returned by ParseFormat for unknown values.
var ErrInvalidFormat = errors.New("invalid output format")

// Format selects a renderer.
type Format int

const (
	// FormatText is the classic checksec layout, one block per file.
	FormatText Format = iota

	// FormatJSON is a single JSON document.
	FormatJSON

	// FormatYAML is a single YAML document.
	FormatYAML

	// FormatTable is one table row per file.
	FormatTable
)

// String returns a string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatTable:
		return "table"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// ParseFormat parses text, json, yaml or table. The empty string is text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "table":
		return FormatTable, nil
	default:
		return FormatText, fmt.Errorf("%w: %q (want text, json, yaml or table)", ErrInvalidFormat, s)
	}
}

// Report is the document emitted by the structured formats.
type Report struct {
	RunID   string  `json:"run_id" yaml:"run_id"`
	Results []Entry `json:"results" yaml:"results"`
}

// Entry is the outcome for one file. Exactly one of Profile, Unsupported and
// Error is set, except that Unsupported entries also carry their Error.
type Entry struct {
	Path        string                    `json:"path" yaml:"path"`
	Resolved    string                    `json:"resolved,omitempty" yaml:"resolved,omitempty"`
	Profile     *checksec.SecurityProfile `json:"profile,omitempty" yaml:"profile,omitempty"`
	Unsupported *UnsupportedInfo          `json:"unsupported,omitempty" yaml:"unsupported,omitempty"`
	Error       *ErrorInfo                `json:"error,omitempty" yaml:"error,omitempty"`
}

// UnsupportedInfo identifies a recognized non-ELF object.
type UnsupportedInfo struct {
	Format string `json:"format" yaml:"format"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// ErrorInfo describes why a file has no profile.
type ErrorInfo struct {
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

// New builds a Report from scan results, keeping their order.
func New(runID string, results []scan.Result) Report {
	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		e := Entry{Path: r.Path, Profile: r.Profile}
		if r.Resolved != r.Path {
			e.Resolved = r.Resolved
		}
		if r.Unsupported != nil {
			e.Unsupported = &UnsupportedInfo{
				Format: r.Unsupported.Format.String(),
				Detail: r.Unsupported.Detail,
			}
		}
		if r.Err != nil {
			kind := "error"
			if k, ok := objfile.KindOf(r.Err); ok {
				kind = k.String()
			}
			e.Error = &ErrorInfo{Kind: kind, Message: reason(r.Err)}
		}
		entries = append(entries, e)
	}
	return Report{RunID: runID, Results: entries}
}

// reason returns the error message without the path prefix when err carries one.
func reason(err error) string {
	var e *objfile.Error
	if errors.As(err, &e) {
		return e.Reason()
	}
	return err.Error()
}

// Options configures Write.
type Options struct {
	Format  Format
	Palette color.Palette
}

// Write renders rep to stdout. Text and table formats report per-file failures
// to stderr; the structured formats keep everything in one document on stdout.
func Write(stdout, stderr io.Writer, rep Report, opts Options) error {
	switch opts.Format {
	case FormatText:
		return writeText(stdout, stderr, rep, opts.Palette)
	case FormatJSON:
		return writeJSON(stdout, rep)
	case FormatYAML:
		return writeYAML(stdout, rep)
	case FormatTable:
		return writeTable(stdout, stderr, rep, opts.Palette)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidFormat, opts.Format)
	}
}
