// Package scan analyzes a batch of files concurrently and returns one Result per
// input, in input order.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/3akur6/checksec/internal/checksec"
	"github.com/3akur6/checksec/internal/elfmeta"
	"github.com/3akur6/checksec/internal/objfile"
)

// ErrNoFiles is returned when a batch contains no paths.
var ErrNoFiles = errors.New("no files specified")

// Loader loads a single object file.
type Loader interface {
	Load(path string) (elfmeta.Object, error)
}

// Options configures a Scanner.
type Options struct {
	// Workers is the maximum number of files analyzed at once. Zero means runtime.NumCPU().
	Workers int

	// SearchPath resolves every name through the executable search path before
	// reading it, the way `checksec --file` does.
	SearchPath bool

	// Logger receives per-file diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Result is the outcome for one input path. Exactly one of Profile and Err is set.
// Unsupported is set together with Err when the file is a recognized non-ELF object.
type Result struct {
	// Path is the name as given by the caller.
	Path string

	// Resolved is the path actually read. It differs from Path in search-path mode.
	Resolved string

	Profile     *checksec.SecurityProfile
	Unsupported *elfmeta.Unsupported
	Err         error
}

// Kind returns the error kind of a failed result.
func (r Result) Kind() (objfile.ErrorKind, bool) {
	if r.Err == nil {
		return 0, false
	}
	return objfile.KindOf(r.Err)
}

// Failed reports whether r should make the batch exit non-zero. NotFound and
// ReadFailure always do; UnsupportedFormat and MalformedInput only when strict.
func (r Result) Failed(strict bool) bool {
	kind, ok := r.Kind()
	if !ok {
		return r.Err != nil
	}
	switch kind {
	case objfile.NotFound, objfile.ReadFailure:
		return true
	default:
		return strict
	}
}

// Scanner runs analyses.
type Scanner struct {
	loader     Loader
	lookPath   func(string) (string, error)
	workers    int
	searchPath bool
	logger     *slog.Logger
}

// New creates a Scanner. If loader is nil, an objfile.Loader over the default
// file system is used.
func New(loader Loader, opts Options) *Scanner {
	if loader == nil {
		loader = objfile.NewLoader(nil)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		loader:     loader,
		lookPath:   exec.LookPath,
		workers:    workers,
		searchPath: opts.SearchPath,
		logger:     logger,
	}
}

// Run analyzes every path and returns the results in the order of paths.
// Per-file failures are reported in the results. The returned error is non-nil
// only for an empty batch or when ctx is canceled before all files were scheduled;
// in the latter case results for unscheduled files carry ctx.Err().
func (s *Scanner) Run(ctx context.Context, paths []string) ([]Result, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	results := make([]Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, path := range paths {
		if err := gctx.Err(); err != nil {
			for j := i; j < len(paths); j++ {
				results[j] = Result{Path: paths[j], Err: err}
			}
			break
		}
		i, path := i, path
		g.Go(func() error {
			results[i] = s.Analyze(path)
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("scan interrupted: %w", err)
	}
	return results, nil
}

// Analyze resolves, loads and classifies one file.
func (s *Scanner) Analyze(path string) Result {
	res := Result{Path: path}

	resolved, err := s.resolve(path)
	if err != nil {
		res.Err = err
		s.logger.Info("Failed to resolve file", "path", path, "error", err)
		return res
	}
	res.Resolved = resolved

	s.logger.Debug("Analyzing file", "path", path, "resolved", resolved)

	obj, err := s.loader.Load(resolved)
	if err != nil {
		res.Err = err
		s.logger.Info("Failed to load file", "path", path, "error", err)
		return res
	}

	switch o := obj.(type) {
	case *elfmeta.ELF:
		profile := checksec.Classify(o.Metadata)
		res.Profile = &profile
		s.logger.Debug("Classified file",
			"path", path,
			"arch", profile.Architecture,
			"relro", profile.Relro,
			"pie", profile.PIE)
	case *elfmeta.Unsupported:
		res.Unsupported = o
		res.Err = objfile.NewError(objfile.UnsupportedFormat, resolved, errors.New(o.Format.String()))
		s.logger.Info("Unsupported object format", "path", path, "format", o.Format, "detail", o.Detail)
	default:
		res.Err = objfile.NewError(objfile.MalformedInput, resolved, fmt.Errorf("unexpected object %T", obj))
	}
	return res
}

func (s *Scanner) resolve(name string) (string, error) {
	if !s.searchPath {
		return name, nil
	}
	resolved, err := s.lookPath(name)
	if err != nil {
		return "", objfile.NewError(objfile.NotFound, name, err)
	}
	return resolved, nil
}
