// Package main provides the checksec command. It reports the exploit
// mitigations (RELRO, stack canary, NX, PIE, FORTIFY, RWX segments) of ELF
// binaries.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/3akur6/checksec/internal/color"
	"github.com/3akur6/checksec/internal/config"
	"github.com/3akur6/checksec/internal/logging"
	"github.com/3akur6/checksec/internal/objfile"
	"github.com/3akur6/checksec/internal/report"
	"github.com/3akur6/checksec/internal/scan"
	"github.com/3akur6/checksec/internal/terminal"
)

var (
	errNoFilesProvided = errors.New("at least one file must be provided as a positional argument or via --file")
	errNoFilesResolved = errors.New("none of the given files could be found")
)

type options struct {
	files      []string
	format     string
	color      string
	noColor    bool
	workers    int
	configPath string
	verbose    bool
	strict     bool
	logFile    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &options{}
	exitCode := 0

	cmd := newRootCommand(opts, func(cmd *cobra.Command, positional []string) {
		exitCode = execute(ctx, cmd, opts, positional, stdout, stderr)
	})
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		_, _ = fmt.Fprint(stderr, cmd.UsageString())
		return 1
	}
	return exitCode
}

func newRootCommand(opts *options, runFn func(*cobra.Command, []string)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checksec [flags] <file>...",
		Short: "Report exploit mitigations of ELF binaries",
		Long: `checksec inspects ELF binaries and reports RELRO, stack canary, NX, PIE,
FORTIFY_SOURCE and RWX segments.

With --file, every name (the --file values followed by any positional
arguments) is looked up on PATH like checksec.sh does.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run:           runFn,
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&opts.files, "file", nil, "Executable to look up on PATH and check (repeatable)")
	flags.StringVarP(&opts.format, "format", "f", "text", "Output format: text, json, yaml or table")
	flags.StringVar(&opts.color, "color", "auto", "Color output: auto, always or never")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable color output (same as --color=never)")
	flags.IntVarP(&opts.workers, "workers", "j", 0, "Number of files analyzed concurrently (default: number of CPUs)")
	flags.StringVar(&opts.configPath, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/checksec/config.toml)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&opts.strict, "strict", false, "Exit non-zero for unsupported or malformed files too")
	flags.StringVar(&opts.logFile, "log-file", "", "Append JSON logs to this file")
	cmd.MarkFlagsMutuallyExclusive("color", "no-color")

	return cmd
}

// effectiveConfig loads the config file and lays explicitly set flags over it.
func effectiveConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = opts.format
	}
	if flags.Changed("color") {
		cfg.Color = opts.color
	}
	if opts.noColor {
		cfg.Color = terminal.ColorNever.String()
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}
	if flags.Changed("strict") {
		cfg.Strict = opts.strict
	}
	if flags.Changed("log-file") {
		cfg.LogFile = opts.logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func execute(ctx context.Context, cmd *cobra.Command, opts *options, positional []string, stdout, stderr io.Writer) int {
	cfg, err := effectiveConfig(cmd, opts)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// Validate has already accepted these values.
	format, _ := report.ParseFormat(cfg.Format)
	mode, _ := terminal.ParseColorMode(cfg.Color)
	level, _ := logging.ParseLevel(cfg.LogLevel)

	logger, err := logging.Setup(logging.Config{Level: level, Console: stderr, LogFile: cfg.LogFile})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := logger.Close(); err != nil {
			_, _ = fmt.Fprintf(stderr, "Warning: failed to close log file: %v\n", err)
		}
	}()

	names := positional
	searchPath := len(opts.files) > 0
	if searchPath {
		names = append(append([]string(nil), opts.files...), positional...)
	}
	if len(names) == 0 {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", errNoFilesProvided)
		_, _ = fmt.Fprint(stderr, cmd.UsageString())
		return 1
	}

	scanner := scan.New(nil, scan.Options{
		Workers:    cfg.Workers,
		SearchPath: searchPath,
		Logger:     logger.Logger,
	})
	results, runErr := scanner.Run(ctx, names)
	if runErr != nil {
		logger.Warn("Scan did not complete", "error", runErr)
	}

	palette := color.NewPalette(terminal.NewCapabilities(mode, stdout).SupportsColor())
	rep := report.New(logger.RunID, results)
	if err := report.Write(stdout, stderr, rep, report.Options{Format: format, Palette: palette}); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	failures := 0
	for _, r := range results {
		if r.Failed(cfg.Strict) {
			failures++
		}
	}
	logger.Info("Scan finished", "files", len(results), "failures", failures, "strict", cfg.Strict)

	if runErr == nil && noneResolved(results) {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", errNoFilesResolved)
		_, _ = fmt.Fprint(stderr, cmd.UsageString())
	}

	if failures > 0 || runErr != nil {
		return 1
	}
	return 0
}

// noneResolved reports whether every result is a NotFound failure.
func noneResolved(results []scan.Result) bool {
	for _, r := range results {
		if kind, ok := r.Kind(); !ok || kind != objfile.NotFound {
			return false
		}
	}
	return len(results) > 0
}
