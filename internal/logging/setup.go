package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/oklog/ulid/v2"
)

const (
	logDirPerm  os.FileMode = 0o750
	logFilePerm os.FileMode = 0o600
)

// ErrInvalidLevel is returned by ParseLevel for unknown level names.
var ErrInvalidLevel = errors.New("invalid log level")

// Config holds all configuration for logger setup.
type Config struct {
	Level slog.Level

	// Console receives human-readable records. Nil means os.Stderr.
	Console io.Writer

	// LogFile, when set, receives JSON records appended to the file.
	LogFile string

	// RunID is attached to every record. Empty means a fresh NewRunID().
	RunID string
}

// Logger is a configured logger and the resources it holds.
type Logger struct {
	*slog.Logger

	RunID string

	file *os.File
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// NewRunID returns a new lexicographically sortable run id.
func NewRunID() string {
	return ulid.Make().String()
}

// Setup builds the logger described by cfg. It does not replace slog.Default;
// the caller decides whether to.
func Setup(cfg Config) (*Logger, error) {
	runID := cfg.RunID
	if runID == "" {
		runID = NewRunID()
	}
	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: cfg.Level}),
	}

	var file *os.File
	if cfg.LogFile != "" {
		f, err := openLogFile(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		file = f

		hostname, _ := os.Hostname()
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: cfg.Level}).
			WithAttrs([]slog.Attr{
				slog.String("hostname", hostname),
				slog.Int("pid", os.Getpid()),
			}))
	}

	handler := NewMultiHandler(handlers...).WithAttrs([]slog.Attr{slog.String("run_id", runID)})
	return &Logger{Logger: slog.New(handler), RunID: runID, file: file}, nil
}

// openLogFile opens path for appending, creating it and its directory as
// needed. A symlink at path is refused.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), logDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	// #nosec G304 - the log file path is chosen by the user running the tool
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND|syscall.O_NOFOLLOW, logFilePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// ParseLevel parses debug, info, warn (or warning) and error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("%w: %q (want debug, info, warn or error)", ErrInvalidLevel, s)
	}
}
