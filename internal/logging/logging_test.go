//go:build test

package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errHandler = errors.New("handler error")

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errHandler }

func TestMultiHandler(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	debugH := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	warnH := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := slog.New(NewMultiHandler(debugH, warnH).WithGroup("scan").WithAttrs([]slog.Attr{slog.String("path", "/bin/ls")}))
	logger.Debug("Analyzing file")
	logger.Warn("Failed to load file")

	assert.Contains(t, debugBuf.String(), "Analyzing file")
	assert.Contains(t, debugBuf.String(), "Failed to load file")
	assert.Contains(t, debugBuf.String(), "scan.path=/bin/ls")
	assert.NotContains(t, warnBuf.String(), "Analyzing file")
	assert.Contains(t, warnBuf.String(), "Failed to load file")
}

func TestMultiHandler_Enabled(t *testing.T) {
	warnH := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelError))
	assert.False(t, NewMultiHandler(warnH).Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, NewMultiHandler(warnH).Enabled(context.Background(), slog.LevelWarn))
}

func TestMultiHandler_JoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	ok := slog.NewTextHandler(&buf, nil)
	bad := failingHandler{Handler: ok}

	err := NewMultiHandler(bad, ok, bad).Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0))

	require.Error(t, err)
	assert.ErrorIs(t, err, errHandler)
	assert.Contains(t, buf.String(), "msg", "a failing handler must not stop the others")
}

func TestSetup_Console(t *testing.T) {
	var console bytes.Buffer

	logger, err := Setup(Config{Level: slog.LevelWarn, Console: &console, RunID: "run-1"})
	require.NoError(t, err)
	defer func() { assert.NoError(t, logger.Close()) }()

	logger.Info("hidden")
	logger.Warn("Failed to load file", "path", "/bin/x")

	out := console.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Failed to load file")
	assert.Contains(t, out, "run_id=run-1")
	assert.Equal(t, "run-1", logger.RunID)
}

func TestSetup_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "checksec.json")

	logger, err := Setup(Config{Level: slog.LevelDebug, Console: &bytes.Buffer{}, LogFile: path})
	require.NoError(t, err)

	logger.Debug("Analyzing file", "path", "/bin/ls")
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close(), "Close is idempotent")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	var rec map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
	assert.Equal(t, "Analyzing file", rec["msg"])
	assert.Equal(t, "/bin/ls", rec["path"])
	assert.Equal(t, logger.RunID, rec["run_id"])
	assert.Contains(t, rec, "pid")

	_, err = ulid.ParseStrict(logger.RunID)
	assert.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, logFilePerm, info.Mode().Perm())
}

func TestSetup_LogFileSymlinkRefused(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	require.NoError(t, os.WriteFile(target, nil, 0o600))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))

	_, err := Setup(Config{Console: &bytes.Buffer{}, LogFile: link})

	assert.Error(t, err)
}

func TestNewRunID_Unique(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, ulid.EncodedSize)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
