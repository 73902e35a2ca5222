//go:build test

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    *Config
		wantErr error
	}{
		{
			name:    "empty file keeps defaults",
			content: "",
			want:    Default(),
		},
		{
			name: "all keys",
			content: `
format = "json"
color = "never"
workers = 4
log_level = "debug"
log_file = "/tmp/checksec.json"
strict = true
`,
			want: &Config{
				Format:   "json",
				Color:    "never",
				Workers:  4,
				LogLevel: "debug",
				LogFile:  "/tmp/checksec.json",
				Strict:   true,
			},
		},
		{
			name:    "partial file",
			content: `format = "table"`,
			want: &Config{
				Format:   "table",
				Color:    "auto",
				Workers:  runtime.NumCPU(),
				LogLevel: "warn",
			},
		},
		{
			name:    "unknown key",
			content: "colour = \"always\"\n",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "invalid format",
			content: `format = "xml"`,
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "invalid color",
			content: `color = "sometimes"`,
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "invalid log level",
			content: `log_level = "trace"`,
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "zero workers",
			content: `workers = 0`,
			wantErr: ErrInvalidWorkers,
		},
		{
			name:    "wrong type",
			content: `workers = "four"`,
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "syntax error",
			content: `format = `,
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.content))

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "checksec.toml")
		require.NoError(t, os.WriteFile(path, []byte("strict = true\n"), 0o600))

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.True(t, cfg.Strict)
	})

	t.Run("missing explicit path", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))

		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("default path from XDG_CONFIG_HOME", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", dir)
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "checksec"), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "checksec", "config.toml"), []byte(`format = "yaml"`), 0o600))

		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, "yaml", cfg.Format)
	})

	t.Run("missing default file", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())

		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("invalid file names the path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("workers = -1\n"), 0o600))

		_, err := Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
	})
}

func TestDefaultPath(t *testing.T) {
	env := func(vars map[string]string) func(string) (string, bool) {
		return func(k string) (string, bool) {
			v, ok := vars[k]
			return v, ok
		}
	}

	assert.Equal(t, "/xdg/checksec/config.toml",
		DefaultPath(env(map[string]string{"XDG_CONFIG_HOME": "/xdg", "HOME": "/home/u"})))
	assert.Equal(t, "/home/u/.config/checksec/config.toml",
		DefaultPath(env(map[string]string{"XDG_CONFIG_HOME": "relative", "HOME": "/home/u"})))
	assert.Equal(t, "", DefaultPath(env(nil)))
}
