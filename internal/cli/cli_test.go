package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/proformagrid/internal/app"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		args     []string
		want     *app.Config
		wantExit bool
		wantCode int
		wantErr  string
	}{
		{
			name: "positional path with defaults",
			args: []string{"model.hcl"},
			want: &app.Config{
				ModelPaths:   []string{"model.hcl"},
				LogFormat:    "text",
				LogLevel:     "info",
				Output:       "json",
				SnapshotName: "model.hcl",
			},
		},
		{
			name: "all options",
			args: []string{
				"-m", "models", "-log-level", "DEBUG", "-log-format", "json", "-output", "yaml",
				"-store", "sqlite://s.db", "-snapshot-name", "base", "-check", "extra.yaml",
			},
			want: &app.Config{
				ModelPaths:   []string{"models", "extra.yaml"},
				LogFormat:    "json",
				LogLevel:     "debug",
				Output:       "yaml",
				StoreDSN:     "sqlite://s.db",
				SnapshotName: "base",
				Check:        true,
			},
		},
		{
			name: "deps",
			args: []string{"-model", "m.hcl", "-deps", "net"},
			want: &app.Config{
				ModelPaths:   []string{"m.hcl"},
				LogFormat:    "text",
				LogLevel:     "info",
				Output:       "json",
				SnapshotName: "m.hcl",
				Deps:         "net",
			},
		},
		{name: "help", args: []string{"-h"}, wantExit: true},
		{name: "no path", args: []string{}, wantExit: true},
		{name: "unknown flag", args: []string{"-bogus"}, wantCode: 2, wantErr: "flag provided but not defined"},
		{name: "bad log format", args: []string{"-log-format", "xml", "m.hcl"}, wantCode: 2, wantErr: "invalid log-format"},
		{name: "bad log level", args: []string{"-log-level", "trace", "m.hcl"}, wantCode: 2, wantErr: "invalid log-level"},
		{name: "bad output", args: []string{"-output", "csv", "m.hcl"}, wantCode: 2, wantErr: `invalid output "csv"`},
		{name: "missing env file", args: []string{"-env-file", "does-not-exist.env", "m.hcl"}, wantCode: 2, wantErr: "failed to read env file"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			out := &bytes.Buffer{}

			// --- Act ---
			cfg, exit, err := Parse(tc.args, out)

			// --- Assert ---
			if tc.wantErr != "" {
				var exitErr *ExitError
				require.True(t, errors.As(err, &exitErr), "expected ExitError, got %v", err)
				assert.Equal(t, tc.wantCode, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, exit)
			if tc.wantExit {
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			assert.Equal(t, tc.want, cfg)
		})
	}
}

func TestParse_EnvFile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	envFile := filepath.Join(t.TempDir(), "test.env")
	content := "PROFORMAGRID_OUTPUT=yaml\nPROFORMAGRID_STORE=sqlite://from-env.db\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// --- Act ---
	cfg, _, err := Parse([]string{"-env-file", envFile, "-store", "sqlite://flag.db", "m.hcl"}, &bytes.Buffer{})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output)
	assert.Equal(t, "sqlite://flag.db", cfg.StoreDSN, "flags win over the env file")
}
