package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, []string{".jsp", ".jspf", ".tag"}, cfg.Extensions)
	assert.Empty(t, cfg.Rules)
	assert.Zero(t, cfg.Workers)
}

func TestLoadDefaultFileFromWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, DefaultFile, "workers: 3\nrules: custom.yaml\n")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "custom.yaml", cfg.Rules)
}

func TestLoadExplicitFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "tagmig.yaml", `
log:
  level: debug
  format: json
extensions: [jsp, ".inc"]
exclude: ["**/vendor/**"]
workers: 2
cache_dir: .cache
metrics_file: metrics.prom
`)

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, Log{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, []string{".jsp", ".inc"}, cfg.Extensions)
	assert.Equal(t, []string{"**/vendor/**"}, cfg.Exclude)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, ".cache", cfg.CacheDir)
	assert.Equal(t, "metrics.prom", cfg.MetricsFile)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{"negative workers", "workers: -1\n"},
		{"unknown format", "log:\n  format: xml\n"},
		{"malformed yaml", "log: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, t.TempDir(), "c.yaml", tt.content)
			_, err := Load(New(), path)
			assert.Error(t, err)
		})
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("TAGMIG_LOG_LEVEL", "error")
	t.Setenv("TAGMIG_WORKERS", "7")
	path := writeFile(t, t.TempDir(), "c.yaml", "log:\n  level: debug\n")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 7, cfg.Workers)
}

func TestWriteThenLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out.yaml")
	want := Default()
	want.Workers = 4

	require.NoError(t, Write(path, want))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, want.Workers, cfg.Workers)
	assert.Equal(t, want.Extensions, cfg.Extensions)
	assert.Equal(t, want.Log, cfg.Log)
}
