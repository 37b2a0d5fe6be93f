package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readrum/internal/extract"
)

func TestLoadDefaults(t *testing.T) {
	// Not parallel: depends on the working directory not holding a config.
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.MinTokenLength)
	assert.Equal(t, extract.DefaultExtensions, cfg.Extensions)
	assert.Equal(t, ".bak", cfg.BackupSuffix)
	assert.Equal(t, "warn", cfg.Logging)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "readrum.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"min-token-length: 16\nextensions: [wav, flac]\nbackup-suffix: .orig\nlogging: debug\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.MinTokenLength)
	assert.Equal(t, []string{"wav", "flac"}, cfg.Extensions)
	assert.Equal(t, ".orig", cfg.BackupSuffix)
	assert.Equal(t, "debug", cfg.Logging)

	opts := cfg.ExtractOptions()
	assert.Equal(t, 16, opts.MinTokenLen)
	assert.Equal(t, []string{"wav", "flac"}, opts.Extensions)
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "readrum.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging: info\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging)
	assert.Equal(t, 20, cfg.MinTokenLength)
	assert.Equal(t, extract.DefaultExtensions, cfg.Extensions)
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
