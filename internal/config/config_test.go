package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFrom(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
		require.NoError(t, err)
		require.Equal(t, 3, cfg.Retry.MaxAttempts)
		require.Equal(t, 500*time.Millisecond, cfg.Retry.InitialBackoff())
		require.Equal(t, 1, cfg.Batch.Workers)
		require.NotEmpty(t, cfg.Paths.ScratchDir)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bulkpilot.toml")
		content := `
[paths]
scratch_dir = "/tmp/custom-scratch"

[retry]
max_attempts = 5
initial_backoff_ms = 250

[batch]
workers = 4
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		cfg, err := LoadFrom(path)
		require.NoError(t, err)
		require.Equal(t, "/tmp/custom-scratch", cfg.Paths.ScratchDir)
		require.Equal(t, 5, cfg.Retry.MaxAttempts)
		require.Equal(t, 250*time.Millisecond, cfg.Retry.InitialBackoff())
		require.Equal(t, 4, cfg.Batch.Workers)
	})

	t.Run("partial file keeps defaults for the rest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bulkpilot.toml")
		require.NoError(t, os.WriteFile(path, []byte("[batch]\nworkers = 2\n"), 0600))

		cfg, err := LoadFrom(path)
		require.NoError(t, err)
		require.Equal(t, 2, cfg.Batch.Workers)
		require.Equal(t, 3, cfg.Retry.MaxAttempts)
	})

	t.Run("out-of-range values are clamped", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bulkpilot.toml")
		content := `
[retry]
max_attempts = 0
initial_backoff_ms = -10

[batch]
workers = 0
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		cfg, err := LoadFrom(path)
		require.NoError(t, err)
		require.Equal(t, 1, cfg.Retry.MaxAttempts)
		require.Equal(t, 500*time.Millisecond, cfg.Retry.InitialBackoff())
		require.Equal(t, 1, cfg.Batch.Workers)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bulkpilot.toml")
		require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0600))

		_, err := LoadFrom(path)
		require.Error(t, err)
	})
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bulkpilot.toml")

	cfg := DefaultConfig()
	cfg.Batch.Workers = 3
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	require.Equal(t, 3, loaded.Batch.Workers)
	require.Equal(t, cfg.Paths.ScratchDir, loaded.Paths.ScratchDir)
}
