package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sora.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db:
  path: /var/lib/sora/sora.db
api:
  endpoint: https://example.test/search.json
  resource_id: abc-123
  timeout_sec: 10
sync:
  page_size: 50
  max_attempts: 5
  backoff_ms: 250
`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/sora/sora.db", cfg.DB.Path)
	assert.Equal(t, "https://example.test/search.json", cfg.API.Endpoint)
	assert.Equal(t, "abc-123", cfg.API.ResourceID)
	assert.Equal(t, 10, cfg.API.TimeoutSec)
	assert.Equal(t, 50, cfg.Sync.PageSize)
	assert.Equal(t, 5, cfg.Sync.MaxAttempts)
	assert.Equal(t, 250, cfg.Sync.BackoffMS)
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sora.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"db":{"path":"x.db"}}`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x.db", cfg.DB.Path)

	// Unspecified sections keep the defaults.
	assert.Equal(t, 100, cfg.Sync.PageSize)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sora.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  timeout_sec: 5\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.API.TimeoutSec)
	assert.Equal(t, "./sora.db", cfg.DB.Path)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SORA_DB_PATH", "/tmp/env.db")
	t.Setenv("SORA_RESOURCE_ID", "env-resource")
	t.Setenv("SORA_PAGE_SIZE", "25")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.db", cfg.DB.Path)
	assert.Equal(t, "env-resource", cfg.API.ResourceID)
	assert.Equal(t, 25, cfg.Sync.PageSize)
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db path", func(c *Config) { c.DB.Path = "" }},
		{"zero timeout", func(c *Config) { c.API.TimeoutSec = 0 }},
		{"zero page size", func(c *Config) { c.Sync.PageSize = 0 }},
		{"zero attempts", func(c *Config) { c.Sync.MaxAttempts = 0 }},
		{"negative backoff", func(c *Config) { c.Sync.BackoffMS = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	for _, ext := range []string{"yaml", "json"} {
		path := filepath.Join(dir, "sora."+ext)

		orig := Default()
		orig.API.ResourceID = "round-trip"
		require.NoError(t, orig.SaveToFile(path))

		loaded, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, orig, loaded)
	}
}
