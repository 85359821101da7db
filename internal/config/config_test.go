package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"database_url": "postgres://localhost/placements",
		"allowed_senders": ["placements@college.edu", "college.edu"],
		"similarity_threshold": 0.9
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/placements", cfg.DatabaseURL)
	assert.Equal(t, []string{"placements@college.edu", "college.edu"}, cfg.AllowedSenders)
	assert.Equal(t, 0.9, cfg.SimilarityThreshold)
	assert.Equal(t, "@every 5m", cfg.SyncSpec, "defaults applied")
	assert.Equal(t, ":8080", cfg.ServerAddr)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"database_url": "postgres://file/db"}`), 0o600))

	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("ALLOWED_SENDERS", "a@x.edu, b@y.edu")
	t.Setenv("PIPELINE_CONCURRENCY", "8")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	assert.Equal(t, []string{"a@x.edu", "b@y.edu"}, cfg.AllowedSenders)
	assert.Equal(t, 8, cfg.Concurrency)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://x", SimilarityThreshold: 1.5}
	assert.Error(t, cfg.Validate())

	cfg = &Config{DatabaseURL: "postgres://x", LogLevel: "loud"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{DatabaseURL: "postgres://x", LogLevel: "debug"}
	assert.NoError(t, cfg.Validate())
}
