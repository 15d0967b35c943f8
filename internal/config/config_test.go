package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/campaign-evaluation/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "DB_USER", "DB_HOST", "SESSION_TTL", "UNPACK_VIRTUAL_ROWS", "LOOKUP_LIMIT", "RECALC_QUEUE"} {
		t.Setenv(key, "")
	}

	cfg, loaded, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.False(t, loaded)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "evaluation_recalculations", cfg.RecalcQueue)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.False(t, cfg.UnpackVirtualRows)
	assert.Equal(t, 10, cfg.LookupLimit)
}

func TestLoadFromFile(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "SESSION_TTL", "UNPACK_VIRTUAL_ROWS", "DUPLICATE_AB_MESSAGE"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	path := filepath.Join(t.TempDir(), ".env")
	content := "HTTP_ADDR=:9090\nSESSION_TTL=5m\nUNPACK_VIRTUAL_ROWS=true\nDUPLICATE_AB_MESSAGE=must be unique\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, loaded, err := config.Load(path)
	require.NoError(t, err)

	assert.True(t, loaded)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.UnpackVirtualRows)
	assert.Equal(t, "must be unique", cfg.DuplicateABMessage)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")

	_, _, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "SESSION_TTL")
}

func TestDSN(t *testing.T) {
	cfg := &config.Config{DB: config.DBConfig{
		User: "app", Password: "p@ss", Host: "db", Port: "5432", Name: "eval", SSLMode: "disable",
	}}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/eval?sslmode=disable", cfg.DSN())
}
