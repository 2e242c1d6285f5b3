package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "REDIS_ADDR", "DEFAULT_BUNDLE_RATE", "IMPORT_MAX_ROWS", "REPORT_CACHE_TTL_SECONDS", "CONFIG_FILE", "TIMEZONE"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Empty(t, cfg.DatabaseURL)
	assert.True(t, cfg.DefaultBundleRate.IsZero())
	assert.Equal(t, 5000, cfg.ImportMaxRows)
	assert.Equal(t, 5*time.Minute, cfg.ReportCacheTTL())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_BUNDLE_RATE", "12.50")
	t.Setenv("REPORT_CACHE_TTL_SECONDS", "-4")
	t.Setenv("TIMEZONE", "Asia/Kolkata")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "12.5", cfg.DefaultBundleRate.String())
	assert.Equal(t, 300, cfg.ReportCacheTTLSeconds)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestLoadRejectsBadBundleRate(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DEFAULT_BUNDLE_RATE", "ten")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadLayersConfigFileUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bahikhata.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\nimport_max_rows: 20\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("IMPORT_MAX_ROWS", "")
	require.NoError(t, os.Unsetenv("IMPORT_MAX_ROWS"))
	t.Setenv("PORT", "7100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7100", cfg.Port)
	assert.Equal(t, 20, cfg.ImportMaxRows)
}
