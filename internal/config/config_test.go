package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	_, vr := NormalizeAndValidate(Default())
	assert.True(t, vr.OK(), "errors: %v", vr.Errors)
}

func TestNormalizeAndValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Import.ChunkSize = 0
	cfg.Geocode.Provider = " HTTP "
	cfg.Geocode.Endpoint = ""
	cfg.Cache.Backend = "memcached"

	out, vr := NormalizeAndValidate(cfg)
	require.False(t, vr.OK())
	assert.Equal(t, "http", out.Geocode.Provider)
	assert.Contains(t, vr.Errors, "import.chunk_size must be > 0")
	assert.Contains(t, vr.Errors, "geocode.endpoint is required when geocode.provider=http")
	assert.Contains(t, vr.Errors, `cache.backend must be memory or redis (got "memcached")`)
}

func TestNormalizeAndValidateCapsChunkSize(t *testing.T) {
	cfg := Default()
	cfg.Import.ChunkSize = 2000
	_, vr := NormalizeAndValidate(cfg)
	require.False(t, vr.OK())
	assert.Contains(t, vr.Errors, "import.chunk_size must be <= 1820 (got 2000)")

	cfg.Import.ChunkSize = 1820
	_, vr = NormalizeAndValidate(cfg)
	assert.True(t, vr.OK(), "errors: %v", vr.Errors)
	assert.NotEmpty(t, vr.Warnings)
}

func TestNormalizeAndValidateWarnsOnInvertedAgeDefaults(t *testing.T) {
	cfg := Default()
	cfg.Import.DefaultMinAge = 65
	_, vr := NormalizeAndValidate(cfg)
	assert.True(t, vr.OK())
	assert.NotEmpty(t, vr.Warnings)
}

func TestEnsureUserConfigFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	path, err := EnsureUserConfig(dir, filepath.Join(dir, "missing.yml"))
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Import.ChunkSize)
	assert.Equal(t, "Malaysia", cfg.Geocode.DefaultCountry)
}

func TestSaveAtomicKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, SaveAtomic(path, Default()))

	cfg := Default()
	cfg.Import.ChunkSize = 25
	require.NoError(t, SaveAtomic(path, cfg))

	_, err := os.Stat(path + ".bak")
	require.NoError(t, err)
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, got.Import.ChunkSize)
}

func TestSaveAtomicRejectsInvalid(t *testing.T) {
	cfg := Default()
	cfg.App.Port = 0
	err := SaveAtomic(filepath.Join(t.TempDir(), "config.yml"), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.port")
}

func TestOverlayEnv(t *testing.T) {
	t.Setenv("JOBMATCH_PORT", "40000")
	t.Setenv("JOBMATCH_GEOCODE_API_KEY", "secret")
	t.Setenv("JOBMATCH_REDIS_ADDR", "localhost:6379")

	o, err := ReadEnvOverrides()
	require.NoError(t, err)

	cfg := Default()
	OverlayEnv(&cfg, o)
	assert.Equal(t, 40000, cfg.App.Port)
	assert.Equal(t, "secret", cfg.Geocode.APIKey)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, ".", cfg.App.DataDir)
}

func TestLoadEnvFilesSkipsMissing(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("JOBMATCH_TEST_ONLY=1\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("JOBMATCH_TEST_ONLY") })

	n, err := LoadEnvFiles(filepath.Join(dir, ".env.local"), envPath)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "1", os.Getenv("JOBMATCH_TEST_ONLY"))
}
