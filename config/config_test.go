package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := def()
	assert.Equal(t, ":8081", cfg.Addr())
	assert.Equal(t, "configurations", cfg.ConfigRoot)
	assert.Empty(t, cfg.MongoURI)
	assert.False(t, cfg.AutoProcess)
	assert.Equal(t, 1, cfg.Parallelism)
}

func TestJSONFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"port": "9090",
		"configRoot": "/etc/vellum",
		"mongoUri": "mongodb://localhost:27017",
		"autoProcess": true
	}`), 0o644))

	cfg, err := loadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/etc/vellum", cfg.ConfigRoot)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.True(t, cfg.AutoProcess)
	// Untouched fields keep their defaults.
	assert.Equal(t, "vellum", cfg.MongoDatabase)
}

func TestJSONFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := loadJSON(path)
	assert.Error(t, err)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("VELLUM_PORT", "7070")
	t.Setenv("VELLUM_LOAD_TEST_DATA", "true")
	t.Setenv("VELLUM_PARALLELISM", "4")
	t.Setenv("VELLUM_MAX_DEPTH", "25")

	cfg := applyEnv(def())
	assert.Equal(t, "7070", cfg.Port)
	assert.True(t, cfg.LoadTestData)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, 25, cfg.MaxDepth)
}

func TestFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port": "9090", "parallelism": 2}`), 0o644))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := load(path, fs, []string{"-port", "7070"})

	assert.Equal(t, "7070", cfg.Port, "explicit flag wins over the file")
	assert.Equal(t, 2, cfg.Parallelism, "unset flags keep the file's values")
}

func TestRedirectedConfigFileKeepsExplicitFlags(t *testing.T) {
	dir := t.TempDir()
	defaultPath := filepath.Join(dir, "config.json")
	otherPath := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(otherPath, []byte(`{"port": "9090", "configRoot": "/srv/vellum"}`), 0o644))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := load(defaultPath, fs, []string{"-config", otherPath, "-port", "7070"})

	assert.Equal(t, "7070", cfg.Port, "explicit flag wins over the redirected file")
	assert.Equal(t, "/srv/vellum", cfg.ConfigRoot, "redirected file supplies the rest")
}

func TestEnvironmentIgnoresBlankAndMalformed(t *testing.T) {
	t.Setenv("VELLUM_PORT", "   ")
	t.Setenv("VELLUM_PARALLELISM", "many")
	t.Setenv("VELLUM_AUTO_PROCESS", "maybe")

	cfg := applyEnv(def())
	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, 1, cfg.Parallelism)
	assert.False(t, cfg.AutoProcess)
}
