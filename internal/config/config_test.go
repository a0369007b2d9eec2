package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: "9090"
  debug: true
ml:
  type: gemini
  gemini:
    model: gemini-test
backend:
  url: http://vision.local
  timeout: 5s
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "./static", cfg.Server.StaticDir)
	assert.Equal(t, "ecoscan.db", cfg.Database.Path)
	assert.Equal(t, "gemini", cfg.ML.Type)
	assert.Equal(t, "gemini-test", cfg.ML.Gemini.Model)
	assert.Equal(t, "http://vision.local", cfg.Backend.URL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.EqualValues(t, 10<<20, cfg.Upload.MaxBytes)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"server":{"port":"8081","static_dir":"web"},"database":{"path":"x.db"}}`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "web", cfg.Server.StaticDir)
	assert.Equal(t, "x.db", cfg.Database.Path)
	assert.Equal(t, "local", cfg.ML.Type)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("ECOSCAN_SERVER_PORT", "7000")
	t.Setenv("ECOSCAN_ML_LOCAL_SEED", "99")
	t.Setenv("ECOSCAN_LOGGING_LEVEL", "debug")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.EqualValues(t, 99, cfg.ML.Local.Seed)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigRequiresPort(t *testing.T) {
	t.Setenv("ECOSCAN_SERVER_PORT", "")
	_, err := LoadConfig(writeFile(t, "config.yaml", "database:\n  path: a.db\n"))
	assert.ErrorContains(t, err, "server port")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetConfigPathFromEnv(t *testing.T) {
	t.Setenv("ECOSCAN_CONFIG", "/etc/ecoscan.yaml")
	assert.Equal(t, "/etc/ecoscan.yaml", GetConfigPath())
}
