package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secgate-io/secgate/pkg/shared/errors"
)

func baseConfig(t *testing.T) *Config {
	t.Helper()
	home := t.TempDir()
	t.Setenv("SECGATE_HOME", home)
	t.Setenv("SECGATE_RESULTS_FOLDER", "")
	t.Setenv("SECGATE_PLUGINS_FOLDER", "")
	t.Setenv("SECGATE_PROJECT_PATH", "")
	t.Setenv("SECGATE_MODE", "")
	t.Setenv("CI", "")

	cfg := &Config{}
	cfg.Secgate.ProjectPath = t.TempDir()
	return cfg
}

func TestValidateConfigFillsDefaults(t *testing.T) {
	cfg := baseConfig(t)

	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, filepath.Join(GetSecgateHome(cfg), "results"), GetResultsHome(cfg))
	assert.Equal(t, filepath.Join(GetSecgateHome(cfg), "plugins"), GetPluginsFolder(cfg))
	assert.Equal(t, "development", cfg.Secgate.Environment)
	assert.Equal(t, "user", cfg.Secgate.Mode)
	assert.Equal(t, 10*time.Second, cfg.HTTPClient.Timeout)

	_, err := os.Stat(GetResultsHome(cfg))
	assert.NoError(t, err)
}

func TestValidateConfigRequiresProjectPath(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Secgate.ProjectPath = ""

	err := ValidateConfig(cfg)
	require.Error(t, err)

	var cfgErr *errors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "secgate.project_path", cfgErr.Field)
}

func TestValidateConfigEnvOverrides(t *testing.T) {
	cfg := baseConfig(t)
	projectPath := t.TempDir()
	resultsFolder := filepath.Join(t.TempDir(), "results-override")
	t.Setenv("SECGATE_PROJECT_PATH", projectPath)
	t.Setenv("SECGATE_RESULTS_FOLDER", resultsFolder)

	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, projectPath, cfg.Secgate.ProjectPath)
	assert.Equal(t, resultsFolder, GetResultsHome(cfg))
}

func TestValidateConfigCIMode(t *testing.T) {
	cfg := baseConfig(t)
	t.Setenv("CI", "true")

	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, "CI", cfg.Secgate.Mode)
	assert.True(t, IsCI(cfg))
}

func TestValidateConfigRejectsBadHTTPSettings(t *testing.T) {
	cfg := baseConfig(t)
	cfg.HTTPClient.RetryCount = 50

	assert.Error(t, ValidateConfig(cfg))

	cfg = baseConfig(t)
	cfg.HTTPClient.Timeout = -time.Second
	assert.Error(t, ValidateConfig(cfg))
}

func TestLoadConfigMissingFileYieldsZeroConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoadConfigReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
secgate:
  project_path: /srv/app
  environment: production
logger:
  level: debug
notify:
  webhook_url: https://hooks.example.com/secgate
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/app", cfg.Secgate.ProjectPath)
	assert.Equal(t, "production", cfg.Secgate.Environment)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "https://hooks.example.com/secgate", cfg.Notify.WebhookURL)
}
