package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/secgate-io/secgate/pkg/shared/errors"
	"github.com/secgate-io/secgate/pkg/shared/files"
)

// ValidateConfig checks the global configuration, applies environment
// overrides and fills defaults. A missing or empty project path is a hard
// ConfigurationError.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.NewConfigurationError("config", "configuration object is nil")
	}
	if err := validateSecgateConfig(cfg); err != nil {
		return fmt.Errorf("secgate directive is invalid: %w", err)
	}
	if err := validateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("http_client directive is invalid: %w", err)
	}
	return nil
}

// validateSecgateConfig resolves home, results and plugins folders and the
// project path.
func validateSecgateConfig(cfg *Config) error {
	if err := updateHome(cfg); err != nil {
		return fmt.Errorf("failed to update home folder: %w", err)
	}
	if err := updateFolder(&cfg.Secgate.ResultsFolder, "SECGATE_RESULTS_FOLDER", "results", cfg); err != nil {
		return fmt.Errorf("failed to update results folder: %w", err)
	}
	if err := updateFolder(&cfg.Secgate.PluginsFolder, "SECGATE_PLUGINS_FOLDER", "plugins", cfg); err != nil {
		return fmt.Errorf("failed to update plugins folder: %w", err)
	}
	updateProjectPath(cfg)
	updateMode(cfg)

	if cfg.Secgate.ProjectPath == "" {
		return errors.NewConfigurationError("secgate.project_path", "required project path is missing or empty")
	}

	expanded, err := files.ExpandPath(cfg.Secgate.ProjectPath)
	if err != nil {
		return fmt.Errorf("failed to expand project path %q: %w", cfg.Secgate.ProjectPath, err)
	}
	cfg.Secgate.ProjectPath = expanded

	if cfg.Secgate.Environment == "" {
		cfg.Secgate.Environment = "development"
	}
	return nil
}

// validateHTTPConfig checks the outbound HTTP settings and fills defaults.
func validateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"RetryMaxWaitTime": httpConfig.RetryMaxWaitTime,
		"RetryWaitTime":    httpConfig.RetryWaitTime,
		"Timeout":          httpConfig.Timeout,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 100*time.Second); err != nil {
			return err
		}
	}

	if httpConfig.Timeout == 0 {
		httpConfig.Timeout = 10 * time.Second
	}
	return nil
}

// validateDuration checks that a time.Duration is within bounds.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %q: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%q duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

// updateHome resolves the home folder from env or default.
func updateHome(cfg *Config) error {
	if homeFolder := os.Getenv("SECGATE_HOME"); homeFolder != "" {
		cfg.Secgate.HomeFolder = homeFolder
	} else if cfg.Secgate.HomeFolder == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("unable to get user home folder: %w", err)
		}
		cfg.Secgate.HomeFolder = filepath.Join(userHome, ".secgate")
	}

	expandedHomePath, err := files.ExpandPath(cfg.Secgate.HomeFolder)
	if err != nil {
		return fmt.Errorf("failed to expand home path %q: %w", cfg.Secgate.HomeFolder, err)
	}
	cfg.Secgate.HomeFolder = expandedHomePath

	if err := files.CreateFolderIfNotExists(expandedHomePath); err != nil {
		return fmt.Errorf("failed to create home folder %q: %w", cfg.Secgate.HomeFolder, err)
	}
	return nil
}

// updateFolder resolves a folder path from env, config or default, and
// creates it.
func updateFolder(folder *string, envVar, defaultSubFolder string, cfg *Config) error {
	if envVarValue := os.Getenv(envVar); envVarValue != "" {
		*folder = envVarValue
	} else if *folder == "" {
		*folder = filepath.Join(GetSecgateHome(cfg), defaultSubFolder)
	}

	expandedPath, err := files.ExpandPath(*folder)
	if err != nil {
		return fmt.Errorf("failed to expand path %q: %w", *folder, err)
	}
	*folder = expandedPath

	if err := files.CreateFolderIfNotExists(expandedPath); err != nil {
		return fmt.Errorf("failed to create folder %q: %w", expandedPath, err)
	}
	return nil
}

// updateProjectPath applies the env override for the project path.
func updateProjectPath(cfg *Config) {
	if projectPath := os.Getenv("SECGATE_PROJECT_PATH"); projectPath != "" {
		cfg.Secgate.ProjectPath = projectPath
	}
}

// updateMode sets the run mode from environment variables.
func updateMode(cfg *Config) {
	if os.Getenv("SECGATE_MODE") == "CI" || os.Getenv("CI") == "true" {
		cfg.Secgate.Mode = "CI"
		return
	}

	if envVarValue := os.Getenv("SECGATE_MODE"); envVarValue != "" {
		cfg.Secgate.Mode = envVarValue
		return
	}

	cfg.Secgate.Mode = "user"
}
