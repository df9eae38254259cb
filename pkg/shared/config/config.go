package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config is the global secgate configuration loaded from config.yml.
type Config struct {
	Secgate    Secgate    `yaml:"secgate"`
	Logger     Logger     `yaml:"logger"`
	HTTPClient HTTPClient `yaml:"http_client"`
	Notify     Notify     `yaml:"notify"`
}

// Secgate holds paths and mode of the local installation.
type Secgate struct {
	HomeFolder    string `yaml:"home_folder"`
	ProjectPath   string `yaml:"project_path"`
	ResultsFolder string `yaml:"results_folder"`
	PluginsFolder string `yaml:"plugins_folder"`
	GatesFile     string `yaml:"gates_file"`
	Environment   string `yaml:"environment"`
	Mode          string `yaml:"mode"`
}

// Logger holds logging settings.
type Logger struct {
	Level string `yaml:"level"`
}

// HTTPClient holds settings for outbound HTTP calls (notifications).
type HTTPClient struct {
	Debug            bool            `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
}

// TLSClientConfig holds TLS verification settings.
type TLSClientConfig struct {
	Verify bool `yaml:"verify"`
}

// Notify holds the notification sink settings.
type Notify struct {
	WebhookURL string `yaml:"webhook_url"`
}

// ValidateConfigPath checks that the given path points to a readable file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes a YAML file into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads and decodes the global configuration file. A missing file
// yields the zero Config so that validation can apply env vars and defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := LoadYAML(configPath, config); err != nil {
		return nil, err
	}

	return config, nil
}

// GetSecgateHome returns the configured home folder.
func GetSecgateHome(cfg *Config) string {
	return cfg.Secgate.HomeFolder
}

// GetResultsHome returns the folder where reports and exports are persisted.
func GetResultsHome(cfg *Config) string {
	return cfg.Secgate.ResultsFolder
}

// GetPluginsFolder returns the folder holding producer plugin binaries.
func GetPluginsFolder(cfg *Config) string {
	return cfg.Secgate.PluginsFolder
}

// IsCI reports whether secgate runs in CI mode.
func IsCI(cfg *Config) bool {
	return cfg.Secgate.Mode == "CI"
}
