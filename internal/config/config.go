// Package config manages application configuration from files and environment.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Provider        string `mapstructure:"provider"`
	Model           string `mapstructure:"model"`
	RemoveThreshold int    `mapstructure:"remove_threshold"`
	KeywordsFile    string `mapstructure:"keywords_file"`
	Output          struct {
		Color bool `mapstructure:"color"`
	} `mapstructure:"output"`
	History struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"history"`
}

// Load reads the configuration from ~/.sheetcheck/config.yaml and
// SHEETCHECK_* environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(Dir())

	// Defaults
	v.SetDefault("provider", "anthropic")
	v.SetDefault("model", "")
	v.SetDefault("remove_threshold", 5)
	v.SetDefault("output.color", true)
	v.SetDefault("history.enabled", true)

	v.SetEnvPrefix("SHEETCHECK")
	v.AutomaticEnv()

	// Config file is optional
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Dir returns the configuration directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sheetcheck"
	}
	return filepath.Join(home, ".sheetcheck")
}
