// Package config manages configuration for the connector CLI.
// It uses Viper for unified configuration management from the config file,
// environment variables, and flags; environment variables take precedence
// over file values.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/kartallu/connector/internal/constants"
)

// File and directory permissions for the config file.
const (
	configDirPermissions  = 0o700
	configFilePermissions = 0o600
)

// Config holds the persistent settings of the connector CLI.
type Config struct {
	// Project is the home project: the project that owns the service account
	// and, absent an organization ID, the custom role.
	Project string `mapstructure:"project" yaml:"project"`
	// OrgID switches the custom role scope from project to organization.
	OrgID string `mapstructure:"org_id" yaml:"org_id" validate:"omitempty,number"`
	// KeyDir is where issued service account keys and cleanup manifests are
	// written. Defaults to the current working directory.
	KeyDir   string `mapstructure:"key_dir" yaml:"key_dir" validate:"omitempty,dir"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

var validate = validator.New()

// Load loads the configuration using Viper.
// Sources, in ascending precedence: ~/.connector/config.yaml, then
// environment variables with the CONNECTOR_ prefix.
func Load() (*Config, error) {
	v := viper.New()

	if err := loadConfigFile(v); err != nil {
		// A missing config file is fine; everything can come from env/flags.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	v.SetEnvPrefix("CONNECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Save saves the configuration to the user's home directory.
// Overwrites the existing config file if it exists.
func Save(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("error resolving home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, constants.ConfigDirName)
	if err = os.MkdirAll(configDir, configDirPermissions); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	configFilePath := filepath.Join(configDir, constants.ConfigFileName)

	v := viper.New()
	v.Set("project", cfg.Project)
	v.Set("org_id", cfg.OrgID)
	v.Set("key_dir", cfg.KeyDir)
	v.Set("log_level", cfg.LogLevel)

	if err = v.WriteConfigAs(configFilePath); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	if err = os.Chmod(configFilePath, configFilePermissions); err != nil {
		return fmt.Errorf("error setting config file permissions: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error resolving home directory: %w", err)
	}
	return filepath.Join(homeDir, constants.ConfigDirName, constants.ConfigFileName), nil
}

// GetLogLevel returns the slog.Level from the string configuration.
// Defaults to INFO if the level string is invalid.
func (c *Config) GetLogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func loadConfigFile(v *viper.Viper) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("error resolving home directory: %w", err)
	}

	v.SetConfigName(strings.TrimSuffix(constants.ConfigFileName, filepath.Ext(constants.ConfigFileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir, constants.ConfigDirName))

	return v.ReadInConfig()
}

func bindEnvVars(v *viper.Viper) {
	for _, key := range []string{"project", "org_id", "key_dir", "log_level"} {
		_ = v.BindEnv(key)
	}
}
