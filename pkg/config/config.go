/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Config represents the bitspec configuration
type Config struct {
	DataDir   string   `yaml:"data_dir" toml:"data_dir" default:"./data"`
	SchemaDir string   `yaml:"schema_dir" toml:"schema_dir" default:"./schemas"`
	Port      int      `yaml:"port" toml:"port" default:"8080"`
	Bind      string   `yaml:"bind" toml:"bind" default:"127.0.0.1"`
	Security  Security `yaml:"security" toml:"security"`
	Logging   Logging  `yaml:"logging" toml:"logging"`
	Limits    Limits   `yaml:"limits" toml:"limits"`
}

// Security contains security-related configuration
type Security struct {
	// APIKey guards the HTTP API. An empty key disables the check.
	APIKey string `yaml:"api_key" toml:"api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level" toml:"level" default:"info"`
	Format string `yaml:"format" toml:"format" default:"console"`
}

// Limits bounds the size of untrusted input
type Limits struct {
	MaxBufferBytes int `yaml:"max_buffer_bytes" toml:"max_buffer_bytes" default:"1048576"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	var config Config
	if err := defaults.Set(&config); err != nil {
		panic(err)
	}
	return &config
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig loads configuration from the specified path. Files ending in
// .toml are read as TOML, anything else as YAML. Settings missing from the
// file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isTOML(configPath) {
		err = toml.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks settings that have no usable fallback
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Limits.MaxBufferBytes <= 0 {
		return fmt.Errorf("limits.max_buffer_bytes must be positive")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	return nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	if isTOML(configPath) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(config); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(config); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig creates a new configuration with a generated API key and saves it
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
		config.SchemaDir = filepath.Join(dataDir, "schemas")
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	// Save the configuration
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./bitspec.yaml"
	}

	// For Linux/macOS, use ~/.config/bitspec/config.yaml
	configDir := filepath.Join(homeDir, ".config", "bitspec")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
