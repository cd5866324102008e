package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "./data", config.DataDir)
	assert.Equal(t, "./schemas", config.SchemaDir)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, "127.0.0.1", config.Bind)
	assert.Empty(t, config.Security.APIKey)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "console", config.Logging.Format)
	assert.Equal(t, 1<<20, config.Limits.MaxBufferBytes)
	assert.NoError(t, config.Validate())
}

func TestGenerateSecureKey(t *testing.T) {
	t.Run("generate 32 byte key", func(t *testing.T) {
		key, err := GenerateSecureKey(32)
		require.NoError(t, err)
		assert.Len(t, key, 64) // 32 bytes = 64 hex characters

		// Verify it's valid hex
		_, err = hex.DecodeString(key)
		assert.NoError(t, err)
	})

	t.Run("keys are unique", func(t *testing.T) {
		key1, err := GenerateSecureKey(16)
		require.NoError(t, err)
		key2, err := GenerateSecureKey(16)
		require.NoError(t, err)

		assert.NotEqual(t, key1, key2)
	})

	t.Run("zero length", func(t *testing.T) {
		key, err := GenerateSecureKey(0)
		require.NoError(t, err)
		assert.Empty(t, key)
	})
}

func testConfig() *Config {
	return &Config{
		DataDir:   "/custom/data",
		SchemaDir: "/custom/schemas",
		Port:      9000,
		Bind:      "0.0.0.0",
		Security: Security{
			APIKey: "test-api-key",
		},
		Logging: Logging{
			Level:  "debug",
			Format: "json",
		},
		Limits: Limits{
			MaxBufferBytes: 4096,
		},
	}
}

func TestLoadConfig(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run("round trip "+name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), name)
			expectedConfig := testConfig()

			require.NoError(t, SaveConfig(expectedConfig, configPath))

			loadedConfig, err := LoadConfig(configPath)
			require.NoError(t, err)
			assert.Equal(t, expectedConfig, loadedConfig)
		})
	}

	t.Run("partial file keeps defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "partial.toml")
		require.NoError(t, os.WriteFile(configPath, []byte("port = 9100\n[logging]\nlevel = \"warn\"\n"), 0600))

		config, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, 9100, config.Port)
		assert.Equal(t, "warn", config.Logging.Level)
		assert.Equal(t, "console", config.Logging.Format)
		assert.Equal(t, "./data", config.DataDir)
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := LoadConfig("/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("load invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644))

		_, err := LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("invalid settings", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("logging:\n  format: xml\n"), 0600))

		_, err := LoadConfig(configPath)
		assert.ErrorContains(t, err, "unknown logging format")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative port", func(c *Config) { c.Port = -1 }},
		{"huge port", func(c *Config) { c.Port = 70000 }},
		{"zero buffer limit", func(c *Config) { c.Limits.MaxBufferBytes = 0 }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestSaveConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	config := DefaultConfig()

	require.NoError(t, SaveConfig(config, configPath))

	// Verify file exists
	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// Verify content
	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestBootstrapConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	dataDir := "/custom/data/dir"

	config, err := BootstrapConfig(configPath, dataDir)
	require.NoError(t, err)

	// Verify config values
	assert.Equal(t, dataDir, config.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "schemas"), config.SchemaDir)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, "info", config.Logging.Level)

	_, err = hex.DecodeString(config.Security.APIKey)
	assert.NoError(t, err)
	assert.Len(t, config.Security.APIKey, 64)

	// Verify file was created
	assert.True(t, ConfigExists(configPath))

	// Verify we can load it back
	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, "bitspec")
}

func TestConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingPath := filepath.Join(tmpDir, "exists.yaml")
	nonExistentPath := filepath.Join(tmpDir, "does-not-exist.yaml")

	require.NoError(t, os.WriteFile(existingPath, []byte("test"), 0644))

	assert.True(t, ConfigExists(existingPath))
	assert.False(t, ConfigExists(nonExistentPath))
}

func TestConfigYAMLMarshalling(t *testing.T) {
	config := testConfig()

	data, err := yaml.Marshal(config)
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_buffer_bytes: 4096")

	var unmarshalled Config
	require.NoError(t, yaml.Unmarshal(data, &unmarshalled))
	assert.Equal(t, config, &unmarshalled)
}

func TestSaveConfigErrorHandling(t *testing.T) {
	config := DefaultConfig()

	// A regular file cannot be used as the config directory
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))
	invalidPath := filepath.Join(blocker, "config.yaml")

	err := SaveConfig(config, invalidPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create config directory")
}
