/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/bitspec/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration for local development",
	Long: `Create a configuration file with a generated API key, plus the data and
schema directories it points at.

Examples:
  bitspec init
  bitspec init --data-dir ./data --config ./bitspec.yaml --print-keys`,
	// init must work before any config exists
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		force, _ := cmd.Flags().GetBool("force")
		printKeys, _ := cmd.Flags().GetBool("print-keys")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		if config.ConfigExists(configPath) && !force {
			cmd.Printf("Configuration already exists at %s. Use --force to overwrite.\n", configPath)
			return nil
		}

		cfg, err := initialize(configPath, dataDir)
		if err != nil {
			return err
		}

		cmd.Printf("✅ Configuration created at %s\n", configPath)
		cmd.Printf("Data directory: %s\n", cfg.DataDir)
		cmd.Printf("Schema directory: %s\n", cfg.SchemaDir)
		if printKeys {
			cmd.Printf("API key: %s\n", cfg.Security.APIKey)
		}
		return nil
	},
}

// initialize bootstraps the config and creates its directories
func initialize(configPath, dataDir string) (*config.Config, error) {
	cfg, err := config.BootstrapConfig(configPath, dataDir)
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{cfg.DataDir, cfg.SchemaDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return cfg, nil
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration")
	initCmd.Flags().Bool("print-keys", false, "Print the generated API key")
}
