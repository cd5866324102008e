/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/bitspec/pkg/config"
	"github.com/ssargent/bitspec/pkg/di"
	"github.com/ssargent/bitspec/pkg/layout"
	"github.com/ssargent/bitspec/pkg/logging"
	"github.com/ssargent/bitspec/pkg/schemafile"
)

var container *di.Container

// SetContainer injects the dependency container used by the commands
func SetContainer(c *di.Container) {
	container = c
}

func getContainer() *di.Container {
	if container == nil {
		container = di.NewContainer()
	}
	return container
}

// app is the state every command shares after the root pre-run
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	layouts *layout.Cache
}

type appKey struct{}

func appFrom(cmd *cobra.Command) (*app, error) {
	if cmd.Context() != nil {
		if a, ok := cmd.Context().Value(appKey{}).(*app); ok {
			return a, nil
		}
	}
	return nil, fmt.Errorf("command state not initialized")
}

// layoutArg resolves a layout name argument against the loaded schemas
func (a *app) layoutArg(name string) (*layout.Layout, error) {
	l, ok := a.layouts.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown layout %q (loaded: %v)", name, a.layouts.Names())
	}
	return l, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bitspec",
	Short: "bitspec - declarative bit-level binary layouts",
	Long: `bitspec encodes and decodes records against declarative bit-level
layouts. Layouts are described in YAML schema files and loaded from the
schema directory or from --schema flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(context.WithValue(ctx, appKey{}, a))
		return nil
	},
}

// loadApp reads the config file, applies flag overrides and loads layouts
func loadApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	// Override config with command line flags if provided
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("schema-dir") {
		cfg.SchemaDir, _ = cmd.Flags().GetString("schema-dir")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	layouts := layout.NewCache()
	if _, err := schemafile.LoadDir(cfg.SchemaDir, layouts); err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}
	schemas, _ := cmd.Flags().GetStringSlice("schema")
	for _, path := range schemas {
		l, err := schemafile.Load(path)
		if err != nil {
			return nil, err
		}
		if err := layouts.Put(l); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	log.Debug("layouts loaded",
		zap.String("schema_dir", cfg.SchemaDir),
		zap.Strings("layouts", layouts.Names()),
	)

	return &app{cfg: cfg, log: log, layouts: layouts}, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/bitspec/config.yaml)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "./data", "Data directory for stored records")
	rootCmd.PersistentFlags().String("schema-dir", "./schemas", "Directory of *.yaml layout schemas")
	rootCmd.PersistentFlags().StringSliceP("schema", "s", nil, "Extra layout schema file (repeatable)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}
