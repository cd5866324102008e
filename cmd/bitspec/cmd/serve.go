/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ssargent/bitspec/pkg/api"
	"github.com/ssargent/bitspec/pkg/metrics"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the bitspec REST API server over the loaded layouts.

The server encodes, decodes and dumps buffers, keeps records in the data
directory and exposes Prometheus metrics on /metrics.

Examples:
  bitspec serve
  bitspec serve --port 9000 --api-key mysecretkey --schema ./sensor.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		cfg := a.cfg

		// Override config with command line flags if provided
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			cfg.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("api-key") {
			cfg.Security.APIKey, _ = cmd.Flags().GetString("api-key")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		st, err := openStore(a)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.Security.APIKey == "" {
			a.log.Warn("no API key configured, the API is open")
		}
		cmd.Printf("🚀 Starting bitspec server on %s:%d\n", cfg.Bind, cfg.Port)
		cmd.Printf("📁 Data directory: %s\n", cfg.DataDir)

		starter := getContainer().GetServerFactory().CreateServerStarter()
		serverConfig := api.ServerConfig{
			Bind:   cfg.Bind,
			Port:   cfg.Port,
			APIKey: cfg.Security.APIKey,
			// room for hex and JSON around the largest buffer
			MaxBodyBytes: int64(cfg.Limits.MaxBufferBytes)*4 + 4096,
		}
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		deps := api.Deps{
			Layouts:  a.layouts,
			Store:    st,
			Metrics:  metrics.New(reg),
			Gatherer: reg,
			Logger:   a.log,
		}
		if err := starter.StartServer(ctx, serverConfig, deps); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind to")
	serveCmd.Flags().String("api-key", "", "API key for the X-API-Key header (overrides config)")
}
