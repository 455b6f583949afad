package main

import (
	"os"

	"github.com/spf13/cobra"

	"crashalert-model-service/internal/config"
	"crashalert-model-service/internal/logging"
)

// rootCmd runs the HTTP service when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "model-service",
	Short: "Accident detection service for pre-recorded traffic videos",
	Long: `model-service scans traffic videos for accidents. Each accident found is cut
into a short clip, archived to Google Drive (or MinIO), and posted to the
CrashAlert backend as an alert.

Examples:
  model-service                       # serve the HTTP API
  model-service serve
  model-service scan cam1_Herzl_2024-05-01 --camera cam1 --location Herzl`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, scanCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads and validates configuration and sets up logging
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	logging.Setup(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
