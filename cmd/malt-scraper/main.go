// Command malt-scraper acquires Malt freelancer profiles with a stealth browser
// and serves them over HTTP and gRPC.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"malt-scraper/internal/config"
	"malt-scraper/internal/logging"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "malt-scraper",
	Short:         "Malt freelancer profile scraper",
	Long:          "malt-scraper opens Malt profile pages in a stealth Chrome session, gets past the cookie banner and bot challenge, and extracts a structured profile record.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded

		if err := logging.InitializeLogging(cfg.Logging); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		logging.CloseLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to the YAML configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.CloseLogging()
		os.Exit(1)
	}
}
