// Package cmd provides CLI commands for sellsy-bridge.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lutece-labs/sellsy-bridge/pkg/config"
	"github.com/lutece-labs/sellsy-bridge/pkg/sellsy"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sellsy-bridge",
	Short: "Bridge a web application to the Sellsy CRM and billing API",
	Long: `sellsy-bridge manages the Sellsy side of an application integration.

It supports:
- Provisioning custom properties and property groups from a YAML schema
- Receiving Sellsy webhook notifications into a local SQLite archive
- Purging test accounts (clients, products, properties, groups)
- Inspecting the local sync ledger

Example:
  sellsy-bridge provision --schema config/properties.yaml
  sellsy-bridge serve
  sellsy-bridge stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}

// loadValidatedConfig loads the configuration and checks the API credentials.
func loadValidatedConfig() *config.Config {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if debug {
		cfg.Debug = true
	}

	err = cfg.Validate()
	exitOnError(err, "invalid configuration")

	return cfg
}

// newSellsyClient builds an API client from the configuration.
func newSellsyClient(cfg *config.Config) *sellsy.Client {
	return sellsy.NewClient(sellsy.ClientConfig{
		Endpoint:        cfg.Sellsy.Endpoint,
		ConsumerToken:   cfg.Sellsy.ConsumerToken,
		ConsumerSecret:  cfg.Sellsy.ConsumerSecret,
		UserToken:       cfg.Sellsy.UserToken,
		UserSecret:      cfg.Sellsy.UserSecret,
		DefaultCurrency: cfg.Sellsy.DefaultCurrency,
		DefaultVATRate:  cfg.Sellsy.DefaultVATRate,
	})
}
