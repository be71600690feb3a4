package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	purgeClients    bool
	purgeProducts   bool
	purgeProperties bool
	purgeGroups     bool
)

// purgeCmd represents the purge command.
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete Sellsy records in bulk",
	Long: `Delete records from the Sellsy account in bulk.

Intended for cleaning up sandbox accounts between test runs. At least one
target flag must be given; groups are removed before the properties they
reference.

There is no undo. Do not point this at a production account.

Example:
  sellsy-bridge purge --products
  sellsy-bridge purge --groups --properties`,
	Run: runPurge,
}

func init() {
	// Flags
	purgeCmd.Flags().BoolVar(&purgeClients, "clients", false, "delete all clients")
	purgeCmd.Flags().BoolVar(&purgeProducts, "products", false, "delete all products")
	purgeCmd.Flags().BoolVar(&purgeProperties, "properties", false, "delete all custom properties")
	purgeCmd.Flags().BoolVar(&purgeGroups, "groups", false, "delete all property groups")
}

func runPurge(cmd *cobra.Command, args []string) {
	if !purgeClients && !purgeProducts && !purgeProperties && !purgeGroups {
		fmt.Fprintln(os.Stderr, "Error: at least one of --clients, --products, --properties, --groups is required")
		os.Exit(1)
	}

	cfg := loadValidatedConfig()
	client := newSellsyClient(cfg)

	if purgeClients {
		slog.Info("Deleting all clients")
		exitOnError(client.DeleteAllClients(nil), "failed to delete clients")
	}

	if purgeProducts {
		slog.Info("Deleting all products")
		exitOnError(client.DeleteAllProducts(), "failed to delete products")
	}

	if purgeGroups {
		slog.Info("Deleting all property groups")
		exitOnError(client.DeleteAllPropertyGroups(), "failed to delete property groups")
	}

	if purgeProperties {
		slog.Info("Deleting all custom properties")
		exitOnError(client.DeleteAllProperties(), "failed to delete properties")
	}

	fmt.Println("Purge completed")
}
