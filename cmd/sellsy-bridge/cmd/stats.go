package cmd

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lutece-labs/sellsy-bridge/pkg/config"
	"github.com/lutece-labs/sellsy-bridge/pkg/db"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display local store statistics",
	Long: `Display statistics about the local sync ledger and archived webhooks.

Shows:
- Number of sync links per resource type
- Number of archived webhook events per event type

Example:
  sellsy-bridge stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	slog.Info("Loading configuration")

	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	slog.Debug("Opening store", "path", cfg.Ledger.DBPath)
	store, err := db.Open(cfg.Ledger.DBPath)
	exitOnError(err, "failed to open store")
	defer store.Close()

	stats, err := store.GetStats()
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Sync Ledger ===")
	if len(stats.LinksByResource) == 0 {
		fmt.Println("(empty)")
	}
	for _, resource := range sortedKeys(stats.LinksByResource) {
		fmt.Printf("%-20s %d\n", resource, stats.LinksByResource[resource])
	}

	fmt.Println("\n=== Webhook Events ===")
	if len(stats.EventsByType) == 0 {
		fmt.Println("(empty)")
	}
	for _, eventType := range sortedKeys(stats.EventsByType) {
		fmt.Printf("%-20s %d\n", eventType, stats.EventsByType[eventType])
	}

	fmt.Println()
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
