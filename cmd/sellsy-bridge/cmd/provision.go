package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lutece-labs/sellsy-bridge/pkg/provision"
)

var (
	schemaFile string
	replace    bool
)

// provisionCmd represents the provision command.
var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision Sellsy custom properties from a YAML schema",
	Long: `Provision custom properties and property groups on the Sellsy account.

This command:
1. Loads and validates the YAML schema file
2. Optionally wipes existing properties and groups (--replace)
3. Creates every declared property
4. Creates every declared group with its ordered members

Example:
  sellsy-bridge provision --schema config/properties.yaml
  sellsy-bridge provision --schema config/properties.yaml --replace`,
	Run: runProvision,
}

func init() {
	// Flags
	provisionCmd.Flags().StringVar(&schemaFile, "schema", "", "YAML schema file (required)")
	provisionCmd.Flags().BoolVar(&replace, "replace", false, "delete existing properties and groups first")

	provisionCmd.MarkFlagRequired("schema")
}

func runProvision(cmd *cobra.Command, args []string) {
	slog.Info("Starting provisioning", "schema", schemaFile, "replace", replace)

	cfg := loadValidatedConfig()

	schema, err := provision.Load(schemaFile)
	exitOnError(err, "failed to load schema")

	client := newSellsyClient(cfg)

	err = provision.Apply(client, schema, replace)
	exitOnError(err, "provisioning failed")

	fmt.Printf("Provisioned %d properties and %d groups\n", len(schema.Properties), len(schema.Groups))
	slog.Info("Provisioning completed",
		"properties", len(schema.Properties),
		"groups", len(schema.Groups),
	)
}
