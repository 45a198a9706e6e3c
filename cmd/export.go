package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/inheritview/database"
	"github.com/ridoystarlord/inheritview/introspect"
	"github.com/ridoystarlord/inheritview/loader"
)

var (
	exportTable  string
	exportSchema string
	exportAlias  string
	exportOut    string
)

func init() {
	exportCmd.Flags().StringVarP(&exportTable, "table", "t", "", "Parent table, optionally schema qualified (required)")
	exportCmd.Flags().StringVarP(&exportSchema, "schema", "s", "public", "Schema receiving the generated objects")
	exportCmd.Flags().StringVarP(&exportAlias, "alias", "a", "", "Parent alias (default: table name)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write the definition to this file instead of stdout")
	_ = exportCmd.MarkFlagRequired("table")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Build a definition from an existing parent table",
	Long: `Build a definition from the database catalog: the parent table's primary
key and default become pkey and pkey_value, and every table whose primary key
is also a foreign key to the parent becomes a child.

Examples:
  inheritview export --table vehicle
  inheritview export --table fleet.vehicle --schema api --out definition.yaml
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		defer database.ClosePool()

		db, err := database.GetDB()
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}

		def, err := introspect.NewExporter(db).Definition(ctx, exportSchema, exportTable, exportAlias)
		if err != nil {
			return fmt.Errorf("exporting definition: %w", err)
		}

		data, err := loader.MarshalDefinition(def)
		if err != nil {
			return fmt.Errorf("encoding definition: %w", err)
		}

		if exportOut == "" {
			fmt.Print(string(data))
			return nil
		}
		if err := os.WriteFile(exportOut, data, 0644); err != nil {
			return fmt.Errorf("writing definition: %w", err)
		}
		fmt.Printf("✅ Exported %s with %d children to %s\n", exportTable, len(def.Children), exportOut)
		return nil
	},
}
