package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	generateOut     string
	generateOffline string
)

func init() {
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "Write the script with its remove section to this file")
	generateCmd.Flags().StringVar(&generateOffline, "offline", "", "YAML file mapping tables to columns, used instead of the database")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the views and triggers of a definition",
	Long: `Generate the SQL script creating the join views, the merge view and their
INSTEAD OF triggers for a definition.

Without --out the script is printed to stdout. With --out the file also gets
a remove section dropping every generated object.

Examples:
  inheritview generate                               # Print the script
  inheritview generate --out sql/vehicle.sql         # Write the script file
  inheritview generate --offline columns.yaml        # Resolve columns from a file
  inheritview generate --legacy-join-delete          # Keep the historical delete wiring
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		def, err := loadDefinition()
		if err != nil {
			fmt.Println("❌ Loading definition:", err)
			os.Exit(1)
		}

		g, err := newGenerator(ctx, def, generateOffline)
		if err != nil {
			fmt.Println("❌ Generating SQL:", err)
			os.Exit(1)
		}

		if generateOut == "" {
			fmt.Print(g.All())
			return
		}

		if err := g.WriteScriptFile(generateOut, time.Now()); err != nil {
			fmt.Println("❌ Writing script file:", err)
			os.Exit(1)
		}
		fmt.Printf("✅ Script generated: %s (%d objects)\n", generateOut, len(g.Objects()))
	},
}
