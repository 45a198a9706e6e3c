package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/inheritview/database"
	"github.com/ridoystarlord/inheritview/generator"
	"github.com/ridoystarlord/inheritview/runner"
)

var (
	removeScript  string
	removeOffline string
	removeDryRun  bool
)

func init() {
	removeCmd.Flags().StringVar(&removeScript, "script", "", "Execute the remove section of a generated script file")
	removeCmd.Flags().StringVar(&removeOffline, "offline", "", "YAML file mapping tables to columns, for tables already gone")
	removeCmd.Flags().BoolVar(&removeDryRun, "dry-run", false, "Print the drop statements without executing them")
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Drop every view, trigger, function and type of a definition",
	Long: `Drop the generated objects of a definition, dependents first.

Examples:
  inheritview remove                             # Drop the generated objects
  inheritview remove --dry-run                   # Preview the drop statements
  inheritview remove --script sql/vehicle.sql    # Use the remove section of a file
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		defer database.ClosePool()

		def, err := loadDefinition()
		if err != nil {
			return fmt.Errorf("loading definition: %w", err)
		}

		var script string
		if removeScript != "" {
			data, err := os.ReadFile(removeScript)
			if err != nil {
				return fmt.Errorf("reading script file: %w", err)
			}
			script = generator.DownSection(string(data))
			if strings.TrimSpace(script) == "" {
				return fmt.Errorf("%s has no remove section", removeScript)
			}
		} else {
			g, err := newGenerator(ctx, def, removeOffline)
			if err != nil {
				return fmt.Errorf("generating SQL: %w", err)
			}
			script = g.DropAll()
		}

		if removeDryRun {
			fmt.Println("\n================ DRY RUN: Remove Preview ================")
			fmt.Print(script)
			fmt.Println("==========================================================")
			fmt.Println("(Dry run only. Nothing was dropped.)")
			return nil
		}

		db, err := database.GetDB()
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}

		name := definitionName(def)
		res, err := runner.New(db, slog.Default()).Remove(ctx, name, script)
		if err != nil {
			return fmt.Errorf("remove failed: %w", err)
		}
		color.Green("✅ Removed %s in %v", name, res.Duration)
		return nil
	},
}
