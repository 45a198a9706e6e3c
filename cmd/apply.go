package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/inheritview/database"
	"github.com/ridoystarlord/inheritview/generator"
	"github.com/ridoystarlord/inheritview/runner"
)

var (
	applyForce  bool
	applyScript string
)

func init() {
	applyCmd.Flags().BoolVar(&applyForce, "force", false, "Execute even when the same script was already applied")
	applyCmd.Flags().StringVar(&applyScript, "script", "", "Apply the up section of a generated script file instead of generating")
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Create or replace the views and triggers in the database",
	Long: `Generate the script of a definition and execute it in one transaction.

Every run is recorded in the inheritview_history table. A script identical to
the last successful apply is skipped unless --force is given.

Examples:
  inheritview apply                              # Generate and apply
  inheritview apply --force                      # Apply even if unchanged
  inheritview apply --script sql/vehicle.sql     # Apply a reviewed script file
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

		db, err := database.GetDB()
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}

		var script string
		if applyScript != "" {
			data, err := os.ReadFile(applyScript)
			if err != nil {
				return fmt.Errorf("reading script file: %w", err)
			}
			script = generator.UpSection(string(data))
		} else {
			g, err := newGenerator(ctx, def, "")
			if err != nil {
				return fmt.Errorf("generating SQL: %w", err)
			}
			script = g.All()
		}

		name := definitionName(def)
		res, err := runner.New(db, slog.Default()).Apply(ctx, name, script, applyForce)
		if err != nil {
			return fmt.Errorf("apply failed: %w", err)
		}
		if !res.Executed {
			fmt.Printf("✅ %s is up to date (checksum %s...)\n", name, res.Checksum[:8])
			return nil
		}
		color.Green("✅ Applied %s in %v", name, res.Duration)
		return nil
	},
}
