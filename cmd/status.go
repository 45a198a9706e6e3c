package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/inheritview/database"
	"github.com/ridoystarlord/inheritview/diff"
	"github.com/ridoystarlord/inheritview/generator"
	"github.com/ridoystarlord/inheritview/introspect"
	"github.com/ridoystarlord/inheritview/runner"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Compare generated objects with the database",
	Long: `Show which generated views, functions, triggers and types exist in the
definition's schema, which are missing, and which stale generated objects are
no longer produced by the definition.

Examples:
  inheritview status
  inheritview status -f vehicle.yaml
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

		g, err := newGenerator(ctx, def, "")
		if err != nil {
			return fmt.Errorf("generating SQL: %w", err)
		}

		db, err := database.GetDB()
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}

		existing, err := introspect.ExistingObjects(ctx, db, def.Schema)
		if err != nil {
			return fmt.Errorf("listing objects: %w", err)
		}

		report := diff.DiffObjects(g.Objects(), existing, g.NamePrefixes())
		showStatus(report)

		history, err := runner.New(db, slog.Default()).History(ctx, definitionName(def), 1)
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}
		if len(history) > 0 {
			last := history[0]
			fmt.Printf("\n📅 Last %s: %s (%s by %s)\n", last.Action,
				last.ExecutedAt.Format("2006-01-02 15:04:05"), last.Status, last.ExecutedBy)
		}
		return nil
	},
}

func showStatus(report diff.Report) {
	fmt.Printf("✅ Present objects (%d):\n", len(report.Present))
	for _, o := range report.Present {
		fmt.Println("   -", describeObject(o))
	}

	if missing := report.Missing(); len(missing) > 0 {
		color.Yellow("\n🕒 Missing objects (%d):", len(missing))
		for _, o := range missing {
			fmt.Println("   -", describeObject(o))
		}
	}

	if stale := report.Stale(); len(stale) > 0 {
		color.Red("\n⚠️  Stale objects (%d):", len(stale))
		for _, o := range stale {
			fmt.Println("   -", describeObject(o))
		}
	}

	if report.UpToDate() {
		color.Green("\n🎉 Database is up to date.")
	} else {
		fmt.Println("\n💡 Run 'inheritview apply' to create missing objects; drop stale ones by hand.")
	}
}

func describeObject(o generator.Object) string {
	if o.Relation != "" {
		return fmt.Sprintf("%s %s ON %s", o.Kind, o.Name, o.Relation)
	}
	return fmt.Sprintf("%s %s", o.Kind, o.Name)
}
