package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/inheritview/database"
	"github.com/ridoystarlord/inheritview/runner"
)

var (
	historyLimit    int
	historyAll      bool
	historyDetailed bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show apply and remove history",
	Long: `Show recorded apply and remove runs with timestamps, durations and users.

Examples:
  inheritview history                    # History of the current definition
  inheritview history --limit 10         # Last 10 runs
  inheritview history --all              # Runs of every definition
  inheritview history --detailed         # Show detailed information
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		defer database.ClosePool()

		var name string
		if !historyAll {
			def, err := loadDefinition()
			if err != nil {
				return fmt.Errorf("loading definition: %w", err)
			}
			name = definitionName(def)
		}

		db, err := database.GetDB()
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}

		history, err := runner.New(db, slog.Default()).History(ctx, name, historyLimit)
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}

		if len(history) == 0 {
			fmt.Println("📋 No history found")
			return nil
		}

		fmt.Println("📋 History")
		fmt.Println(strings.Repeat("=", 60))
		if historyDetailed {
			showDetailedHistory(history)
		} else {
			showSummaryHistory(history)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 0, "Limit the number of runs shown")
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "Show runs of every definition")
	historyCmd.Flags().BoolVarP(&historyDetailed, "detailed", "d", false, "Show detailed information")
}

func statusGlyph(status string) string {
	switch status {
	case runner.StatusSuccess:
		return color.New(color.FgGreen, color.Bold).Sprint("✅")
	case runner.StatusFailed:
		return color.New(color.FgRed, color.Bold).Sprint("❌")
	default:
		return color.New(color.FgYellow, color.Bold).Sprint("⚠️")
	}
}

func showDetailedHistory(history []runner.Record) {
	red := color.New(color.FgRed, color.Bold)
	blue := color.New(color.FgBlue, color.Bold)
	cyan := color.New(color.FgCyan)

	for i, record := range history {
		fmt.Printf("\n%d. %s ", i+1, statusGlyph(record.Status))
		blue.Printf("%s %s\n", record.Action, record.Definition)

		cyan.Printf("   📅 Executed: %s\n", record.ExecutedAt.Format("2006-01-02 15:04:05"))
		cyan.Printf("   ⏱️  Duration: %v\n", record.Duration())
		cyan.Printf("   👤 User: %s\n", record.ExecutedBy)
		cyan.Printf("   📊 Status: %s\n", record.Status)
		if record.ErrorMessage.Valid {
			red.Printf("   💥 Error: %s\n", record.ErrorMessage.String)
		}
		cyan.Printf("   🔍 Checksum: %s\n", record.Checksum[:min(8, len(record.Checksum))]+"...")
	}
}

func showSummaryHistory(history []runner.Record) {
	blue := color.New(color.FgBlue, color.Bold)

	fmt.Printf("%-6s %-8s %-8s %-28s %-12s %-10s %s\n", "ID", "Status", "Action", "Definition", "Duration", "User", "Date")
	fmt.Println(strings.Repeat("-", 90))

	successCount, failedCount := 0, 0
	var totalDuration time.Duration
	for _, record := range history {
		name := record.Definition
		if len(name) > 26 {
			name = name[:23] + "..."
		}

		fmt.Printf("%-6d %-8s %-8s %-28s %-12s %-10s %s\n",
			record.ID,
			statusGlyph(record.Status),
			record.Action,
			blue.Sprint(name),
			record.Duration().String(),
			record.ExecutedBy,
			record.ExecutedAt.Format("2006-01-02 15:04"),
		)

		switch record.Status {
		case runner.StatusSuccess:
			successCount++
		case runner.StatusFailed:
			failedCount++
		}
		totalDuration += record.Duration()
	}

	fmt.Println(strings.Repeat("-", 90))
	fmt.Printf("📊 Summary: %d total, %d successful, %d failed\n", len(history), successCount, failedCount)
	if totalDuration > 0 {
		fmt.Printf("⏱️  Total execution time: %v\n", totalDuration)
	}
}
