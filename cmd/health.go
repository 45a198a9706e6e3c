package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/inheritview/database"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database connectivity",
	Long: `Check if the database is accessible and responsive.

Examples:
  inheritview health                    # Check default database connection
  inheritview health --timeout 10s      # Set custom timeout
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer database.ClosePool()
		if err := checkDatabaseHealth(); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
		fmt.Println("✅ Database is healthy and accessible")
		return nil
	},
}

var healthTimeout time.Duration

func init() {
	healthCmd.Flags().DurationVarP(&healthTimeout, "timeout", "t", 5*time.Second, "Timeout for health check")
}

func checkDatabaseHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()

	pool, err := database.GetPool()
	if err != nil {
		return fmt.Errorf("failed to get database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	var version string
	if err := pool.QueryRow(ctx, "SHOW server_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read server version: %w", err)
	}
	fmt.Printf("🐘 PostgreSQL %s\n", version)

	// History table exists once anything was applied
	var tableExists bool
	if err := pool.QueryRow(ctx, "SELECT to_regclass('inheritview_history') IS NOT NULL").Scan(&tableExists); err != nil {
		return fmt.Errorf("failed to check inheritview_history table: %w", err)
	}
	if !tableExists {
		fmt.Println("⚠️  Database is accessible but inheritview_history table not found")
		fmt.Println("   Run 'inheritview apply' to create views and start recording history")
		return nil
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM inheritview_history").Scan(&count); err != nil {
		return fmt.Errorf("failed to count history records: %w", err)
	}
	fmt.Printf("📊 Found %d recorded runs\n", count)

	return nil
}
