package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/inheritview/generator"
	"github.com/ridoystarlord/inheritview/utils"
	"github.com/ridoystarlord/inheritview/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a definition file",
	Long: `Validate a definition file before generating anything.

The validator works in two modes:
- Static: required fields, identifiers, child aliases and merge view references
- Columns: also resolves every table's columns and checks merge column sources
  and column name collisions (requires DATABASE_URL or --offline)

Examples:
  inheritview validate                          # Validate definition.yaml
  inheritview validate -f vehicle.yaml          # Validate another definition
  inheritview validate --offline columns.yaml   # Check columns without a database
  inheritview validate --format json            # Output validation results as JSON
`,
	Run: func(cmd *cobra.Command, args []string) {
		result, err := validateDefinition(cmd.Context())
		if err != nil {
			fmt.Printf("❌ Definition validation failed: %v\n", err)
			os.Exit(1)
		}

		if validateFormat == "json" {
			err = outputJSON(result)
		} else {
			outputText(result)
		}
		if err != nil {
			fmt.Printf("❌ Writing results: %v\n", err)
			os.Exit(1)
		}
		if !result.Valid {
			os.Exit(1)
		}
	},
}

var (
	validateOffline string
	validateFormat  string
)

func init() {
	validateCmd.Flags().StringVar(&validateOffline, "offline", "", "YAML file mapping tables to columns, used instead of the database")
	validateCmd.Flags().StringVar(&validateFormat, "format", "text", "Output format (text, json)")
}

func validateDefinition(ctx context.Context) (*validator.ValidationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	def, err := loadDefinition()
	if err != nil {
		return nil, err
	}

	result := validator.Validate(def)
	if !result.Valid {
		return result, nil
	}

	if validateOffline == "" {
		utils.LoadEnv()
		if _, err := utils.DatabaseURL(); err != nil {
			slog.Debug("no database configured, skipping column checks")
			return result, nil
		}
	}

	resolver, err := columnResolver(validateOffline)
	if err != nil {
		return nil, err
	}
	_, colResult := generator.ResolveColumns(ctx, def, resolver, slog.Default())
	result.Merge(colResult)
	return result, nil
}

func outputJSON(result *validator.ValidationResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputText(result *validator.ValidationResult) {
	if result.Valid {
		color.Green("✅ Definition validation passed!")
	} else {
		color.Red("❌ Definition validation failed!")
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\n🔴 Errors (%d):\n", len(result.Errors))
		for i, e := range result.Errors {
			fmt.Printf("  %d. %s\n", i+1, e)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\n🟡 Warnings (%d):\n", len(result.Warnings))
		for i, w := range result.Warnings {
			fmt.Printf("  %d. %s\n", i+1, w)
		}
	}

	fmt.Printf("\n📊 Summary:\n")
	fmt.Printf("  • Errors: %d\n", len(result.Errors))
	fmt.Printf("  • Warnings: %d\n", len(result.Warnings))

	if result.Valid {
		fmt.Printf("\n🎉 Your definition is ready for generation!\n")
	} else {
		fmt.Printf("\n💡 Fix the errors above before generating.\n")
	}
}
