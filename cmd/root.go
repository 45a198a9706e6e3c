package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile          string
	verbose          bool
	definitionFile   string
	legacyJoinDelete bool
)

var rootCmd = &cobra.Command{
	Use:   "inheritview",
	Short: "Table-per-type inheritance views and triggers for PostgreSQL",
	Long: `inheritview generates updatable views and INSTEAD OF triggers that expose a
parent table and its child tables as one entity per child, plus an optional
merged view over all of them.

Examples:

  inheritview init
  inheritview generate --out sql/vehicle.sql
  inheritview apply
  inheritview status
`,
	// Execute reports command errors itself
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

// Execute runs the CLI
func Execute(version string) {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./inheritview.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVarP(&definitionFile, "file", "f", "definition.yaml", "Definition YAML file")
	rootCmd.PersistentFlags().BoolVar(&legacyJoinDelete, "legacy-join-delete", false, "Wire join delete triggers to INSTEAD OF UPDATE")

	_ = viper.BindPFlag("definition", rootCmd.PersistentFlags().Lookup("file"))
	_ = viper.BindPFlag("legacy_join_delete", rootCmd.PersistentFlags().Lookup("legacy-join-delete"))

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(healthCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("inheritview")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("INHERITVIEW")
	viper.AutomaticEnv()
	_ = viper.BindEnv("database_url", "INHERITVIEW_DATABASE_URL", "DATABASE_URL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Printf("❌ Reading config %s: %v\n", cfgFile, err)
			os.Exit(1)
		}
	}
}

func setupLogger() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	if f := viper.ConfigFileUsed(); f != "" {
		slog.Debug("using config file", "path", f)
	}
}
