package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/ridoystarlord/inheritview/database"
	"github.com/ridoystarlord/inheritview/generator"
	"github.com/ridoystarlord/inheritview/introspect"
	"github.com/ridoystarlord/inheritview/loader"
	"github.com/ridoystarlord/inheritview/schema"
)

func loadDefinition() (*schema.Definition, error) {
	path := viper.GetString("definition")
	if path == "" {
		path = definitionFile
	}
	slog.Debug("loading definition", "path", path)

	def, err := loader.LoadDefinitionFromYAML(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return def, nil
}

// definitionName keys the history of a definition.
func definitionName(def *schema.Definition) string {
	return def.Schema + "." + def.Alias
}

func generatorOptions() generator.Options {
	return generator.Options{
		LegacyJoinDeleteEvent: viper.GetBool("legacy_join_delete"),
		Logger:                slog.Default(),
	}
}

// columnResolver reads columns from offlineFile when set, otherwise from the
// database catalog.
func columnResolver(offlineFile string) (generator.ColumnResolver, error) {
	if offlineFile != "" {
		columns, err := loader.LoadColumnsFromYAML(offlineFile)
		if err != nil {
			return nil, err
		}
		return generator.StaticColumns(columns), nil
	}

	db, err := database.GetDB()
	if err != nil {
		return nil, err
	}
	return introspect.NewResolver(db), nil
}

func newGenerator(ctx context.Context, def *schema.Definition, offlineFile string) (*generator.Generator, error) {
	resolver, err := columnResolver(offlineFile)
	if err != nil {
		return nil, err
	}
	return generator.New(ctx, def, resolver, generatorOptions())
}
