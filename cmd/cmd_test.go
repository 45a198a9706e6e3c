package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/inheritview/generator"
	"github.com/ridoystarlord/inheritview/loader"
	"github.com/ridoystarlord/inheritview/validator"
)

func sampleColumns() generator.StaticColumns {
	return generator.StaticColumns{
		"vehicle": {"id", "model_name", "year"},
		"car":     {"id", "top_speed", "doors"},
		"bike":    {"id", "max_speed", "wheel_size"},
	}
}

func TestSampleDefinitionGenerates(t *testing.T) {
	def, err := loader.ParseDefinition([]byte(sampleDefinition))
	require.NoError(t, err)
	require.True(t, validator.Validate(def).Valid)

	g, err := generator.New(context.Background(), def, sampleColumns(), generator.Options{})
	require.NoError(t, err)

	sql := g.All()
	assert.Contains(t, sql, "CREATE OR REPLACE VIEW public.vw_vehicle_car AS")
	assert.Contains(t, sql, "CREATE OR REPLACE VIEW public.vw_vehicle_all AS")
	assert.Contains(t, sql, "bike.wheel_size AS bike_wheel_size")
}

func TestLoadDefinitionFromConfiguredPath(t *testing.T) {
	t.Cleanup(viper.Reset)
	path := filepath.Join(t.TempDir(), "vehicle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDefinition), 0644))
	viper.Set("definition", path)

	def, err := loadDefinition()
	require.NoError(t, err)
	assert.Equal(t, "public.vehicle", definitionName(def))
	assert.Len(t, def.Children, 2)
}

func TestLoadDefinitionMissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("definition", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := loadDefinition()
	assert.ErrorContains(t, err, "missing.yaml")
}

func TestColumnResolverOffline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "columns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vehicle: [id, model_name]\n"), 0644))

	resolver, err := columnResolver(path)
	require.NoError(t, err)
	cols, err := resolver.Columns(context.Background(), "vehicle", "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"model_name"}, cols)
}

func TestGeneratorOptionsFromConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	assert.False(t, generatorOptions().LegacyJoinDeleteEvent)

	viper.Set("legacy_join_delete", true)
	assert.True(t, generatorOptions().LegacyJoinDeleteEvent)
}

func TestDescribeObject(t *testing.T) {
	assert.Equal(t, "view public.vw_vehicle_car",
		describeObject(generator.Object{Kind: generator.KindView, Name: "public.vw_vehicle_car"}))
	assert.Equal(t, "trigger tr_vehicle_car_insert ON public.vw_vehicle_car",
		describeObject(generator.Object{Kind: generator.KindTrigger, Name: "tr_vehicle_car_insert", Relation: "public.vw_vehicle_car"}))
}

func TestDatabaseCommandsReturnErrors(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("definition", filepath.Join(t.TempDir(), "missing.yaml"))

	for _, c := range []*cobra.Command{applyCmd, removeCmd, statusCmd, historyCmd} {
		t.Run(c.Name(), func(t *testing.T) {
			require.NotNil(t, c.RunE)
			err := c.RunE(c, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "loading definition")
		})
	}
}
