package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/inheritview/generator"
	"github.com/ridoystarlord/inheritview/introspect"
)

var prefixes = []string{"vw_vehicle_", "ft_vehicle_", "tr_vehicle_"}

func expectedObjects() []generator.Object {
	return []generator.Object{
		{Kind: generator.KindView, Name: "od.vw_vehicle_car"},
		{Kind: generator.KindFunction, Name: "od.ft_vehicle_car_insert"},
		{Kind: generator.KindTrigger, Name: "tr_vehicle_car_insert", Relation: "od.vw_vehicle_car"},
	}
}

func TestDiffObjectsUpToDate(t *testing.T) {
	existing := []introspect.ExistingObject{
		{Kind: "function", Name: "od.ft_vehicle_car_insert"},
		{Kind: "trigger", Name: "tr_vehicle_car_insert", Relation: "od.vw_vehicle_car"},
		{Kind: "view", Name: "od.vw_vehicle_car"},
		{Kind: "view", Name: "od.vw_pipe_all"},
	}

	report := DiffObjects(expectedObjects(), existing, prefixes)
	assert.True(t, report.UpToDate())
	assert.Equal(t, expectedObjects(), report.Present)
}

func TestDiffObjectsMissingAndStale(t *testing.T) {
	existing := []introspect.ExistingObject{
		{Kind: "view", Name: "od.vw_vehicle_car"},
		{Kind: "trigger", Name: "tr_vehicle_car_insert", Relation: "od.vw_vehicle_truck"},
		{Kind: "view", Name: "od.vw_vehicle_truck"},
		{Kind: "function", Name: "od.ft_vehicle_truck_insert"},
		{Kind: "function", Name: "od.fn_helper"},
	}

	report := DiffObjects(expectedObjects(), existing, prefixes)
	require.False(t, report.UpToDate())

	assert.Equal(t, []generator.Object{
		{Kind: generator.KindFunction, Name: "od.ft_vehicle_car_insert"},
		{Kind: generator.KindTrigger, Name: "tr_vehicle_car_insert", Relation: "od.vw_vehicle_car"},
	}, report.Missing())

	assert.Equal(t, []generator.Object{
		{Kind: "function", Name: "od.ft_vehicle_truck_insert"},
		{Kind: "trigger", Name: "tr_vehicle_car_insert", Relation: "od.vw_vehicle_truck"},
		{Kind: "view", Name: "od.vw_vehicle_truck"},
	}, report.Stale())

	assert.Equal(t, CreateObject, report.Changes[0].Type)
	assert.Equal(t, DropObject, report.Changes[len(report.Changes)-1].Type)
}

func TestDiffObjectsEmptyDatabase(t *testing.T) {
	report := DiffObjects(expectedObjects(), nil, prefixes)
	assert.Empty(t, report.Present)
	assert.Len(t, report.Missing(), 3)
	assert.Empty(t, report.Stale())
}
