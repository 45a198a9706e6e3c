package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityRules(t *testing.T) {
	e := &Entity{
		Alias: "car",
		Alters: map[string]Alter{
			"geometry": {Read: "ST_AsText", Write: "ST_GeomFromText"},
			"label":    {Read: "upper"},
		},
		Remaps: map[string]string{"fk_brand": "fk_car_brand", "empty": ""},
	}

	t.Run("alter read and write", func(t *testing.T) {
		fn, ok := e.AlterRead("geometry")
		assert.True(t, ok)
		assert.Equal(t, "ST_AsText", fn)

		fn, ok = e.AlterWrite("geometry")
		assert.True(t, ok)
		assert.Equal(t, "ST_GeomFromText", fn)
	})

	t.Run("read only alter has no write rule", func(t *testing.T) {
		_, ok := e.AlterWrite("label")
		assert.False(t, ok)
	})

	t.Run("unknown column has no rule", func(t *testing.T) {
		_, ok := e.AlterRead("year")
		assert.False(t, ok)
		_, ok = e.Remap("year")
		assert.False(t, ok)
		assert.Equal(t, "year", e.ExternalName("year"))
	})

	t.Run("remap", func(t *testing.T) {
		assert.Equal(t, "fk_car_brand", e.ExternalName("fk_brand"))
		_, ok := e.Remap("empty")
		assert.False(t, ok)
	})

	t.Run("nil maps", func(t *testing.T) {
		var bare Entity
		_, ok := bare.AlterRead("x")
		assert.False(t, ok)
		assert.Equal(t, "x", bare.ExternalName("x"))
	})
}

func TestDefinitionTypeMembers(t *testing.T) {
	d := &Definition{
		Entity:          Entity{Alias: "vehicle"},
		AllowParentOnly: true,
		Children:        []*Entity{{Alias: "car"}, {Alias: "bike"}},
	}
	assert.Equal(t, []string{"vehicle", "car", "bike"}, d.TypeMembers())
	assert.Equal(t, "vehicle_type", d.TypeName())

	d.AllowParentOnly = false
	assert.Equal(t, []string{"car", "bike"}, d.TypeMembers())

	c, ok := d.Child("bike")
	assert.True(t, ok)
	assert.Equal(t, "bike", c.Alias)
	_, ok = d.Child("boat")
	assert.False(t, ok)
}

func TestMergedColumn(t *testing.T) {
	mv := &MergeView{
		MergeColumns: []MergeColumn{{
			Alias: "top_speed",
			Sources: []MergeSource{
				{Child: "car", Column: "max_speed"},
				{Child: "bike", Column: "max_speed"},
			},
		}},
	}
	alias, ok := mv.MergedColumn("bike", "max_speed")
	assert.True(t, ok)
	assert.Equal(t, "top_speed", alias)

	_, ok = mv.MergedColumn("car", "year")
	assert.False(t, ok)

	var none *MergeView
	_, ok = none.MergedColumn("car", "max_speed")
	assert.False(t, ok)
}
