package schema

// Definition describes one parent entity split across a parent table and a
// flat list of child tables sharing its primary key.
type Definition struct {
	Entity

	Schema               string
	PKeyValue            string
	PKeyValueCreateEntry bool
	AllowParentOnly      bool
	Children             []*Entity
	MergeView            *MergeView
}

// Entity is the shape shared by the parent and every child.
type Entity struct {
	Alias        string
	Table        string
	PKey         string
	CustomDelete string
	Alters       map[string]Alter
	Remaps       map[string]string
}

// Alter holds the SQL function names applied when reading a column into a
// view or writing an incoming value into storage.
type Alter struct {
	Read  string
	Write string
}

type MergeView struct {
	Name              string
	AdditionalColumns []AdditionalColumn
	MergeColumns      []MergeColumn
	AllowTypeChange   bool
	AdditionalJoin    string
}

// AdditionalColumn is a computed, read-only column of the merge view.
type AdditionalColumn struct {
	Alias      string
	Expression string
}

// MergeColumn exposes one merge view column sourced from a different child
// column depending on which child row exists.
type MergeColumn struct {
	Alias   string
	Sources []MergeSource
}

type MergeSource struct {
	Child  string
	Column string
}

// Child returns the child registered under alias.
func (d *Definition) Child(alias string) (*Entity, bool) {
	for _, c := range d.Children {
		if c.Alias == alias {
			return c, true
		}
	}
	return nil, false
}

// Parent returns the parent entity.
func (d *Definition) Parent() *Entity {
	return &d.Entity
}

// TypeName is the unqualified name of the discriminator enum and of the
// discriminator column in the merge view.
func (d *Definition) TypeName() string {
	return d.Alias + "_type"
}

// TypeMembers lists the discriminator enum values in declaration order.
func (d *Definition) TypeMembers() []string {
	var members []string
	if d.AllowParentOnly {
		members = append(members, d.Alias)
	}
	for _, c := range d.Children {
		members = append(members, c.Alias)
	}
	return members
}

// MergedColumn reports the merge column alias consuming column col of the
// given child, if any.
func (m *MergeView) MergedColumn(child, col string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, mc := range m.MergeColumns {
		for _, src := range mc.Sources {
			if src.Child == child && src.Column == col {
				return mc.Alias, true
			}
		}
	}
	return "", false
}
