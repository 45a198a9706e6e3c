package generator

import "strings"

// Object kinds, matching the kinds listed by introspect.ExistingObjects.
const (
	KindView     = "view"
	KindFunction = "function"
	KindTrigger  = "trigger"
	KindType     = "type"
)

// Object is one database object created by the generated script. Relation
// is set for triggers only.
type Object struct {
	Kind     string
	Name     string
	Relation string
}

// Objects lists every generated object in creation order.
func (g *Generator) Objects() []Object {
	var objects []Object
	for _, child := range g.def.Children {
		relation := g.JoinViewName(child.Alias)
		objects = append(objects, Object{Kind: KindView, Name: relation})
		for _, event := range events {
			objects = append(objects,
				Object{Kind: KindFunction, Name: g.joinFunctionName(child.Alias, event)},
				Object{Kind: KindTrigger, Name: g.joinTriggerName(child.Alias, event), Relation: relation},
			)
		}
	}

	if g.def.MergeView != nil {
		relation := g.MergeViewName()
		objects = append(objects,
			Object{Kind: KindType, Name: g.TypeName()},
			Object{Kind: KindView, Name: relation},
		)
		for _, event := range events {
			objects = append(objects,
				Object{Kind: KindFunction, Name: g.mergeFunctionName(event)},
				Object{Kind: KindTrigger, Name: g.mergeTriggerName(event), Relation: relation},
			)
		}
	}
	return objects
}

// NamePrefixes returns the unqualified name prefixes shared by the objects
// generated for this definition, including children removed since.
func (g *Generator) NamePrefixes() []string {
	prefixes := []string{
		"vw_" + g.def.Alias + "_",
		"ft_" + g.def.Alias + "_",
		"tr_" + g.def.Alias + "_",
	}
	if g.def.MergeView != nil {
		prefixes = append(prefixes,
			"ft_"+g.def.MergeView.Name+"_",
			"tr_"+g.def.MergeView.Name+"_",
		)
	}
	return prefixes
}

// DropAll returns a script dropping every generated object, in reverse
// creation order so dependents go first.
func (g *Generator) DropAll() string {
	objects := g.Objects()

	var b strings.Builder
	for i := len(objects) - 1; i >= 0; i-- {
		b.WriteString(dropStatement(objects[i]))
		b.WriteByte('\n')
	}
	return b.String()
}

func dropStatement(o Object) string {
	switch o.Kind {
	case KindTrigger:
		return "DROP TRIGGER IF EXISTS " + o.Name + " ON " + o.Relation + ";"
	case KindFunction:
		return "DROP FUNCTION IF EXISTS " + o.Name + "();"
	case KindView:
		return "DROP VIEW IF EXISTS " + o.Name + ";"
	default:
		return "DROP TYPE IF EXISTS " + o.Name + ";"
	}
}
