package generator

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/inheritview/schema"
)

// MergeType returns the discriminator enum. The merge view depends on the
// type, so both are dropped before the type is created again.
func (g *Generator) MergeType() string {
	if g.def.MergeView == nil {
		return ""
	}

	members := g.def.TypeMembers()
	literals := make([]string, len(members))
	for i, m := range members {
		literals[i] = quoteLiteral(m)
	}

	var w sqlWriter
	w.line(0, "DROP VIEW IF EXISTS "+g.MergeViewName()+";")
	w.line(0, "DROP TYPE IF EXISTS "+g.TypeName()+";")
	w.line(0, "CREATE TYPE "+g.TypeName()+" AS ENUM (")
	w.list(1, literals)
	w.line(0, ");")
	return w.String()
}

// MergeView returns the view unioning the parent with every child.
func (g *Generator) MergeView() string {
	mv := g.def.MergeView
	if mv == nil {
		return ""
	}
	p := g.def.Parent()

	var typeWhens [][2]string
	for _, child := range g.def.Children {
		typeWhens = append(typeWhens, [2]string{
			child.Alias + "." + ident(child.PKey) + " IS NOT NULL",
			g.typeLiteral(child.Alias),
		})
	}
	typeElse := "NULL"
	if g.def.AllowParentOnly {
		typeElse = g.typeLiteral(g.def.Alias)
	}

	items := []selectItem{
		{expr: caseExpr(typeWhens, typeElse), alias: g.def.TypeName()},
		{expr: p.Alias + "." + ident(p.PKey)},
	}
	items = append(items, g.readItems(p, p.ExternalName, nil)...)
	for _, ac := range mv.AdditionalColumns {
		items = append(items, selectItem{expr: ac.Expression, alias: ident(ac.Alias)})
	}
	for _, mc := range mv.MergeColumns {
		var whens [][2]string
		for _, src := range mc.Sources {
			child, _ := g.def.Child(src.Child)
			value := child.Alias + "." + ident(src.Column)
			if fn, ok := child.AlterRead(src.Column); ok {
				value = fn + "(" + value + ")"
			}
			whens = append(whens, [2]string{child.Alias + "." + ident(child.PKey) + " IS NOT NULL", value})
		}
		items = append(items, selectItem{expr: caseExpr(whens, "NULL"), alias: ident(mc.Alias)})
	}
	for _, child := range g.def.Children {
		alias := child.Alias
		items = append(items, g.readItems(child, child.ExternalName, func(col string) bool {
			_, merged := mv.MergedColumn(alias, col)
			return merged
		})...)
	}

	var joins []join
	for _, child := range g.def.Children {
		joins = append(joins, join{
			kind:  "LEFT",
			table: child.Table,
			alias: child.Alias,
			on:    fmt.Sprintf("%s.%s = %s.%s", p.Alias, ident(p.PKey), child.Alias, ident(child.PKey)),
		})
	}

	return view{
		name:      g.MergeViewName(),
		items:     items,
		from:      p.Table,
		fromAlias: p.Alias,
		joins:     joins,
		extra:     mv.AdditionalJoin,
	}.String()
}

// MergeInsertTrigger returns the function and trigger inserting through the
// merge view: the parent row first, then the child selected by the
// discriminator.
func (g *Generator) MergeInsertTrigger() string {
	if g.def.MergeView == nil {
		return ""
	}
	pk := ident(g.def.PKey)
	newType := "NEW." + g.def.TypeName()

	var body []stmt
	if !g.def.AllowParentOnly {
		body = append(body, g.parentOnlyGuard("Insert", nil))
	}

	message := fmt.Sprintf("Cannot insert %s as %% since it already has another subtype. ID: %%", g.def.Alias)
	body = append(body, g.createParent(newType+"::text", message, []string{newType})...)

	var whens []caseWhen
	for _, child := range g.def.Children {
		whens = append(whens, caseWhen{
			cond: g.typeIs(newType, child.Alias),
			then: []stmt{g.mergeChildInsert(child, "NEW."+pk)},
		})
	}
	body = append(body,
		caseBlock{whens: whens, elseNull: g.def.AllowParentOnly},
		returnStmt("NEW"),
	)

	return g.mergeTrigger(eventInsert, body)
}

// MergeUpdateTrigger returns the function and trigger updating through the
// merge view. A discriminator change either moves the row to another child
// table or is rejected, depending on allow_type_change.
func (g *Generator) MergeUpdateTrigger() string {
	mv := g.def.MergeView
	if mv == nil {
		return ""
	}
	p := g.def.Parent()
	key := "OLD." + ident(p.PKey)
	oldType := "OLD." + g.def.TypeName()
	newType := "NEW." + g.def.TypeName()

	var body []stmt
	if set := g.writeAssignments(p, p.ExternalName); len(set) > 0 {
		body = append(body, update{table: p.Table, set: set, where: ident(p.PKey) + " = " + key})
	}
	if !g.def.AllowParentOnly {
		body = append(body, g.parentOnlyGuard("Update", []string{key}))
	}

	var onChange []stmt
	if mv.AllowTypeChange {
		var deletes, inserts []caseWhen
		for _, child := range g.def.Children {
			deletes = append(deletes, caseWhen{
				cond: g.typeIs(oldType, child.Alias),
				then: []stmt{deleteFrom{table: child.Table, where: ident(child.PKey) + " = " + key}},
			})
			inserts = append(inserts, caseWhen{
				cond: g.typeIs(newType, child.Alias),
				then: []stmt{g.mergeChildInsert(child, key)},
			})
		}
		onChange = []stmt{
			comment("delete old sub type"),
			caseBlock{whens: deletes, elseNull: true},
			comment("insert new sub type"),
			caseBlock{whens: inserts, elseNull: g.def.AllowParentOnly},
			comment("return now as child has been updated"),
			returnStmt("NEW"),
		}
	} else {
		onChange = []stmt{raise{
			message: fmt.Sprintf("Type change not allowed for %s. ID: %%", g.def.Alias),
			args:    []string{key},
			hint:    fmt.Sprintf("format('You cannot switch from %%s to %%s', %s, %s)", oldType, newType),
		}}
	}
	body = append(body,
		comment("detect if type has changed"),
		ifBlock{cond: oldType + " IS DISTINCT FROM " + newType, then: onChange},
	)

	var whens []caseWhen
	for _, child := range g.def.Children {
		var then stmt = nullStmt{}
		if set := g.writeAssignments(child, g.mergeExternal(child)); len(set) > 0 {
			then = update{table: child.Table, set: set, where: ident(child.PKey) + " = " + key}
		}
		whens = append(whens, caseWhen{cond: g.typeIs(newType, child.Alias), then: []stmt{then}})
	}
	body = append(body,
		caseBlock{whens: whens, elseNull: g.def.AllowParentOnly},
		returnStmt("NEW"),
	)

	return g.mergeTrigger(eventUpdate, body)
}

// MergeDeleteTrigger returns the function and trigger deleting through the
// merge view.
func (g *Generator) MergeDeleteTrigger() string {
	if g.def.MergeView == nil {
		return ""
	}
	key := "OLD." + ident(g.def.PKey)
	oldType := "OLD." + g.def.TypeName()

	var whens []caseWhen
	for _, child := range g.def.Children {
		whens = append(whens, caseWhen{
			cond: g.typeIs(oldType, child.Alias),
			then: []stmt{deleteEntity(child, key)},
		})
	}
	body := []stmt{
		caseBlock{whens: whens, elseNull: true},
		deleteEntity(g.def.Parent(), key),
		returnStmt("OLD"),
	}

	return g.mergeTrigger(eventDelete, body)
}

func (g *Generator) mergeTrigger(event string, body []stmt) string {
	fn := function{name: g.mergeFunctionName(event), body: body}
	tr := trigger{
		name:     g.mergeTriggerName(event),
		event:    strings.ToUpper(event),
		relation: g.MergeViewName(),
		function: fn.name,
	}
	return fn.String() + "\n" + tr.String()
}

// mergeExternal names the merge view field feeding each column of child: the
// merge column consuming it, else its remapped name.
func (g *Generator) mergeExternal(child *schema.Entity) func(string) string {
	return func(col string) string {
		if alias, ok := g.def.MergeView.MergedColumn(child.Alias, col); ok {
			return alias
		}
		return child.ExternalName(col)
	}
}

func (g *Generator) mergeChildInsert(child *schema.Entity, key string) stmt {
	values := append([]assignment{{column: ident(child.PKey), value: key}}, g.writeAssignments(child, g.mergeExternal(child))...)
	return insert{table: child.Table, values: values}
}

func (g *Generator) parentOnlyGuard(operation string, args []string) stmt {
	message := fmt.Sprintf("%s on %s only is not allowed.", operation, g.def.Alias)
	if len(args) > 0 {
		message += " ID: %"
	}
	return ifBlock{
		cond: "NEW." + g.def.TypeName() + " IS NULL",
		then: []stmt{raise{message: message, args: args, hint: quoteLiteral("It must have a sub-type.")}},
	}
}

func (g *Generator) typeLiteral(member string) string {
	return quoteLiteral(member) + "::" + g.TypeName()
}

func (g *Generator) typeIs(value, member string) string {
	return value + " = " + g.typeLiteral(member)
}
