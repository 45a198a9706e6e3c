package generator

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/inheritview/schema"
)

// JoinView returns the view exposing the parent joined with one child.
func (g *Generator) JoinView(child string) (string, error) {
	c, err := g.child(child)
	if err != nil {
		return "", err
	}
	return g.joinView(c), nil
}

// JoinInsertTrigger returns the function and trigger inserting through the
// join view of child.
func (g *Generator) JoinInsertTrigger(child string) (string, error) {
	c, err := g.child(child)
	if err != nil {
		return "", err
	}
	return g.joinInsertTrigger(c), nil
}

// JoinUpdateTrigger returns the function and trigger updating through the
// join view of child.
func (g *Generator) JoinUpdateTrigger(child string) (string, error) {
	c, err := g.child(child)
	if err != nil {
		return "", err
	}
	return g.joinUpdateTrigger(c), nil
}

// JoinDeleteTrigger returns the function and trigger deleting through the
// join view of child.
func (g *Generator) JoinDeleteTrigger(child string) (string, error) {
	c, err := g.child(child)
	if err != nil {
		return "", err
	}
	return g.joinDeleteTrigger(c), nil
}

func (g *Generator) joinView(child *schema.Entity) string {
	p := g.def.Parent()

	items := []selectItem{{expr: p.Alias + "." + ident(p.PKey)}}
	items = append(items, g.readItems(p, p.ExternalName, nil)...)
	items = append(items, g.readItems(child, child.ExternalName, nil)...)

	// Columns of an existing view cannot be renamed or reordered in place
	var w sqlWriter
	w.line(0, "DROP VIEW IF EXISTS "+g.JoinViewName(child.Alias)+";")
	return w.String() + view{
		name:      g.JoinViewName(child.Alias),
		items:     items,
		from:      child.Table,
		fromAlias: child.Alias,
		joins: []join{{
			kind:  "INNER",
			table: p.Table,
			alias: p.Alias,
			on:    fmt.Sprintf("%s.%s = %s.%s", child.Alias, ident(child.PKey), p.Alias, ident(p.PKey)),
		}},
	}.String()
}

func (g *Generator) joinInsertTrigger(child *schema.Entity) string {
	pk := ident(g.def.PKey)

	message := fmt.Sprintf("Cannot insert %s as %s since it already has another subtype. ID: %%", g.def.Alias, child.Alias)
	body := g.createParent(quoteLiteral(child.Alias), message, nil)

	values := append([]assignment{{column: ident(child.PKey), value: "NEW." + pk}}, g.writeAssignments(child, child.ExternalName)...)
	body = append(body,
		insert{table: child.Table, values: values},
		returnStmt("NEW"),
	)

	return g.joinTrigger(child, eventInsert, body)
}

func (g *Generator) joinUpdateTrigger(child *schema.Entity) string {
	pk := ident(g.def.PKey)

	var body []stmt
	for _, e := range []*schema.Entity{g.def.Parent(), child} {
		set := g.writeAssignments(e, e.ExternalName)
		if len(set) == 0 {
			continue
		}
		body = append(body, update{table: e.Table, set: set, where: ident(e.PKey) + " = NEW." + pk})
	}
	body = append(body, returnStmt("NEW"))

	return g.joinTrigger(child, eventUpdate, body)
}

func (g *Generator) joinDeleteTrigger(child *schema.Entity) string {
	key := "OLD." + ident(g.def.PKey)
	body := []stmt{
		deleteEntity(child, key),
		deleteEntity(g.def.Parent(), key),
		returnStmt("OLD"),
	}
	return g.joinTrigger(child, eventDelete, body)
}

func (g *Generator) joinTrigger(child *schema.Entity, event string, body []stmt) string {
	fn := function{name: g.joinFunctionName(child.Alias, event), body: body}

	on := event
	if event == eventDelete && g.opts.LegacyJoinDeleteEvent {
		on = eventUpdate
	}
	tr := trigger{
		name:     g.joinTriggerName(child.Alias, event),
		event:    strings.ToUpper(on),
		relation: g.JoinViewName(child.Alias),
		function: fn.name,
	}
	return fn.String() + "\n" + tr.String()
}
