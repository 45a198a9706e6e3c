package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ridoystarlord/inheritview/schema"
	"github.com/ridoystarlord/inheritview/validator"
)

// ColumnResolver returns the non-key columns of a table in physical order.
type ColumnResolver interface {
	Columns(ctx context.Context, table, pkey string) ([]string, error)
}

// StaticColumns resolves columns from a fixed map keyed by table name, for
// generating without a database.
type StaticColumns map[string][]string

func (s StaticColumns) Columns(_ context.Context, table, pkey string) ([]string, error) {
	cols, ok := s[table]
	if !ok {
		return nil, fmt.Errorf("table %s not found", table)
	}
	out := make([]string, 0, len(cols))
	found := false
	for _, col := range cols {
		if col == pkey {
			found = true
			continue
		}
		out = append(out, col)
	}
	if !found {
		return nil, fmt.Errorf("primary key column %q not found in table %s", pkey, table)
	}
	return out, nil
}

// Options tunes generation.
type Options struct {
	// LegacyJoinDeleteEvent wires join view delete triggers as INSTEAD OF
	// UPDATE, as older generated scripts did.
	LegacyJoinDeleteEvent bool
	Logger                *slog.Logger
}

const (
	eventInsert = "insert"
	eventUpdate = "update"
	eventDelete = "delete"
)

var events = []string{eventInsert, eventUpdate, eventDelete}

// Generator emits the views and triggers for one definition. Columns are
// resolved once in New, so every method is a pure function of its state.
type Generator struct {
	def     *schema.Definition
	columns validator.ColumnSet
	opts    Options
	logger  *slog.Logger
}

// New validates def, resolves the columns of every table through resolver
// and checks the resulting views for column collisions.
func New(ctx context.Context, def *schema.Definition, resolver ColumnResolver, opts Options) (*Generator, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	result := validator.Validate(def)
	if !result.Valid {
		return nil, result.Err()
	}

	columns, colResult := ResolveColumns(ctx, def, resolver, logger)
	for _, w := range colResult.Warnings {
		logger.Warn(w.Message, "field", w.Field, "table", w.Table)
	}
	if !colResult.Valid {
		return nil, colResult.Err()
	}

	if opts.LegacyJoinDeleteEvent {
		logger.Warn("join view delete triggers are wired INSTEAD OF UPDATE and will fire on updates")
	}

	return &Generator{def: def, columns: columns, opts: opts, logger: logger}, nil
}

// ResolveColumns looks up the non-key columns of every table of def, each
// distinct table once, and validates the views they would produce. Columns
// are only partially filled when the result holds introspection errors.
func ResolveColumns(ctx context.Context, def *schema.Definition, resolver ColumnResolver, logger *slog.Logger) (validator.ColumnSet, *validator.ValidationResult) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	type tableKey struct{ table, pkey string }
	resolved := map[tableKey][]string{}
	columns := validator.ColumnSet{}
	result := validator.NewResult()

	entities := append([]*schema.Entity{def.Parent()}, def.Children...)
	for i, e := range entities {
		field := "table"
		if i > 0 {
			field = "children." + e.Alias + ".table"
		}
		key := tableKey{e.Table, e.PKey}
		cols, ok := resolved[key]
		if !ok {
			var err error
			cols, err = resolver.Columns(ctx, e.Table, e.PKey)
			if err != nil {
				result.AddIntrospectionError(field, e.Table, err)
				continue
			}
			resolved[key] = cols
			logger.Debug("resolved columns", "table", e.Table, "columns", strings.Join(cols, ","))
		}
		columns[e.Alias] = cols
	}
	if !result.Valid {
		return columns, result
	}

	result.Merge(validator.ValidateColumns(def, columns))
	return columns, result
}

// Definition returns the definition the generator was built from.
func (g *Generator) Definition() *schema.Definition {
	return g.def
}

// All returns the complete script: every child's join view and triggers,
// then the merge objects when a merge view is configured.
func (g *Generator) All() string {
	var parts []string
	for _, child := range g.def.Children {
		parts = append(parts,
			g.joinView(child),
			g.joinInsertTrigger(child),
			g.joinUpdateTrigger(child),
			g.joinDeleteTrigger(child),
		)
	}
	if g.def.MergeView != nil {
		parts = append(parts,
			g.MergeType(),
			g.MergeView(),
			g.MergeInsertTrigger(),
			g.MergeUpdateTrigger(),
			g.MergeDeleteTrigger(),
		)
	}
	return strings.Join(parts, "\n")
}

func (g *Generator) qualified(name string) string {
	return g.def.Schema + "." + name
}

// JoinViewName is the schema qualified join view of child.
func (g *Generator) JoinViewName(child string) string {
	return g.qualified(fmt.Sprintf("vw_%s_%s", g.def.Alias, child))
}

func (g *Generator) joinFunctionName(child, event string) string {
	return g.qualified(fmt.Sprintf("ft_%s_%s_%s", g.def.Alias, child, event))
}

func (g *Generator) joinTriggerName(child, event string) string {
	return fmt.Sprintf("tr_%s_%s_%s", g.def.Alias, child, event)
}

// MergeViewName is the schema qualified merge view, empty without one.
func (g *Generator) MergeViewName() string {
	if g.def.MergeView == nil {
		return ""
	}
	return g.qualified(g.def.MergeView.Name)
}

// TypeName is the schema qualified discriminator type.
func (g *Generator) TypeName() string {
	return g.qualified(g.def.TypeName())
}

func (g *Generator) mergeFunctionName(event string) string {
	return g.qualified(fmt.Sprintf("ft_%s_%s", g.def.MergeView.Name, event))
}

func (g *Generator) mergeTriggerName(event string) string {
	return fmt.Sprintf("tr_%s_%s", g.def.MergeView.Name, event)
}

func (g *Generator) child(alias string) (*schema.Entity, error) {
	child, ok := g.def.Child(alias)
	if !ok {
		return nil, fmt.Errorf("unknown child %q", alias)
	}
	return child, nil
}

// readItems projects the columns of e, applying read transforms. external
// names the view column for each physical column and skip drops columns.
func (g *Generator) readItems(e *schema.Entity, external func(string) string, skip func(string) bool) []selectItem {
	var items []selectItem
	for _, col := range g.columns[e.Alias] {
		if skip != nil && skip(col) {
			continue
		}
		expr := e.Alias + "." + ident(col)
		fn, altered := e.AlterRead(col)
		if altered {
			expr = fn + "(" + expr + ")"
		}
		item := selectItem{expr: expr}
		if name := external(col); altered || name != col {
			item.alias = ident(name)
		}
		items = append(items, item)
	}
	return items
}

// writeAssignments pairs each column of e with its incoming value, read from
// the NEW field named by external and passed through the write transform.
func (g *Generator) writeAssignments(e *schema.Entity, external func(string) string) []assignment {
	cols := g.columns[e.Alias]
	set := make([]assignment, 0, len(cols))
	for _, col := range cols {
		value := "NEW." + ident(external(col))
		if fn, ok := e.AlterWrite(col); ok {
			value = fn + "(" + value + ")"
		}
		set = append(set, assignment{column: ident(col), value: value})
	}
	return set
}

// createParent returns the statements creating the parent row, or resolving
// it through pkey_value in create-entry mode. subtype is the SQL expression
// naming the child being inserted.
func (g *Generator) createParent(subtype string, message string, args []string) []stmt {
	p := g.def.Parent()
	pk := ident(p.PKey)

	if !g.def.PKeyValueCreateEntry {
		pkValue := g.def.PKeyValue
		if pkValue == "" {
			pkValue = "DEFAULT"
		}
		values := append([]assignment{{column: pk, value: pkValue}}, g.writeAssignments(p, p.ExternalName)...)
		return []stmt{insert{
			table:     p.Table,
			values:    values,
			returning: pk + " INTO NEW." + pk,
		}}
	}

	body := []stmt{
		comment("The function creates or gets a parent row."),
		assign{target: "NEW." + pk, expr: g.def.PKeyValue},
		comment("If it previously existed with another subtype, it should raise an exception"),
		ifBlock{
			cond: g.claimedBy(subtype),
			then: []stmt{raise{message: message, args: append(args, "NEW."+pk)}},
		},
	}
	if set := g.writeAssignments(p, p.ExternalName); len(set) > 0 {
		body = append(body,
			comment("Now update the existing or created row in parent table"),
			update{table: p.Table, set: set, where: pk + " = NEW." + pk},
		)
	}
	return body
}

// claimedBy is a condition true when NEW's key already has a child row of a
// subtype other than subtype.
func (g *Generator) claimedBy(subtype string) string {
	pk := ident(g.def.PKey)

	var b strings.Builder
	b.WriteString("EXISTS (\n")
	b.WriteString("\tSELECT 1 FROM (\n")
	for i, child := range g.def.Children {
		b.WriteString("\t\t")
		if i > 0 {
			b.WriteString("UNION ALL ")
		}
		fmt.Fprintf(&b, "SELECT %s AS _oid, %s AS _type FROM %s\n", ident(child.PKey), quoteLiteral(child.Alias), child.Table)
	}
	b.WriteString("\t) AS claimed\n")
	fmt.Fprintf(&b, "\tWHERE claimed._oid = NEW.%s AND claimed._type IS DISTINCT FROM %s\n", pk, subtype)
	b.WriteString(")")
	return b.String()
}

// deleteEntity is the custom delete of e, or a delete by key.
func deleteEntity(e *schema.Entity, key string) stmt {
	if e.CustomDelete != "" {
		return raw(e.CustomDelete)
	}
	return deleteFrom{table: e.Table, where: ident(e.PKey) + " = " + key}
}
