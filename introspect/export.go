package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ridoystarlord/inheritview/schema"
)

// ChildTable is a table whose primary key references the parent's primary key.
type ChildTable struct {
	Schema string `db:"table_schema"`
	Table  string `db:"table_name"`
	PKey   string `db:"pkey"`
}

// PrimaryKey describes a single-column primary key and its default value.
type PrimaryKey struct {
	Column  string `db:"column_name"`
	Default string `db:"column_default"`
}

const primaryKeyQuery = `
	SELECT a.attname AS column_name, COALESCE(pg_get_expr(d.adbin, d.adrelid), '') AS column_default
	FROM pg_index i
	JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
	LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
	WHERE i.indrelid = $1::text::regclass AND i.indisprimary;
	`

const childTablesQuery = `
	SELECT cn.nspname AS table_schema, child.relname AS table_name, a.attname AS pkey
	FROM pg_constraint fk
	JOIN pg_class child ON child.oid = fk.conrelid
	JOIN pg_namespace cn ON cn.oid = child.relnamespace
	JOIN pg_constraint pk ON pk.conrelid = fk.conrelid AND pk.contype = 'p'
	JOIN pg_attribute a ON a.attrelid = fk.conrelid AND a.attnum = fk.conkey[1]
	WHERE fk.contype = 'f'
		AND fk.confrelid = $1::text::regclass
		AND array_length(fk.conkey, 1) = 1
		AND pk.conkey = fk.conkey
	ORDER BY cn.nspname, child.relname;
	`

// Exporter reverse-engineers a skeleton definition from foreign keys.
type Exporter struct {
	db *sqlx.DB
}

func NewExporter(db *sqlx.DB) *Exporter {
	return &Exporter{db: db}
}

// PrimaryKey returns the single primary key column of table.
func (x *Exporter) PrimaryKey(ctx context.Context, table string) (PrimaryKey, error) {
	var keys []PrimaryKey
	if err := x.db.SelectContext(ctx, &keys, primaryKeyQuery, table); err != nil {
		return PrimaryKey{}, fmt.Errorf("querying primary key of %s: %w", table, err)
	}
	switch len(keys) {
	case 0:
		return PrimaryKey{}, fmt.Errorf("table %s has no primary key", table)
	case 1:
		return keys[0], nil
	default:
		return PrimaryKey{}, fmt.Errorf("table %s has a composite primary key", table)
	}
}

// DiscoverChildren lists the tables whose primary key is also a foreign key
// to parentTable.
func (x *Exporter) DiscoverChildren(ctx context.Context, parentTable string) ([]ChildTable, error) {
	var children []ChildTable
	if err := x.db.SelectContext(ctx, &children, childTablesQuery, parentTable); err != nil {
		return nil, fmt.Errorf("querying children of %s: %w", parentTable, err)
	}
	return children, nil
}

// Definition builds a definition for parentTable with every discovered child.
// Child tables outside the parent's schema keep their schema prefix.
func (x *Exporter) Definition(ctx context.Context, targetSchema, parentTable, alias string) (*schema.Definition, error) {
	pk, err := x.PrimaryKey(ctx, parentTable)
	if err != nil {
		return nil, err
	}

	children, err := x.DiscoverChildren(ctx, parentTable)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, fmt.Errorf("no child table references %s", parentTable)
	}

	parentSchema, _ := splitTable(parentTable)
	if alias == "" {
		_, alias = splitTable(parentTable)
	}

	def := &schema.Definition{
		Entity: schema.Entity{
			Alias: alias,
			Table: parentTable,
			PKey:  pk.Column,
		},
		Schema:          targetSchema,
		PKeyValue:       pk.Default,
		AllowParentOnly: true,
	}
	for _, c := range children {
		table := c.Table
		if c.Schema != parentSchema {
			table = c.Schema + "." + c.Table
		}
		def.Children = append(def.Children, &schema.Entity{
			Alias: c.Table,
			Table: table,
			PKey:  c.PKey,
		})
	}

	return def, nil
}

// splitTable separates an optional schema prefix, defaulting to public.
func splitTable(table string) (string, string) {
	if i := strings.LastIndex(table, "."); i >= 0 {
		return table[:i], table[i+1:]
	}
	return "public", table
}
