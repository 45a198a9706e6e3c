package introspect

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Resolver discovers the column layout of tables from the PostgreSQL catalog.
type Resolver struct {
	db *sqlx.DB
}

// NewResolver returns a resolver querying db.
func NewResolver(db *sqlx.DB) *Resolver {
	return &Resolver{db: db}
}

const columnsQuery = `
	SELECT a.attname
	FROM pg_attribute a
	WHERE a.attrelid = $1::text::regclass
		AND a.attnum > 0
		AND NOT a.attisdropped
	ORDER BY a.attnum;
	`

// Columns returns the columns of table in physical order, pkey excluded.
func (r *Resolver) Columns(ctx context.Context, table, pkey string) ([]string, error) {
	var all []string
	if err := r.db.SelectContext(ctx, &all, columnsQuery, table); err != nil {
		return nil, fmt.Errorf("querying columns of %s: %w", table, err)
	}

	columns := make([]string, 0, len(all))
	found := false
	for _, col := range all {
		if col == pkey {
			found = true
			continue
		}
		columns = append(columns, col)
	}
	if !found {
		return nil, fmt.Errorf("primary key column %q not found in table %s", pkey, table)
	}

	return columns, nil
}
