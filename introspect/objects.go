package introspect

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ExistingObject is a view, function, trigger or enum type found in a schema.
type ExistingObject struct {
	Kind     string `db:"kind"`
	Name     string `db:"name"`
	Relation string `db:"relation"`
}

const objectsQuery = `
	SELECT 'view' AS kind, n.nspname || '.' || c.relname AS name, '' AS relation
	FROM pg_class c
	JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE n.nspname = $1 AND c.relkind = 'v'
	UNION ALL
	SELECT 'function', n.nspname || '.' || p.proname, ''
	FROM pg_proc p
	JOIN pg_namespace n ON n.oid = p.pronamespace
	WHERE n.nspname = $1
	UNION ALL
	SELECT 'trigger', t.tgname, n.nspname || '.' || c.relname
	FROM pg_trigger t
	JOIN pg_class c ON c.oid = t.tgrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE n.nspname = $1 AND NOT t.tgisinternal
	UNION ALL
	SELECT 'type', n.nspname || '.' || t.typname, ''
	FROM pg_type t
	JOIN pg_namespace n ON n.oid = t.typnamespace
	WHERE n.nspname = $1 AND t.typtype = 'e'
	ORDER BY 1, 2, 3;
	`

// ExistingObjects lists the objects of schemaName that generation can produce.
func ExistingObjects(ctx context.Context, db *sqlx.DB, schemaName string) ([]ExistingObject, error) {
	var objects []ExistingObject
	if err := db.SelectContext(ctx, &objects, objectsQuery, schemaName); err != nil {
		return nil, fmt.Errorf("querying objects of schema %s: %w", schemaName, err)
	}
	return objects, nil
}
