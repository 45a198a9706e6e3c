package validator

import "strings"

// reservedKeywords holds the words PostgreSQL reserves outright or only
// allows as function or type names, plus the PL/pgSQL reserved words that
// trigger bodies must not see bare.
var reservedKeywords = map[string]bool{
	// SQL reserved
	"all": true, "analyse": true, "analyze": true, "and": true, "any": true,
	"array": true, "as": true, "asc": true, "asymmetric": true, "both": true,
	"case": true, "cast": true, "check": true, "collate": true, "column": true,
	"constraint": true, "create": true, "current_catalog": true, "current_date": true,
	"current_role": true, "current_time": true, "current_timestamp": true,
	"current_user": true, "default": true, "deferrable": true, "desc": true,
	"distinct": true, "do": true, "else": true, "end": true, "except": true,
	"false": true, "fetch": true, "for": true, "foreign": true, "from": true,
	"grant": true, "group": true, "having": true, "in": true, "initially": true,
	"intersect": true, "into": true, "lateral": true, "leading": true, "limit": true,
	"localtime": true, "localtimestamp": true, "not": true, "null": true,
	"offset": true, "on": true, "only": true, "or": true, "order": true,
	"placing": true, "primary": true, "references": true, "returning": true,
	"select": true, "session_user": true, "some": true, "symmetric": true,
	"system_user": true, "table": true, "then": true, "to": true, "trailing": true,
	"true": true, "union": true, "unique": true, "user": true, "using": true,
	"variadic": true, "when": true, "where": true, "window": true, "with": true,

	// reserved, allowed as function or type name
	"authorization": true, "binary": true, "collation": true, "concurrently": true,
	"cross": true, "current_schema": true, "freeze": true, "full": true,
	"ilike": true, "inner": true, "is": true, "isnull": true, "join": true,
	"left": true, "like": true, "natural": true, "notnull": true, "outer": true,
	"overlaps": true, "right": true, "similar": true, "tablesample": true,
	"verbose": true,

	// PL/pgSQL
	"begin": true, "by": true, "declare": true, "execute": true, "foreach": true,
	"if": true, "loop": true, "strict": true, "while": true,

	// trigger row variables
	"new": true, "old": true,
}

// IsReservedKeyword reports whether name cannot appear unquoted in the
// generated SQL. The check is case-insensitive.
func IsReservedKeyword(name string) bool {
	return reservedKeywords[strings.ToLower(name)]
}
