package validator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ridoystarlord/inheritview/schema"
)

// ErrInvalidDefinition is matched by every DefinitionError.
var ErrInvalidDefinition = errors.New("invalid definition")

// Validation error kinds.
const (
	KindMissingField      = "missing_field"
	KindInvalidIdentifier = "invalid_identifier"
	KindDuplicateAlias    = "duplicate_alias"
	KindUnknownChild      = "unknown_child"
	KindUnknownColumn     = "unknown_column"
	KindColumnCollision   = "column_collision"
	KindIntrospection     = "introspection"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError represents a validation error with details
type ValidationError struct {
	Type     string `json:"type"`
	Field    string `json:"field,omitempty"`
	Table    string `json:"table,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "error", "warning"
}

func (e ValidationError) String() string {
	var b strings.Builder
	if e.Field != "" {
		b.WriteString(e.Field)
	}
	if e.Table != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "[%s]", e.Table)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// ValidationResult contains all validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`

	causes []error
}

// NewResult returns an empty, valid result.
func NewResult() *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}
}

func (r *ValidationResult) addError(kind, field, table, format string, args ...interface{}) {
	r.Errors = append(r.Errors, ValidationError{
		Type:     kind,
		Field:    field,
		Table:    table,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
	})
	r.Valid = false
}

func (r *ValidationResult) addWarning(kind, field, table, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, ValidationError{
		Type:     kind,
		Field:    field,
		Table:    table,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityWarning,
	})
}

// AddIntrospectionError records a failed column lookup for the entity at
// field. The cause stays reachable through errors.Is and errors.As.
func (r *ValidationResult) AddIntrospectionError(field, table string, err error) {
	r.addError(KindIntrospection, field, table, "%v", err)
	r.causes = append(r.causes, err)
}

// Merge appends the findings of other to r.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.causes = append(r.causes, other.causes...)
	r.Valid = len(r.Errors) == 0
}

// Err returns a *DefinitionError when the result holds errors.
func (r *ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return &DefinitionError{Errors: r.Errors, causes: r.causes}
}

// DefinitionError reports every configuration defect found before generation.
type DefinitionError struct {
	Errors []ValidationError

	causes []error
}

func (e *DefinitionError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.String()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidDefinition, strings.Join(msgs, "; "))
}

func (e *DefinitionError) Is(target error) bool {
	return target == ErrInvalidDefinition
}

func (e *DefinitionError) Unwrap() []error {
	return e.causes
}

// Validate checks a definition without looking at the database: required
// fields, identifiers, aliases and merge view references.
func Validate(def *schema.Definition) *ValidationResult {
	result := NewResult()

	requireField(result, "schema", def.Schema)
	requireField(result, "alias", def.Alias)
	requireField(result, "table", def.Table)
	requireField(result, "pkey", def.PKey)
	checkIdentifier(result, "schema", def.Schema)
	checkIdentifier(result, "alias", def.Alias)
	checkTableName(result, "table", def.Table)
	checkIdentifier(result, "pkey", def.PKey)
	checkRemapTargets(result, "remap", &def.Entity)

	if def.PKeyValueCreateEntry && strings.TrimSpace(def.PKeyValue) == "" {
		result.addError(KindMissingField, "pkey_value", "", "pkey_value is required when pkey_value_create_entry is enabled")
	}

	if len(def.Children) == 0 {
		result.addError(KindMissingField, "children", "", "at least one child is required")
	}

	seen := map[string]bool{def.Alias: true}
	for _, child := range def.Children {
		field := "children." + child.Alias
		if seen[child.Alias] {
			result.addError(KindDuplicateAlias, field, child.Table, "alias '%s' is already used", child.Alias)
		}
		seen[child.Alias] = true

		checkIdentifier(result, field, child.Alias)
		requireField(result, field+".table", child.Table)
		requireField(result, field+".pkey", child.PKey)
		checkTableName(result, field+".table", child.Table)
		checkIdentifier(result, field+".pkey", child.PKey)
		checkRemapTargets(result, field+".remap", child)
	}

	if def.MergeView != nil {
		validateMergeView(result, def)
	}

	return result
}

func validateMergeView(result *ValidationResult, def *schema.Definition) {
	mv := def.MergeView
	requireField(result, "merge_view.name", mv.Name)
	checkIdentifier(result, "merge_view.name", mv.Name)

	for _, ac := range mv.AdditionalColumns {
		field := "merge_view.additional_columns." + ac.Alias
		checkIdentifier(result, field, ac.Alias)
		requireField(result, field, ac.Expression)
	}

	for _, mc := range mv.MergeColumns {
		field := "merge_view.merge_columns." + mc.Alias
		checkIdentifier(result, field, mc.Alias)
		if len(mc.Sources) == 0 {
			result.addError(KindMissingField, field, "", "merge column '%s' has no source column", mc.Alias)
		}
		for _, src := range mc.Sources {
			if _, ok := def.Child(src.Child); !ok {
				result.addError(KindUnknownChild, field+"."+src.Child, "", "child '%s' is not defined", src.Child)
			}
			requireField(result, field+"."+src.Child, src.Column)
		}
	}
}

// ColumnSet maps an entity alias to its non-key columns in physical order.
type ColumnSet map[string][]string

// ValidateColumns checks the definition against introspected columns: merge
// column sources must exist and the external column names of every view must
// be unique.
func ValidateColumns(def *schema.Definition, columns ColumnSet) *ValidationResult {
	result := NewResult()

	checkRuleColumns(result, "", &def.Entity, columns[def.Alias])
	for _, child := range def.Children {
		checkRuleColumns(result, "children."+child.Alias+".", child, columns[child.Alias])
	}

	for _, child := range def.Children {
		names := []string{def.PKey}
		names = append(names, externalNames(&def.Entity, columns[def.Alias], nil)...)
		names = append(names, externalNames(child, columns[child.Alias], nil)...)
		checkCollisions(result, "children."+child.Alias, fmt.Sprintf("vw_%s_%s", def.Alias, child.Alias), names)
	}

	if mv := def.MergeView; mv != nil {
		for _, mc := range mv.MergeColumns {
			for _, src := range mc.Sources {
				if _, ok := def.Child(src.Child); !ok {
					continue
				}
				if !contains(columns[src.Child], src.Column) {
					result.addError(KindUnknownColumn, "merge_view.merge_columns."+mc.Alias+"."+src.Child, "",
						"column '%s' does not exist in child '%s'", src.Column, src.Child)
				}
			}
		}

		names := []string{def.TypeName(), def.PKey}
		names = append(names, externalNames(&def.Entity, columns[def.Alias], nil)...)
		for _, ac := range mv.AdditionalColumns {
			names = append(names, ac.Alias)
		}
		for _, mc := range mv.MergeColumns {
			names = append(names, mc.Alias)
		}
		for _, child := range def.Children {
			alias := child.Alias
			names = append(names, externalNames(child, columns[alias], func(col string) bool {
				_, merged := mv.MergedColumn(alias, col)
				return merged
			})...)
		}
		checkCollisions(result, "merge_view", mv.Name, names)
	}

	return result
}

func externalNames(e *schema.Entity, cols []string, skip func(string) bool) []string {
	names := make([]string, 0, len(cols))
	for _, col := range cols {
		if skip != nil && skip(col) {
			continue
		}
		names = append(names, e.ExternalName(col))
	}
	return names
}

func checkCollisions(result *ValidationResult, field, view string, names []string) {
	seen := map[string]bool{}
	reported := map[string]bool{}
	for _, name := range names {
		if seen[name] && !reported[name] {
			result.addError(KindColumnCollision, field, "",
				"column '%s' appears more than once in view '%s'", name, view)
			reported[name] = true
		}
		seen[name] = true
	}
}

func checkRuleColumns(result *ValidationResult, prefix string, e *schema.Entity, cols []string) {
	for _, col := range sortedKeys(e.Alters) {
		if !contains(cols, col) {
			result.addWarning(KindUnknownColumn, prefix+"alter."+col, e.Table,
				"alter rule for unknown column '%s' is ignored", col)
		}
	}
	for _, col := range sortedKeys(e.Remaps) {
		if !contains(cols, col) {
			result.addWarning(KindUnknownColumn, prefix+"remap."+col, e.Table,
				"remap rule for unknown column '%s' is ignored", col)
		}
	}
}

func checkRemapTargets(result *ValidationResult, field string, e *schema.Entity) {
	for _, col := range sortedKeys(e.Remaps) {
		checkIdentifier(result, field+"."+col, e.Remaps[col])
	}
}

func requireField(result *ValidationResult, field, value string) {
	if strings.TrimSpace(value) == "" {
		result.addError(KindMissingField, field, "", "%s is required", field)
	}
}

// checkTableName accepts an optionally schema-qualified table name.
func checkTableName(result *ValidationResult, field, name string) {
	if name == "" {
		return
	}
	for _, part := range strings.Split(name, ".") {
		if err := validateIdentifier(part); err != nil {
			result.addError(KindInvalidIdentifier, field, name, "%v", err)
			return
		}
	}
}

func checkIdentifier(result *ValidationResult, field, name string) {
	if name == "" {
		return
	}
	if err := validateIdentifier(name); err != nil {
		result.addError(KindInvalidIdentifier, field, "", "%v", err)
	}
}

// validateIdentifier applies PostgreSQL identifier rules to names that are
// interpolated into generated SQL unquoted.
func validateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}

	if len(name) > 63 {
		return fmt.Errorf("identifier '%s' is too long (max 63 characters)", name)
	}

	for i, char := range name {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '_') {
			return fmt.Errorf("identifier '%s' contains invalid character '%c'", name, char)
		}
		if i == 0 && char >= '0' && char <= '9' {
			return fmt.Errorf("identifier '%s' cannot start with a digit", name)
		}
	}

	if IsReservedKeyword(name) {
		return fmt.Errorf("identifier '%s' is a reserved keyword", name)
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
