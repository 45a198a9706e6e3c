package generator

import (
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ridoystarlord/inheritview/validator"
)

// sqlWriter accumulates rendered SQL, one tab per indentation level.
type sqlWriter struct {
	b strings.Builder
}

func (w *sqlWriter) line(depth int, s string) {
	w.b.WriteString(strings.Repeat("\t", depth))
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

// lines writes a fragment that may span several lines at the same depth.
func (w *sqlWriter) lines(depth int, s string) {
	for _, l := range strings.Split(s, "\n") {
		w.line(depth, l)
	}
}

// list writes items one per line, every item after the first led by a comma.
func (w *sqlWriter) list(depth int, items []string) {
	for i, item := range items {
		if i > 0 {
			item = ", " + item
		}
		w.lines(depth, item)
	}
}

// terminate closes the last written line with a semicolon.
func (w *sqlWriter) terminate() {
	s := strings.TrimSuffix(w.b.String(), "\n")
	w.b.Reset()
	w.b.WriteString(s)
	w.b.WriteString(";\n")
}

func (w *sqlWriter) String() string {
	return w.b.String()
}

// stmt is one statement of a PL/pgSQL function body.
type stmt interface {
	render(w *sqlWriter, depth int)
}

func renderAll(w *sqlWriter, depth int, body []stmt) {
	for _, s := range body {
		s.render(w, depth)
	}
}

type comment string

func (c comment) render(w *sqlWriter, depth int) {
	w.line(depth, "-- "+string(c))
}

// raw is a caller supplied statement such as a custom delete.
type raw string

func (r raw) render(w *sqlWriter, depth int) {
	w.lines(depth, trimStatement(string(r))+";")
}

type nullStmt struct{}

func (nullStmt) render(w *sqlWriter, depth int) {
	w.line(depth, "NULL;")
}

type assign struct {
	target string
	expr   string
}

func (a assign) render(w *sqlWriter, depth int) {
	w.line(depth, a.target+" := "+a.expr+";")
}

// assignment pairs a physical column with the expression stored into it.
type assignment struct {
	column string
	value  string
}

type insert struct {
	table     string
	values    []assignment
	returning string
}

func (i insert) render(w *sqlWriter, depth int) {
	columns := make([]string, len(i.values))
	values := make([]string, len(i.values))
	for n, a := range i.values {
		columns[n] = a.column
		values[n] = a.value
	}

	w.line(depth, "INSERT INTO "+i.table+" (")
	w.list(depth+1, columns)
	w.line(depth, ") VALUES (")
	w.list(depth+1, values)
	if i.returning != "" {
		w.line(depth, ") RETURNING "+i.returning+";")
		return
	}
	w.line(depth, ");")
}

type update struct {
	table string
	set   []assignment
	where string
}

func (u update) render(w *sqlWriter, depth int) {
	items := make([]string, len(u.set))
	for n, a := range u.set {
		items[n] = a.column + " = " + a.value
	}

	w.line(depth, "UPDATE "+u.table+" SET")
	w.list(depth+1, items)
	w.line(depth, "WHERE "+u.where+";")
}

type deleteFrom struct {
	table string
	where string
}

func (d deleteFrom) render(w *sqlWriter, depth int) {
	w.line(depth, "DELETE FROM "+d.table+" WHERE "+d.where+";")
}

type ifBlock struct {
	cond string
	then []stmt
}

func (b ifBlock) render(w *sqlWriter, depth int) {
	cond := strings.Split(b.cond, "\n")
	cond[0] = "IF " + cond[0]
	cond[len(cond)-1] += " THEN"
	for _, l := range cond {
		w.line(depth, l)
	}
	renderAll(w, depth+1, b.then)
	w.line(depth, "END IF;")
}

type caseWhen struct {
	cond string
	then []stmt
}

// caseBlock is a PL/pgSQL CASE statement. Without elseNull an unmatched
// value raises CASE_NOT_FOUND.
type caseBlock struct {
	whens    []caseWhen
	elseNull bool
}

func (c caseBlock) render(w *sqlWriter, depth int) {
	w.line(depth, "CASE")
	for _, when := range c.whens {
		w.line(depth+1, "WHEN "+when.cond+" THEN")
		renderAll(w, depth+2, when.then)
	}
	if c.elseNull {
		w.line(depth+1, "ELSE")
		w.line(depth+2, "NULL;")
	}
	w.line(depth, "END CASE;")
}

type raise struct {
	message string
	args    []string
	hint    string
}

func (r raise) render(w *sqlWriter, depth int) {
	s := "RAISE EXCEPTION " + quoteLiteral(r.message)
	for _, a := range r.args {
		s += ", " + a
	}
	if r.hint == "" {
		w.line(depth, s+";")
		return
	}
	w.line(depth, s)
	w.line(depth+1, "USING HINT = "+r.hint+";")
}

type returnStmt string

func (r returnStmt) render(w *sqlWriter, depth int) {
	w.line(depth, "RETURN "+string(r)+";")
}

// function is a trigger function written in PL/pgSQL.
type function struct {
	name string
	body []stmt
}

func (f function) String() string {
	var w sqlWriter
	w.line(0, "CREATE OR REPLACE FUNCTION "+f.name+"()")
	w.line(1, "RETURNS trigger AS")
	w.line(1, "$$")
	w.line(1, "BEGIN")
	renderAll(&w, 2, f.body)
	w.line(1, "END;")
	w.line(1, "$$")
	w.line(1, "LANGUAGE plpgsql;")
	return w.String()
}

// trigger binds a function to a view, dropping any previous binding first.
type trigger struct {
	name     string
	event    string
	relation string
	function string
}

func (t trigger) String() string {
	var w sqlWriter
	w.line(0, "DROP TRIGGER IF EXISTS "+t.name+" ON "+t.relation+";")
	w.line(0, "CREATE TRIGGER "+t.name)
	w.line(1, "INSTEAD OF "+t.event)
	w.line(1, "ON "+t.relation)
	w.line(1, "FOR EACH ROW")
	w.line(1, "EXECUTE PROCEDURE "+t.function+"();")
	return w.String()
}

type selectItem struct {
	expr  string
	alias string
}

func (s selectItem) String() string {
	if s.alias == "" {
		return s.expr
	}
	return s.expr + " AS " + s.alias
}

type join struct {
	kind  string
	table string
	alias string
	on    string
}

type view struct {
	name      string
	items     []selectItem
	from      string
	fromAlias string
	joins     []join
	extra     string
}

func (v view) String() string {
	items := make([]string, len(v.items))
	for n, item := range v.items {
		items[n] = item.String()
	}

	var w sqlWriter
	w.line(0, "CREATE OR REPLACE VIEW "+v.name+" AS")
	w.line(1, "SELECT")
	w.list(2, items)
	w.line(1, "FROM "+v.from+" "+v.fromAlias)
	for _, j := range v.joins {
		w.line(2, j.kind+" JOIN "+j.table+" "+j.alias+" ON "+j.on)
	}
	if extra := trimStatement(v.extra); extra != "" {
		w.lines(2, extra)
	}
	w.terminate()
	return w.String()
}

// caseExpr renders a searched CASE expression spanning several lines.
func caseExpr(whens [][2]string, elseExpr string) string {
	var b strings.Builder
	b.WriteString("CASE\n")
	for _, when := range whens {
		b.WriteString("\tWHEN " + when[0] + " THEN " + when[1] + "\n")
	}
	b.WriteString("\tELSE " + elseExpr + "\n")
	b.WriteString("END")
	return b.String()
}

var simpleIdentifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ident quotes a column name unless it can be written bare.
func ident(name string) string {
	if simpleIdentifier.MatchString(name) && !validator.IsReservedKeyword(name) {
		return name
	}
	return pgx.Identifier{name}.Sanitize()
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// trimStatement strips surrounding blanks and trailing semicolons.
func trimStatement(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "; \t\n")
}
