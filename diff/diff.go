package diff

import (
	"sort"
	"strings"

	"github.com/ridoystarlord/inheritview/generator"
	"github.com/ridoystarlord/inheritview/introspect"
)

type ChangeType string

const (
	CreateObject ChangeType = "CREATE_OBJECT"
	DropObject   ChangeType = "DROP_OBJECT"
)

// Change is an object the database lacks, or a stale generated object the
// current definition no longer produces.
type Change struct {
	Type   ChangeType
	Object generator.Object
}

// Report compares generated objects with the objects found in the schema.
type Report struct {
	Present []generator.Object
	Changes []Change
}

// UpToDate reports whether every generated object exists and none is stale.
func (r Report) UpToDate() bool {
	return len(r.Changes) == 0
}

// Missing returns the objects that still have to be created.
func (r Report) Missing() []generator.Object {
	var objects []generator.Object
	for _, c := range r.Changes {
		if c.Type == CreateObject {
			objects = append(objects, c.Object)
		}
	}
	return objects
}

// Stale returns existing objects that look generated but are not expected.
func (r Report) Stale() []generator.Object {
	var objects []generator.Object
	for _, c := range r.Changes {
		if c.Type == DropObject {
			objects = append(objects, c.Object)
		}
	}
	return objects
}

func key(kind, name, relation string) string {
	return kind + "\x00" + name + "\x00" + relation
}

// DiffObjects matches expected objects against existing ones. Existing
// objects whose unqualified name starts with one of prefixes but that are
// not expected are reported as stale.
func DiffObjects(expected []generator.Object, existing []introspect.ExistingObject, prefixes []string) Report {
	var report Report

	existingMap := map[string]bool{}
	for _, o := range existing {
		existingMap[key(o.Kind, o.Name, o.Relation)] = true
	}
	expectedMap := map[string]bool{}
	for _, o := range expected {
		expectedMap[key(o.Kind, o.Name, o.Relation)] = true
	}

	// Expected objects keep creation order
	for _, o := range expected {
		if existingMap[key(o.Kind, o.Name, o.Relation)] {
			report.Present = append(report.Present, o)
			continue
		}
		report.Changes = append(report.Changes, Change{Type: CreateObject, Object: o})
	}

	var stale []generator.Object
	for _, o := range existing {
		if expectedMap[key(o.Kind, o.Name, o.Relation)] || !hasPrefix(unqualified(o.Name), prefixes) {
			continue
		}
		stale = append(stale, generator.Object{Kind: o.Kind, Name: o.Name, Relation: o.Relation})
	}
	sort.Slice(stale, func(i, j int) bool {
		return key(stale[i].Kind, stale[i].Name, stale[i].Relation) < key(stale[j].Kind, stale[j].Name, stale[j].Relation)
	})
	for _, o := range stale {
		report.Changes = append(report.Changes, Change{Type: DropObject, Object: o})
	}

	return report
}

func unqualified(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

func hasPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
