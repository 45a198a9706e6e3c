package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	upMarker   = "-- Up Script"
	downMarker = "-- Down Script (Remove)"
)

// Script renders the generated objects with up and down sections.
func (g *Generator) Script(now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Generated: %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "-- Definition: %s (%s.%s)\n\n", g.def.Alias, g.def.Schema, g.def.Table)

	b.WriteString(upMarker + "\n")
	b.WriteString("-- =========\n")
	b.WriteString(g.All())

	b.WriteString("\n" + downMarker + "\n")
	b.WriteString("-- =======================\n")
	b.WriteString(g.DropAll())
	return b.String()
}

// WriteScriptFile saves the script into path, creating its folder.
func (g *Generator) WriteScriptFile(path string, now time.Time) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating script folder: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(g.Script(now)), 0644); err != nil {
		return fmt.Errorf("writing script file: %w", err)
	}
	return nil
}

// UpSection returns the part of a script file before the down section.
func UpSection(script string) string {
	if i := strings.Index(script, downMarker); i >= 0 {
		return script[:i]
	}
	return script
}

// DownSection returns the remove section of a script file, or an empty
// string when the file has none.
func DownSection(script string) string {
	i := strings.Index(script, downMarker)
	if i < 0 {
		return ""
	}
	return script[i:]
}
