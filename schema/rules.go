package schema

// AlterRead returns the function wrapping col when it is read into a view.
func (e *Entity) AlterRead(col string) (string, bool) {
	a, ok := e.Alters[col]
	if !ok || a.Read == "" {
		return "", false
	}
	return a.Read, true
}

// AlterWrite returns the function wrapping an incoming value before it is
// stored into col.
func (e *Entity) AlterWrite(col string) (string, bool) {
	a, ok := e.Alters[col]
	if !ok || a.Write == "" {
		return "", false
	}
	return a.Write, true
}

// Remap returns the externally visible name configured for col.
func (e *Entity) Remap(col string) (string, bool) {
	name, ok := e.Remaps[col]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// ExternalName is the remapped name of col, or col itself.
func (e *Entity) ExternalName(col string) string {
	if name, ok := e.Remap(col); ok {
		return name
	}
	return col
}
