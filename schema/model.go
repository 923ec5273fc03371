package schema

import (
	"fmt"
	"strings"
)

// Ref identifies a persisted record type by app namespace and type name.
type Ref struct {
	App  string
	Name string
}

// NewRef builds a Ref with normalized (lower-case) parts.
func NewRef(app, name string) Ref {
	return Ref{App: strings.ToLower(app), Name: strings.ToLower(name)}
}

// ParseRef parses the "app.name" form.
func ParseRef(s string) (Ref, error) {
	app, name, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || app == "" || name == "" || strings.Contains(name, ".") {
		return Ref{}, fmt.Errorf("schema: invalid model reference %q, expected app.name", s)
	}
	return NewRef(app, name), nil
}

func (r Ref) String() string {
	return r.App + "." + r.Name
}

// Record is one persisted row keyed by field name. Values are canonical
// (see Field.Coerce).
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Model is the metadata of a record type: its identity and ordered fields.
type Model struct {
	App    string  `yaml:"app" validate:"required"`
	Name   string  `yaml:"name" validate:"required"`
	Table  string  `yaml:"table"`
	Fields []Field `yaml:"fields" validate:"required,min=1,dive"`
}

// Ref returns the model reference.
func (m *Model) Ref() Ref {
	return NewRef(m.App, m.Name)
}

// TableName returns the storage table, "<app>_<name>" unless overridden.
func (m *Model) TableName() string {
	if m.Table != "" {
		return m.Table
	}
	r := m.Ref()
	return r.App + "_" + r.Name
}

// FieldNames returns every field name in declaration order.
func (m *Model) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field by name.
func (m *Model) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// PrimaryKey returns the single primary-key field.
func (m *Model) PrimaryKey() Field {
	for _, f := range m.Fields {
		if f.PrimaryKey {
			return f
		}
	}
	return Field{}
}

// ParseKey converts a textual key into the canonical primary-key value.
func (m *Model) ParseKey(s string) (any, error) {
	return m.PrimaryKey().Parse(s)
}

// Check verifies the structural rules the struct tags cannot express.
func (m *Model) Check() error {
	seen := make(map[string]bool, len(m.Fields))
	pks := 0
	for _, f := range m.Fields {
		if seen[f.Name] {
			return fmt.Errorf("schema: model %s declares field %q twice", m.Ref(), f.Name)
		}
		seen[f.Name] = true
		if !f.Type.Valid() {
			return fmt.Errorf("schema: model %s field %q has unsupported type %q", m.Ref(), f.Name, f.Type)
		}
		if f.PrimaryKey {
			pks++
			if f.Nullable {
				return fmt.Errorf("schema: model %s primary key %q cannot be nullable", m.Ref(), f.Name)
			}
		}
		if f.Auto && f.Type != TypeInteger && f.Type != TypeUUID {
			return fmt.Errorf("schema: model %s field %q: auto requires integer or uuid", m.Ref(), f.Name)
		}
		if f.Auto && !f.PrimaryKey {
			return fmt.Errorf("schema: model %s field %q: only the primary key can be auto", m.Ref(), f.Name)
		}
		if f.HasDefault() {
			if _, err := f.Coerce(f.Default); err != nil {
				return fmt.Errorf("schema: model %s field %q default: %v", m.Ref(), f.Name, err)
			}
		}
	}
	if pks != 1 {
		return fmt.Errorf("schema: model %s must declare exactly one primary key, got %d", m.Ref(), pks)
	}
	return nil
}
