// Package matcher translates query parameters into a store.Filter.
//
// Every model field is filterable with exact-match semantics. Parameters that
// do not name a field are ignored, as are empty values. When a parameter is
// repeated the last value wins.
//
// A value that cannot be parsed for its field type rejects the whole request
// with a *mapper.ValidationError (400); it is never dropped from the filter.
package matcher

import (
	"net/url"

	"github.com/raywall/fast-crud-toolkit/mapper"
	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/raywall/fast-crud-toolkit/store"
)

// Matcher builds filters for one model.
type Matcher struct {
	model *schema.Model
}

// New builds a matcher exposing every field of model.
func New(model *schema.Model) *Matcher {
	return &Matcher{model: model}
}

// Fields lists the filterable fields, which is every field of the model.
func (m *Matcher) Fields() []string {
	return m.model.FieldNames()
}

// Build returns the filter described by params. Unparsable values produce a
// *mapper.ValidationError keyed by field name.
func (m *Matcher) Build(params url.Values) (store.Filter, error) {
	var filter store.Filter
	verr := mapper.NewValidationError()

	for _, f := range m.model.Fields {
		values, ok := params[f.Name]
		if !ok || len(values) == 0 {
			continue
		}
		raw := values[len(values)-1]
		if raw == "" {
			continue
		}
		v, err := f.Parse(raw)
		if err != nil {
			verr.Add(f.Name, err.Error())
			continue
		}
		filter.Conditions = append(filter.Conditions, store.Condition{Field: f.Name, Value: v})
	}

	if verr.HasErrors() {
		return store.Filter{}, verr
	}
	return filter, nil
}
