package mapper

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/raywall/fast-crud-toolkit/schema"
)

// Mode selects which fields Decode expects.
type Mode int

const (
	// Create expects every writable field, including a non-auto primary key.
	Create Mode = iota
	// Replace expects every writable field except the primary key.
	Replace
	// Patch accepts any subset of the writable non-key fields.
	Patch
)

var validate = validator.New()

// Mapper translates between records of one model and their wire form.
// It always exposes the model's complete field set.
type Mapper struct {
	model *schema.Model
}

// New builds a mapper for model.
func New(model *schema.Model) *Mapper {
	return &Mapper{model: model}
}

// Model returns the mapped model.
func (m *Mapper) Model() *schema.Model {
	return m.model
}

// Fields lists every field of the model in declaration order.
func (m *Mapper) Fields() []string {
	return m.model.FieldNames()
}

// Represent converts a record into its wire form.
func (m *Mapper) Represent(rec schema.Record) Representation {
	keys := m.Fields()
	values := make(map[string]any, len(keys))
	for _, k := range keys {
		values[k] = wireValue(rec[k])
	}
	return Representation{keys: keys, values: values}
}

// RepresentMany converts a record set, never returning nil.
func (m *Mapper) RepresentMany(recs []schema.Record) []Representation {
	out := make([]Representation, 0, len(recs))
	for _, rec := range recs {
		out = append(out, m.Represent(rec))
	}
	return out
}

// Decode reads a JSON object from r and validates it for mode.
func (m *Mapper) Decode(r io.Reader, mode Mode) (schema.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			body = map[string]any{}
		} else {
			return nil, fmt.Errorf("%w - %v", ErrMalformedBody, err)
		}
	} else if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w - extra data after JSON value", ErrMalformedBody)
	}
	data, ok := body.(map[string]any)
	if !ok {
		verr := NewValidationError()
		verr.Add(NonFieldErrors, fmt.Sprintf("Invalid data. Expected a dictionary, but got %s.", jsonKind(body)))
		return nil, verr
	}
	return m.Validate(data, mode)
}

// Validate coerces and checks already decoded input.
func (m *Mapper) Validate(data map[string]any, mode Mode) (schema.Record, error) {
	out := make(schema.Record, len(m.model.Fields))
	verr := NewValidationError()

	for _, f := range m.model.Fields {
		if f.ReadOnly() || (f.PrimaryKey && mode != Create) {
			continue
		}
		raw, present := data[f.Name]
		if !present {
			// PUT keeps optional fields the client left out; defaults apply on create only.
			if mode == Patch || (mode == Replace && !f.Required) {
				continue
			}
			switch {
			case f.HasDefault():
				v, _ := f.Coerce(f.Default)
				out[f.Name] = v
			case f.Required || f.PrimaryKey:
				verr.Add(f.Name, "This field is required.")
			default:
				out[f.Name] = nil
			}
			continue
		}
		if raw == nil {
			if !f.Nullable {
				verr.Add(f.Name, "This field may not be null.")
				continue
			}
			out[f.Name] = nil
			continue
		}

		v, err := f.Coerce(raw)
		if err != nil {
			verr.Add(f.Name, err.Error())
			continue
		}
		if s, ok := v.(string); ok && f.Type == schema.TypeString && s == "" && (f.Required || f.PrimaryKey) {
			verr.Add(f.Name, "This field may not be blank.")
			continue
		}
		if msgs := check(f, v); len(msgs) > 0 {
			for _, msg := range msgs {
				verr.Add(f.Name, msg)
			}
			continue
		}
		out[f.Name] = v
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// Merge overlays changes on a copy of existing.
func (m *Mapper) Merge(existing, changes schema.Record) schema.Record {
	out := existing.Clone()
	for k, v := range changes {
		out[k] = v
	}
	return out
}

// tagFor builds the validator tag for the declarative constraints of f.
func tagFor(f schema.Field) string {
	var rules []string
	if f.MaxLength > 0 && f.Type == schema.TypeString {
		rules = append(rules, "max="+strconv.Itoa(f.MaxLength))
	}
	if len(f.Choices) > 0 && (f.Type == schema.TypeString || f.Type == schema.TypeInteger) {
		quoted := make([]string, len(f.Choices))
		for i, c := range f.Choices {
			if strings.ContainsAny(c, " ") {
				c = "'" + c + "'"
			}
			quoted[i] = c
		}
		rules = append(rules, "oneof="+strings.Join(quoted, " "))
	}
	if f.Validate != "" {
		rules = append(rules, f.Validate)
	}
	return strings.Join(rules, ",")
}

func check(f schema.Field, v any) []string {
	tag := tagFor(f)
	if tag == "" {
		return nil
	}
	err := validate.Var(v, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, message(fe, v))
	}
	return msgs
}

func message(fe validator.FieldError, v any) string {
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(v))
	case "email":
		return "Enter a valid email address."
	case "url", "http_url":
		return "Enter a valid URL."
	}
	return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
}

func jsonKind(v any) string {
	switch v.(type) {
	case []any:
		return "list"
	case string:
		return "str"
	case json.Number:
		return "number"
	case bool:
		return "bool"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
