package mapper

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widgetModel() *schema.Model {
	return &schema.Model{
		App:  "shop",
		Name: "widget",
		Fields: []schema.Field{
			{Name: "id", Type: schema.TypeInteger, PrimaryKey: true, Auto: true},
			{Name: "name", Type: schema.TypeString, Required: true, MaxLength: 8},
			{Name: "price", Type: schema.TypeInteger, Required: true},
			{Name: "colour", Type: schema.TypeString, Choices: []string{"red", "dark blue"}, Default: "red"},
			{Name: "contact", Type: schema.TypeString, Nullable: true, Validate: "email"},
			{Name: "updated", Type: schema.TypeDateTime, Nullable: true},
		},
	}
}

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr.Fields
}

func TestMapper_Fields(t *testing.T) {
	m := New(widgetModel())
	assert.Equal(t, []string{"id", "name", "price", "colour", "contact", "updated"}, m.Fields())
}

func TestMapper_Represent(t *testing.T) {
	m := New(widgetModel())
	ts := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	rep := m.Represent(schema.Record{"id": int64(1), "name": "bolt", "price": int64(5), "updated": ts})
	assert.Equal(t, m.Fields(), rep.Keys())

	raw, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.Equal(t,
		`{"id":1,"name":"bolt","price":5,"colour":null,"contact":null,"updated":"2024-05-01T10:30:00.000Z"}`,
		string(raw))

	many, err := json.Marshal(m.RepresentMany(nil))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(many))
}

func TestMapper_Decode_Create(t *testing.T) {
	m := New(widgetModel())

	rec, err := m.Decode(strings.NewReader(`{"id": 99, "name": "bolt", "price": 5, "unknown": true}`), Create)
	require.NoError(t, err)
	assert.Equal(t, schema.Record{
		"name":    "bolt",
		"price":   int64(5),
		"colour":  "red",
		"contact": nil,
		"updated": nil,
	}, rec, "auto key and unknown keys are ignored, defaults applied")
}

func TestMapper_Decode_Errors(t *testing.T) {
	m := New(widgetModel())

	tests := []struct {
		name string
		body string
		want map[string][]string
	}{
		{
			name: "missing required",
			body: `{}`,
			want: map[string][]string{
				"name":  {"This field is required."},
				"price": {"This field is required."},
			},
		},
		{
			name: "type, null and blank",
			body: `{"name": "", "price": "cheap", "colour": null}`,
			want: map[string][]string{
				"name":   {"This field may not be blank."},
				"price":  {"A valid integer is required."},
				"colour": {"This field may not be null."},
			},
		},
		{
			name: "validator rules",
			body: `{"name": "very long name", "price": 1, "colour": "green", "contact": "nope"}`,
			want: map[string][]string{
				"name":    {"Ensure this field has no more than 8 characters."},
				"colour":  {`"green" is not a valid choice.`},
				"contact": {"Enter a valid email address."},
			},
		},
		{
			name: "integer out of range",
			body: `{"name": "x", "price": 10000000000000000000}`,
			want: map[string][]string{
				"price": {"A valid integer is required."},
			},
		},
		{
			name: "integer exponent out of range",
			body: `{"name": "x", "price": 1e300}`,
			want: map[string][]string{
				"price": {"A valid integer is required."},
			},
		},
		{
			name: "not an object",
			body: `[1, 2]`,
			want: map[string][]string{
				NonFieldErrors: {"Invalid data. Expected a dictionary, but got list."},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Decode(strings.NewReader(tt.body), Create)
			assert.Equal(t, tt.want, validationFields(t, err))
		})
	}

	t.Run("quoted choice is accepted", func(t *testing.T) {
		_, err := m.Decode(strings.NewReader(`{"name": "x", "price": 1, "colour": "dark blue"}`), Create)
		assert.NoError(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := m.Decode(strings.NewReader(`{"name": `), Create)
		assert.ErrorIs(t, err, ErrMalformedBody)
	})

	t.Run("trailing data", func(t *testing.T) {
		for _, body := range []string{`{"name": "a", "price": 1} junk`, `{"name": "a", "price": 1}{}`} {
			_, err := m.Decode(strings.NewReader(body), Create)
			assert.ErrorIs(t, err, ErrMalformedBody, body)
		}

		_, err := m.Decode(strings.NewReader("{\"name\": \"a\", \"price\": 1}\n  "), Create)
		assert.NoError(t, err)
	})
}

func TestMapper_Decode_Modes(t *testing.T) {
	m := New(widgetModel())

	t.Run("patch accepts a subset", func(t *testing.T) {
		rec, err := m.Decode(strings.NewReader(`{"price": 9}`), Patch)
		require.NoError(t, err)
		assert.Equal(t, schema.Record{"price": int64(9)}, rec)
	})

	t.Run("replace still requires fields", func(t *testing.T) {
		_, err := m.Decode(strings.NewReader(`{"price": 9}`), Replace)
		assert.Contains(t, validationFields(t, err), "name")
	})

	t.Run("replace leaves absent optional fields out", func(t *testing.T) {
		rec, err := m.Decode(strings.NewReader(`{"name": "x", "price": 9}`), Replace)
		require.NoError(t, err)
		assert.Equal(t, schema.Record{"name": "x", "price": int64(9)}, rec)

		rec, err = m.Decode(strings.NewReader(`{"name": "x", "price": 9}`), Create)
		require.NoError(t, err)
		assert.Equal(t, "red", rec["colour"])
		assert.Contains(t, rec, "contact")
	})

	t.Run("non-auto key required on create only", func(t *testing.T) {
		country := New(&schema.Model{App: "geo", Name: "country", Fields: []schema.Field{
			{Name: "code", Type: schema.TypeString, PrimaryKey: true},
			{Name: "name", Type: schema.TypeString},
		}})
		_, err := country.Decode(strings.NewReader(`{"name": "Brasil"}`), Create)
		assert.Equal(t, map[string][]string{"code": {"This field is required."}}, validationFields(t, err))

		rec, err := country.Decode(strings.NewReader(`{"code": "XX", "name": "Brasil"}`), Replace)
		require.NoError(t, err)
		assert.NotContains(t, rec, "code")
	})

	t.Run("empty body", func(t *testing.T) {
		rec, err := m.Decode(strings.NewReader(``), Patch)
		require.NoError(t, err)
		assert.Empty(t, rec)
	})
}

func TestMapper_Merge(t *testing.T) {
	m := New(widgetModel())
	existing := schema.Record{"id": int64(1), "name": "bolt", "price": int64(5)}
	merged := m.Merge(existing, schema.Record{"price": int64(7)})

	assert.Equal(t, schema.Record{"id": int64(1), "name": "bolt", "price": int64(7)}, merged)
	assert.Equal(t, int64(5), existing["price"], "existing must not change")
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError()
	assert.False(t, verr.HasErrors())
	verr.Add("b", "second")
	verr.Add("a", "first")

	assert.Equal(t, "validation failed: a: first; b: second", verr.Error())
	raw, err := json.Marshal(verr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":["first"],"b":["second"]}`, string(raw))
}
