package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// FieldType is the storage/wire type of a model field.
type FieldType string

const (
	TypeString   FieldType = "string"
	TypeInteger  FieldType = "integer"
	TypeFloat    FieldType = "float"
	TypeBoolean  FieldType = "boolean"
	TypeDateTime FieldType = "datetime"
	TypeUUID     FieldType = "uuid"
)

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeDateTime, TypeUUID:
		return true
	}
	return false
}

// Field describes one persisted attribute of a model.
type Field struct {
	Name       string    `yaml:"name" validate:"required"`
	Type       FieldType `yaml:"type" validate:"required,oneof=string integer float boolean datetime uuid"`
	PrimaryKey bool      `yaml:"primary_key"`
	// Auto marks values generated by the store (integer sequence or uuid).
	Auto      bool     `yaml:"auto"`
	Required  bool     `yaml:"required"`
	Nullable  bool     `yaml:"nullable"`
	MaxLength int      `yaml:"max_length" validate:"gte=0"`
	Choices   []string `yaml:"choices"`
	Default   any      `yaml:"default"`
	// Validate holds an extra go-playground/validator tag, e.g. "email".
	Validate string `yaml:"validate"`
}

// ReadOnly reports whether clients may not supply a value for the field.
func (f Field) ReadOnly() bool {
	return f.Auto
}

// HasDefault reports whether a default value was declared.
func (f Field) HasDefault() bool {
	return f.Default != nil
}

// Coercion failures. Each one is the user-facing message for the field.
var (
	ErrInvalidString   = errors.New("Not a valid string.")
	ErrInvalidInteger  = errors.New("A valid integer is required.")
	ErrInvalidFloat    = errors.New("A valid number is required.")
	ErrInvalidBoolean  = errors.New("Must be a valid boolean.")
	ErrInvalidDateTime = errors.New("Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z].")
	ErrInvalidUUID     = errors.New("Must be a valid UUID.")
)

// Coerce converts v into the canonical Go value for the field type:
// string, int64, float64, bool or time.Time. UUIDs are kept as their
// canonical lower-case string. nil is returned unchanged.
func (f Field) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Type {
	case TypeString:
		return coerceString(v)
	case TypeInteger:
		return coerceInteger(v)
	case TypeFloat:
		return coerceFloat(v)
	case TypeBoolean:
		return coerceBoolean(v)
	case TypeDateTime:
		return coerceDateTime(v)
	case TypeUUID:
		return coerceUUID(v)
	}
	return nil, fmt.Errorf("schema: unsupported field type %q", f.Type)
}

// Parse converts a textual value (query string, route variable) into the
// canonical value for the field.
func (f Field) Parse(s string) (any, error) {
	return f.Coerce(s)
}

func coerceString(v any) (any, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case int, int32, int64, float64:
		return fmt.Sprint(s), nil
	}
	return nil, ErrInvalidString
}

func coerceInteger(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint32:
		return int64(n), nil
	case float32:
		return integralFloat(float64(n))
	case float64:
		return integralFloat(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		if fl, err := n.Float64(); err == nil {
			return integralFloat(fl)
		}
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		if fl, err := strconv.ParseFloat(s, 64); err == nil {
			return integralFloat(fl)
		}
	}
	return nil, ErrInvalidInteger
}

// maxInt64Float is 2^63, the first float64 above the int64 range.
const maxInt64Float = 9.223372036854775808e18

func integralFloat(fl float64) (any, error) {
	if math.IsNaN(fl) || math.IsInf(fl, 0) || fl != math.Trunc(fl) {
		return nil, ErrInvalidInteger
	}
	if fl < math.MinInt64 || fl >= maxInt64Float {
		return nil, ErrInvalidInteger
	}
	return int64(fl), nil
}

func coerceFloat(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		if fl, err := n.Float64(); err == nil {
			return fl, nil
		}
	case string:
		if fl, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil && !math.IsNaN(fl) && !math.IsInf(fl, 0) {
			return fl, nil
		}
	}
	return nil, ErrInvalidFloat
}

func coerceBoolean(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case int:
		return intBool(int64(b))
	case int64:
		return intBool(b)
	case float64:
		return intBool(int64(b))
	case json.Number:
		if i, err := b.Int64(); err == nil {
			return intBool(i)
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "t", "yes", "y", "on", "1":
			return true, nil
		case "false", "f", "no", "n", "off", "0":
			return false, nil
		}
	}
	return nil, ErrInvalidBoolean
}

func intBool(i int64) (any, error) {
	switch i {
	case 1:
		return true, nil
	case 0:
		return false, nil
	}
	return nil, ErrInvalidBoolean
}

func coerceDateTime(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case strfmt.DateTime:
		return time.Time(t).UTC(), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, ErrInvalidDateTime
		}
		dt, err := strfmt.ParseDateTime(s)
		if err != nil {
			return nil, ErrInvalidDateTime
		}
		return time.Time(dt).UTC(), nil
	}
	return nil, ErrInvalidDateTime
}

func coerceUUID(v any) (any, error) {
	switch u := v.(type) {
	case uuid.UUID:
		return u.String(), nil
	case [16]byte:
		return uuid.UUID(u).String(), nil
	case []byte:
		if id, err := uuid.FromBytes(u); err == nil {
			return id.String(), nil
		}
		if id, err := uuid.ParseBytes(u); err == nil {
			return id.String(), nil
		}
	case string:
		if id, err := uuid.Parse(strings.TrimSpace(u)); err == nil {
			return id.String(), nil
		}
	}
	return nil, ErrInvalidUUID
}

// Equal compares two canonical values of the same field.
func Equal(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}
