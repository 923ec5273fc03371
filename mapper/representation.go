package mapper

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/go-openapi/strfmt"
)

// Representation is the wire form of one record. It keeps the model's field
// order when encoded to JSON.
type Representation struct {
	keys   []string
	values map[string]any
}

// Keys returns the field names in order.
func (r Representation) Keys() []string {
	return r.keys
}

// Get returns the wire value of a field.
func (r Representation) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Map returns the representation as a plain map.
func (r Representation) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

func (r Representation) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func wireValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return strfmt.DateTime(t.UTC())
	}
	return v
}
