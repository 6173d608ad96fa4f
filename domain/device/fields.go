package device

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNotObject is returned when a payload is valid JSON but not an object
	ErrNotObject = errors.New("payload is not a JSON object")

	// ErrTrailingData is returned when a payload has content after the object
	ErrTrailingData = errors.New("unexpected data after JSON object")
)

// FieldValue is one named value of an inbound payload
type FieldValue struct {
	Name  string
	Value interface{}
}

// RawFields is an inbound payload that keeps the caller's key order.
// Numbers are kept as json.Number until a rule coerces them.
type RawFields []FieldValue

// ParseRawFields decodes a JSON object. Duplicate keys keep their first
// position and take the last value, as encoding/json does for maps.
func ParseRawFields(data []byte) (RawFields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}

	fields := RawFields{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields = fields.Set(key, value)
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ErrTrailingData
	}

	return fields, nil
}

// Get returns the value stored under name
func (r RawFields) Get(name string) (interface{}, bool) {
	for _, fv := range r {
		if fv.Name == name {
			return fv.Value, true
		}
	}
	return nil, false
}

// Has reports whether name is present
func (r RawFields) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Set replaces the value under name in place, or appends it
func (r RawFields) Set(name string, value interface{}) RawFields {
	for i := range r {
		if r[i].Name == name {
			r[i].Value = value
			return r
		}
	}
	return append(r, FieldValue{Name: name, Value: value})
}

// Without returns a copy with the named fields removed
func (r RawFields) Without(names ...string) RawFields {
	out := make(RawFields, 0, len(r))
	for _, fv := range r {
		drop := false
		for _, n := range names {
			if fv.Name == n {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, fv)
		}
	}
	return out
}

// Names returns the field names in payload order
func (r RawFields) Names() []string {
	names := make([]string, len(r))
	for i, fv := range r {
		names[i] = fv.Name
	}
	return names
}

// Clone returns an independent copy of the slice
func (r RawFields) Clone() RawFields {
	out := make(RawFields, len(r))
	copy(out, r)
	return out
}

// FormatValue renders a payload value the way error messages quote it
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case json.Number:
		return val.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
