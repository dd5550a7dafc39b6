package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// Record is a set of named values that remembers insertion order.
// The zero Record is empty and ready to use.
type Record struct {
	keys   []string
	values map[string]Value
}

// New returns an empty record with room for n fields.
func New(n int) *Record {
	return &Record{keys: make([]string, 0, n), values: make(map[string]Value, n)}
}

// FromPairs builds a record from alternating key, value arguments.
// Values go through ValueOf. It panics on a non-string key or an odd count.
func FromPairs(kv ...any) *Record {
	if len(kv)%2 != 0 {
		panic("record: FromPairs needs key/value pairs")
	}
	r := New(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("record: key %v is not a string", kv[i]))
		}
		r.Set(k, ValueOf(kv[i+1]))
	}
	return r
}

// Get returns the value for key and whether the key is present.
func (r *Record) Get(key string) (Value, bool) {
	if r == nil || r.values == nil {
		return Value{}, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Value returns the value for key, or Empty when absent.
func (r *Record) Value(key string) Value {
	v, _ := r.Get(key)
	return v
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Set stores v under key. A new key is appended; an existing key keeps its position.
func (r *Record) Set(key string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Delete removes key.
func (r *Record) Delete(key string) {
	if r == nil || r.values == nil {
		return
	}
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Keys returns field names in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Clone returns a copy that shares no state with r.
func (r *Record) Clone() *Record {
	if r == nil {
		return New(0)
	}
	return &Record{keys: append([]string(nil), r.keys...), values: maps.Clone(r.values)}
}

// Map returns the fields as plain Go values (see Value.Interface).
func (r *Record) Map() map[string]any {
	out := make(map[string]any, r.Len())
	for _, k := range r.Keys() {
		out[k] = r.values[k].Interface()
	}
	return out
}

// MarshalJSON writes fields in insertion order.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("{}"), nil
	}
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
		buf.Write(key)
		buf.WriteByte(':')
		val, err := r.values[k].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the order in which keys appear.
// A repeated key keeps its first position and its last value.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return ErrInvalidRecord
	}

	out := New(8)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
		}
		key, ok := tok.(string)
		if !ok {
			return ErrInvalidRecord
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	*r = *out
	return nil
}

// Parse decodes a JSON object into a record. Empty input and null yield an empty record.
func Parse(data []byte) (*Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return New(0), nil
	}
	r := New(8)
	if err := r.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return r, nil
}
