// Package record defines the value model stored by the record engine: a
// closed set of value kinds and an insertion-ordered record of named values.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind enumerates the value kinds a record field can hold.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindBool
	KindStructured
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindStructured:
		return "structured"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single field value. The zero Value is Empty.
type Value struct {
	kind Kind
	str  string // string text, or compact JSON for structured values
	num  float64
	b    bool
}

// Empty returns the empty value.
func Empty() Value { return Value{} }

// String returns a string value. The empty string is the Empty value.
func String(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: KindString, str: s}
}

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Structured returns an object or array value from its JSON text.
func Structured(raw []byte) (Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || (raw[0] != '{' && raw[0] != '[') {
		return Value{}, fmt.Errorf("%w: structured value must be a JSON object or array", ErrInvalidValue)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return Value{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return Value{kind: KindStructured, str: buf.String()}, nil
}

// ValueOf converts a Go value into a Value. Maps, slices and structs become
// structured values; unsupported scalars are rendered with fmt.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case int:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case float32:
		return Number(float64(x))
	case float64:
		return Number(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return Number(f)
		}
		return String(x.String())
	case json.RawMessage:
		var out Value
		if err := out.UnmarshalJSON(x); err != nil {
			return String(string(x))
		}
		return out
	case fmt.Stringer:
		return String(x.String())
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return String(fmt.Sprint(v))
	}
	var out Value
	if err := out.UnmarshalJSON(raw); err != nil {
		return String(string(raw))
	}
	return out
}

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v is the Empty value.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// String renders v as text: the string itself, a number without trailing
// zeros, "true"/"false", the JSON text of a structured value, or "".
func (v Value) String() string {
	switch v.kind {
	case KindString, KindStructured:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Text returns the string content and whether v is a string.
func (v Value) Text() (string, bool) {
	return v.str, v.kind == KindString
}

// Float returns the numeric content and whether v is a number.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Boolean returns the boolean content and whether v is a bool.
func (v Value) Boolean() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Raw returns the compact JSON text of a structured value.
func (v Value) Raw() (json.RawMessage, bool) {
	if v.kind != KindStructured {
		return nil, false
	}
	return json.RawMessage(v.str), true
}

// Interface returns v as a plain Go value: nil, string, float64, bool, or the
// decoded map[string]any / []any of a structured value.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindStructured:
		var out any
		if err := json.Unmarshal([]byte(v.str), &out); err != nil {
			return v.str
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether v and o have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString, KindStructured:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	default:
		return true
	}
}

// MarshalJSON encodes Empty as "" so cleared fields read back as blank text.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil, fmt.Errorf("%w: non-finite number", ErrInvalidValue)
		}
		return []byte(formatNumber(v.num)), nil
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	case KindStructured:
		return []byte(v.str), nil
	default:
		return []byte(`""`), nil
	}
}

// UnmarshalJSON decodes any JSON value. null becomes Empty.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty JSON value", ErrInvalidValue)
	}

	switch data[0] {
	case 'n':
		if string(data) != "null" {
			return fmt.Errorf("%w: %s", ErrInvalidValue, data)
		}
		*v = Value{}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		*v = Bool(b)
	case '{', '[':
		s, err := Structured(data)
		if err != nil {
			return err
		}
		*v = s
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidValue, data)
		}
		*v = Number(f)
	}
	return nil
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// EncodeCell converts v into a value a storage cell can hold: structured
// values become their JSON text, everything else is unchanged.
func EncodeCell(v Value) Value {
	if v.kind == KindStructured {
		return Value{kind: KindString, str: v.str}
	}
	return v
}

// DecodeCell reverses EncodeCell on read. A string whose trimmed text starts
// with '{' or '[' is parsed as JSON; text that fails to parse stays a string.
func DecodeCell(v Value) Value {
	if v.kind != KindString {
		return v
	}
	t := strings.TrimSpace(v.str)
	if t == "" || (t[0] != '{' && t[0] != '[') {
		return v
	}
	s, err := Structured([]byte(t))
	if err != nil {
		return v
	}
	return s
}
