package schema

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/dmitrymomot/folio/internal/record"
	"github.com/dmitrymomot/folio/pkg/validator"
)

// Check turns a present, non-empty value into validation rules.
type Check func(field string, v record.Value) []validator.Rule

// Field is the validator for one field of an entity type.
type Field struct {
	Check    Check
	Required bool
}

// Require marks the field as required.
func (f Field) Require() Field {
	f.Required = true
	return f
}

func typeMismatch(field, message, key string) []validator.Rule {
	return []validator.Rule{validator.Custom(field, false, message, key)}
}

// Text accepts scalar values rendered as text with a rune length in [minLen, maxLen].
// A non-positive maxLen disables the upper bound.
func Text(minLen, maxLen int) Field {
	return Field{Check: func(field string, v record.Value) []validator.Rule {
		if v.Kind() == record.KindStructured {
			return typeMismatch(field, "must be text", "validation.type_text")
		}
		s := v.String()
		rules := []validator.Rule{}
		if minLen > 0 {
			rules = append(rules, validator.MinLenString(field, s, minLen))
		}
		if maxLen > 0 {
			rules = append(rules, validator.MaxLenString(field, s, maxLen))
		}
		return rules
	}}
}

// Number accepts numbers, and strings holding a number, within [minVal, maxVal].
// NaN bounds are ignored.
func Number(minVal, maxVal float64) Field {
	return Field{Check: func(field string, v record.Value) []validator.Rule {
		n, ok := asNumber(v)
		if !ok {
			return typeMismatch(field, "must be a number", "validation.type_number")
		}
		rules := []validator.Rule{}
		if !math.IsNaN(minVal) {
			rules = append(rules, validator.MinNum(field, n, minVal))
		}
		if !math.IsNaN(maxVal) {
			rules = append(rules, validator.MaxNum(field, n, maxVal))
		}
		return rules
	}}
}

// Flag accepts booleans and the strings "true" and "false".
func Flag() Field {
	return Field{Check: func(field string, v record.Value) []validator.Rule {
		if _, ok := v.Boolean(); ok {
			return nil
		}
		if s, ok := v.Text(); ok && (s == "true" || s == "false") {
			return nil
		}
		return typeMismatch(field, "must be true or false", "validation.type_flag")
	}}
}

// Enum accepts one of the listed strings.
func Enum(values ...string) Field {
	return Field{Check: func(field string, v record.Value) []validator.Rule {
		return []validator.Rule{validator.OneOf(field, v.String(), values...)}
	}}
}

// Email accepts a bare email address.
func Email() Field {
	return Field{Check: func(field string, v record.Value) []validator.Rule {
		if _, ok := v.Text(); !ok {
			return typeMismatch(field, "must be a valid email address", "validation.email")
		}
		return []validator.Rule{validator.Email(field, v.String())}
	}}
}

// List accepts a JSON array with at most maxItems items (non-positive: unbounded).
// A string is accepted too and read as a comma-separated list.
func List(maxItems int) Field {
	return Field{Check: func(field string, v record.Value) []validator.Rule {
		n, ok := listLen(v)
		if !ok {
			return typeMismatch(field, "must be a list", "validation.type_list")
		}
		if maxItems <= 0 {
			return nil
		}
		return []validator.Rule{validator.MaxLenSlice(field, make([]struct{}, n), maxItems)}
	}}
}

// Any accepts every value. It is useful to mark a field required without constraining it.
func Any() Field {
	return Field{Check: func(string, record.Value) []validator.Rule { return nil }}
}

func asNumber(v record.Value) (float64, bool) {
	if f, ok := v.Float(); ok {
		return f, true
	}
	if s, ok := v.Text(); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
	}
	return 0, false
}

func listLen(v record.Value) (int, bool) {
	if raw, ok := v.Raw(); ok {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return 0, false
		}
		return len(items), true
	}
	if s, ok := v.Text(); ok {
		if strings.TrimSpace(s) == "" {
			return 0, true
		}
		return strings.Count(s, ",") + 1, true
	}
	return 0, false
}
