package validator

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"unicode/utf8"
)

// Rule is a single check with the error reported when it fails.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply evaluates rules in order and returns ValidationErrors for every failed rule,
// or nil when all pass.
func Apply(rules ...Rule) error {
	var errs ValidationErrors
	for _, r := range rules {
		if r.Check == nil || r.Check() {
			continue
		}
		errs = append(errs, r.Error)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Number is the set of types accepted by numeric rules.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

func newError(field, message, key string, values map[string]any) ValidationError {
	return ValidationError{
		Field:             field,
		Message:           message,
		TranslationKey:    key,
		TranslationValues: values,
	}
}

func required(field string, ok func() bool) Rule {
	return Rule{Check: ok, Error: newError(field, "is required", "validation.required", nil)}
}

// RequiredString fails for empty or whitespace-only strings.
func RequiredString(field, value string) Rule {
	return required(field, func() bool { return strings.TrimSpace(value) != "" })
}

// RequiredSlice fails for empty slices.
func RequiredSlice[T any](field string, value []T) Rule {
	return required(field, func() bool { return len(value) > 0 })
}

// RequiredMap fails for empty maps.
func RequiredMap[K comparable, V any](field string, value map[K]V) Rule {
	return required(field, func() bool { return len(value) > 0 })
}

// RequiredNum fails for zero.
func RequiredNum[T Number](field string, value T) Rule {
	return required(field, func() bool { return value != 0 })
}

// MinLenString requires at least minLen characters (runes).
func MinLenString(field, value string, minLen int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) >= minLen },
		Error: newError(field,
			fmt.Sprintf("must be at least %d characters long", minLen),
			"validation.min_length", map[string]any{"min": minLen}),
	}
}

// MaxLenString allows at most maxLen characters (runes).
func MaxLenString(field, value string, maxLen int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= maxLen },
		Error: newError(field,
			fmt.Sprintf("must not exceed %d characters", maxLen),
			"validation.max_length", map[string]any{"max": maxLen}),
	}
}

// LenString requires exactly length characters (runes).
func LenString(field, value string, length int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) == length },
		Error: newError(field,
			fmt.Sprintf("must be exactly %d characters long", length),
			"validation.exact_length", map[string]any{"length": length}),
	}
}

// MinNum requires value >= minVal.
func MinNum[T Number](field string, value, minVal T) Rule {
	return Rule{
		Check: func() bool { return value >= minVal },
		Error: newError(field,
			fmt.Sprintf("must be at least %v", minVal),
			"validation.min", map[string]any{"min": minVal}),
	}
}

// MaxNum requires value <= maxVal.
func MaxNum[T Number](field string, value, maxVal T) Rule {
	return Rule{
		Check: func() bool { return value <= maxVal },
		Error: newError(field,
			fmt.Sprintf("must not exceed %v", maxVal),
			"validation.max", map[string]any{"max": maxVal}),
	}
}

// MinLenSlice requires at least minLen items.
func MinLenSlice[T any](field string, value []T, minLen int) Rule {
	return Rule{
		Check: func() bool { return len(value) >= minLen },
		Error: newError(field,
			fmt.Sprintf("must contain at least %d items", minLen),
			"validation.min_items", map[string]any{"min": minLen}),
	}
}

// MaxLenSlice allows at most maxLen items.
func MaxLenSlice[T any](field string, value []T, maxLen int) Rule {
	return Rule{
		Check: func() bool { return len(value) <= maxLen },
		Error: newError(field,
			fmt.Sprintf("must not contain more than %d items", maxLen),
			"validation.max_items", map[string]any{"max": maxLen}),
	}
}

// OneOf requires value to be one of allowed.
func OneOf[T comparable](field string, value T, allowed ...T) Rule {
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = fmt.Sprint(a)
	}
	return Rule{
		Check: func() bool { return slices.Contains(allowed, value) },
		Error: newError(field,
			"must be one of: "+strings.Join(names, ", "),
			"validation.one_of", map[string]any{"values": names}),
	}
}

// Email requires a bare address such as user@example.com.
// Display names and addresses without a dot in the domain are rejected.
func Email(field, value string) Rule {
	return Rule{
		Check: func() bool { return isEmail(value) },
		Error: newError(field, "must be a valid email address", "validation.email", nil),
	}
}

func isEmail(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// Custom reports message (under key) for field when ok is false.
func Custom(field string, ok bool, message, key string) Rule {
	return Rule{
		Check: func() bool { return ok },
		Error: newError(field, message, key, nil),
	}
}
