// Package schema validates record payloads against per-entity field rules
// and describes the catalogue of entity types the service stores.
package schema

import (
	"slices"
	"sync"

	"github.com/dmitrymomot/folio/internal/record"
	"github.com/dmitrymomot/folio/pkg/validator"
)

// Schema maps field names to their validators.
type Schema map[string]Field

// Registry holds schemas keyed by collection name. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]Schema)}
}

// Register sets the schema of collection, replacing any previous one.
func (r *Registry) Register(collection string, s Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[collection] = s
}

// Lookup returns the schema of collection.
func (r *Registry) Lookup(collection string) (Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[collection]
	return s, ok
}

// Validate checks payload against the schema of collection. Collections
// without a schema accept any payload. On update, absent fields are skipped;
// on create, absent required fields are reported as missing. Every violation
// is returned at once as validator.ValidationErrors, ordered by field name.
func (r *Registry) Validate(collection string, payload *record.Record, isUpdate bool) error {
	s, ok := r.Lookup(collection)
	if !ok {
		return nil
	}

	fields := make([]string, 0, len(s))
	for name := range s {
		fields = append(fields, name)
	}
	slices.Sort(fields)

	var rules []validator.Rule
	for _, name := range fields {
		f := s[name]
		v, present := payload.Get(name)
		switch {
		case !present && isUpdate:
			continue
		case !present:
			if f.Required {
				rules = append(rules, validator.Custom(name, false, "missing required field", "validation.missing"))
			}
		case v.IsEmpty():
			if f.Required {
				rules = append(rules, validator.Custom(name, false, "is required", "validation.required"))
			}
		case f.Check != nil:
			rules = append(rules, f.Check(name, v)...)
		}
	}
	return validator.Apply(rules...)
}
