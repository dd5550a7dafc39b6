package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// FieldSpec is the catalogue form of a Field.
type FieldSpec struct {
	Min      *float64 `yaml:"min,omitempty"`
	Max      *float64 `yaml:"max,omitempty"`
	Type     string   `yaml:"type"`
	Values   []string `yaml:"values,omitempty"`
	Required bool     `yaml:"required,omitempty"`
}

// Field types accepted in a catalogue.
const (
	TypeText   = "text"
	TypeNumber = "number"
	TypeFlag   = "flag"
	TypeEnum   = "enum"
	TypeEmail  = "email"
	TypeList   = "list"
	TypeAny    = "any"
)

// Field builds the validator fs describes.
func (fs FieldSpec) Field() (Field, error) {
	var f Field
	switch strings.ToLower(fs.Type) {
	case TypeText, "":
		f = Text(bound(fs.Min, 0), bound(fs.Max, 0))
	case TypeNumber:
		f = Number(floatBound(fs.Min), floatBound(fs.Max))
	case TypeFlag:
		f = Flag()
	case TypeEnum:
		if len(fs.Values) == 0 {
			return Field{}, ErrEnumWithoutValues
		}
		f = Enum(fs.Values...)
	case TypeEmail:
		f = Email()
	case TypeList:
		f = List(bound(fs.Max, 0))
	case TypeAny:
		f = Any()
	default:
		return Field{}, fmt.Errorf("%w: %q", ErrUnknownFieldType, fs.Type)
	}
	f.Required = fs.Required
	return f, nil
}

func bound(p *float64, def int) int {
	if p == nil {
		return def
	}
	return int(*p)
}

func floatBound(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// EntityType describes one stored entity type.
type EntityType struct {
	Fields     map[string]FieldSpec `yaml:"fields,omitempty"`
	Name       string               `yaml:"name"`
	Collection string               `yaml:"collection,omitempty"`
	// Private collections are only returned to authenticated callers.
	Private bool `yaml:"private,omitempty"`
}

// Catalog lists identity-bearing entity types and singletons.
type Catalog struct {
	Entities   []EntityType `yaml:"entities"`
	Singletons []EntityType `yaml:"singletons"`
}

// DefaultCatalog returns the built-in portfolio catalogue.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("schema: built-in catalogue is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a catalogue from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrCatalogRead, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and checks a YAML catalogue. A missing collection
// name defaults to the entity name.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Join(ErrCatalogParse, err)
	}
	for i := range c.Entities {
		if c.Entities[i].Collection == "" {
			c.Entities[i].Collection = c.Entities[i].Name
		}
	}
	for i := range c.Singletons {
		if c.Singletons[i].Collection == "" {
			c.Singletons[i].Collection = c.Singletons[i].Name
		}
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) check() error {
	names := make(map[string]struct{})
	collections := make(map[string]struct{})
	for _, e := range c.all() {
		if e.Name == "" {
			return fmt.Errorf("%w: entity without a name", ErrInvalidCatalog)
		}
		if _, dup := names[e.Name]; dup {
			return fmt.Errorf("%w: duplicate entity %q", ErrInvalidCatalog, e.Name)
		}
		if _, dup := collections[e.Collection]; dup {
			return fmt.Errorf("%w: duplicate collection %q", ErrInvalidCatalog, e.Collection)
		}
		names[e.Name] = struct{}{}
		collections[e.Collection] = struct{}{}

		for field, spec := range e.Fields {
			if _, err := spec.Field(); err != nil {
				return fmt.Errorf("%w: %s.%s: %w", ErrInvalidCatalog, e.Name, field, err)
			}
		}
	}
	return nil
}

func (c *Catalog) all() []EntityType {
	return append(append([]EntityType{}, c.Entities...), c.Singletons...)
}

// Entity returns the identity-bearing entity type called name.
func (c *Catalog) Entity(name string) (EntityType, bool) {
	for _, e := range c.Entities {
		if e.Name == name {
			return e, true
		}
	}
	return EntityType{}, false
}

// Singleton returns the singleton type called name.
func (c *Catalog) Singleton(name string) (EntityType, bool) {
	for _, e := range c.Singletons {
		if e.Name == name {
			return e, true
		}
	}
	return EntityType{}, false
}

// Registry builds a registry with the schema of every entity type that declares fields.
func (c *Catalog) Registry() *Registry {
	r := NewRegistry()
	for _, e := range c.all() {
		if len(e.Fields) == 0 {
			continue
		}
		s := make(Schema, len(e.Fields))
		for name, spec := range e.Fields {
			// checked by ParseCatalog
			f, _ := spec.Field()
			s[name] = f
		}
		r.Register(e.Collection, s)
	}
	return r
}
