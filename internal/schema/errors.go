package schema

import "errors"

var (
	ErrCatalogRead       = errors.New("schema: failed to read catalogue")
	ErrCatalogParse      = errors.New("schema: failed to parse catalogue")
	ErrInvalidCatalog    = errors.New("schema: invalid catalogue")
	ErrUnknownFieldType  = errors.New("schema: unknown field type")
	ErrEnumWithoutValues = errors.New("schema: enum field needs values")
)
