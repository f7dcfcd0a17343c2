// Package naming maps property paths between their API spelling and the
// internal names used by resource metadata.
package naming

import (
	"github.com/ettle/strcase"
)

// NameConverter converts one path segment between its internal and external
// spelling
type NameConverter interface {
	Normalize(propertyName string) string
	Denormalize(propertyName string) string
}

// CamelCaseToSnakeCase exposes camelCase properties as snake_case
type CamelCaseToSnakeCase struct{}

var _ NameConverter = CamelCaseToSnakeCase{}

// Normalize converts relatedDummy to related_dummy
func (CamelCaseToSnakeCase) Normalize(propertyName string) string {
	return strcase.ToSnake(propertyName)
}

// Denormalize converts related_dummy to relatedDummy
func (CamelCaseToSnakeCase) Denormalize(propertyName string) string {
	return strcase.ToCamel(propertyName)
}

// ConverterByName returns the converter registered under name. An empty name
// or "none" returns nil.
func ConverterByName(name string) (NameConverter, bool) {
	switch name {
	case "", "none":
		return nil, true
	case "snake_case", "camel_case_to_snake_case":
		return CamelCaseToSnakeCase{}, true
	default:
		return nil, false
	}
}
