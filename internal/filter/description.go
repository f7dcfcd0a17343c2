package filter

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/filterkit/internal/filter/value"
)

// NumericDescription describes price and price[] for every numeric property
func (b *Base) NumericDescription(resource string) map[string]Description {
	description := make(map[string]Description)

	for _, property := range b.DescribedProperties(resource) {
		if !b.Resolver.IsPropertyMapped(property, resource, false) {
			continue
		}
		ft, ok := b.Resolver.FieldType(property, resource)
		if !ok || !ft.IsNumeric() {
			continue
		}

		name := b.Normalizer.Normalize(property, resource)
		for _, key := range []string{name, name + "[]"} {
			description[key] = Description{
				Property:     name,
				Type:         BuiltinType(ft),
				Required:     false,
				IsCollection: strings.HasSuffix(key, "[]"),
			}
		}
	}

	return description
}

// OrderDescription describes order[name] for every mapped property
func (b *Base) OrderDescription(resource, parameterName string) map[string]Description {
	description := make(map[string]Description)

	for _, property := range b.DescribedProperties(resource) {
		if !b.Resolver.IsPropertyMapped(property, resource, false) {
			continue
		}

		name := b.Normalizer.Normalize(property, resource)
		description[fmt.Sprintf("%s[%s]", parameterName, name)] = Description{
			Property: name,
			Type:     "string",
			Required: false,
			Schema: map[string]interface{}{
				"type": "string",
				"enum": []string{"asc", "desc"},
			},
		}
	}

	return description
}

// RangeDescription describes name[operator] for every mapped property
func (b *Base) RangeDescription(resource string) map[string]Description {
	description := make(map[string]Description)

	for _, property := range b.DescribedProperties(resource) {
		if !b.Resolver.IsPropertyMapped(property, resource, false) {
			continue
		}

		name := b.Normalizer.Normalize(property, resource)
		for _, op := range value.Operators() {
			description[fmt.Sprintf("%s[%s]", name, op)] = Description{
				Property: name,
				Type:     "string",
				Required: false,
			}
		}
	}

	return description
}
