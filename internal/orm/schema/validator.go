package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError represents a schema validation error with context
type ValidationError struct {
	Resource string
	Field    string
	Message  string
	Hint     string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var b strings.Builder

	if e.Resource != "" {
		b.WriteString(e.Resource)
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
		b.WriteString(": ")
	}

	b.WriteString(e.Message)

	if e.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Hint)
	}

	return b.String()
}

// SchemaValidator validates resource schemas
type SchemaValidator struct {
	errors []*ValidationError
}

// NewSchemaValidator creates a new schema validator
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{
		errors: make([]*ValidationError, 0),
	}
}

// ValidateStructural validates a single resource schema without cross-resource checks
// This is used during registration to allow forward references
func (v *SchemaValidator) ValidateStructural(schema *ResourceSchema) error {
	v.errors = make([]*ValidationError, 0)

	v.validateFields(schema)
	v.validatePrimaryKey(schema)
	v.validateNames(schema)

	return v.result()
}

// ValidateReferences checks that every relationship and embeddable of every
// schema points to a known resource
func (v *SchemaValidator) ValidateReferences(schemas map[string]*ResourceSchema) error {
	v.errors = make([]*ValidationError, 0)

	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v.validateRelationships(schemas[name], schemas)
		v.validateEmbedded(schemas[name], schemas)
	}

	return v.result()
}

func (v *SchemaValidator) result() error {
	if len(v.errors) == 0 {
		return nil
	}

	var errMsgs []string
	for _, err := range v.errors {
		errMsgs = append(errMsgs, err.Error())
	}
	return fmt.Errorf("schema validation failed with %d errors:\n%s",
		len(v.errors), strings.Join(errMsgs, "\n"))
}

// validateFields ensures every field carries a type
func (v *SchemaValidator) validateFields(schema *ResourceSchema) {
	for _, name := range sortedKeys(schema.Fields) {
		if schema.Fields[name].Type == nil {
			v.errors = append(v.errors, &ValidationError{
				Resource: schema.Name,
				Field:    name,
				Message:  "field has no type",
				Hint:     "Declare a type such as int! or float?",
			})
		}
	}
}

// validatePrimaryKey ensures non-embeddable resources have at most one primary key
func (v *SchemaValidator) validatePrimaryKey(schema *ResourceSchema) {
	if schema.Embeddable {
		return
	}

	primaryKeys := make([]*Field, 0)
	for _, name := range sortedKeys(schema.Fields) {
		if schema.Fields[name].Primary {
			primaryKeys = append(primaryKeys, schema.Fields[name])
		}
	}

	if len(primaryKeys) > 1 {
		v.errors = append(v.errors, &ValidationError{
			Resource: schema.Name,
			Message:  fmt.Sprintf("resource has %d primary keys, expected 1", len(primaryKeys)),
			Hint:     "Only one field should be marked primary",
		})
		return
	}

	if len(primaryKeys) == 1 && primaryKeys[0].Type != nil && primaryKeys[0].Type.Nullable {
		pk := primaryKeys[0]
		v.errors = append(v.errors, &ValidationError{
			Resource: schema.Name,
			Field:    pk.Name,
			Message:  "primary key must be non-nullable (!)",
			Hint:     fmt.Sprintf("Change %s: %s to %s: %s!", pk.Name, pk.Type.String(), pk.Name, strings.TrimSuffix(pk.Type.String(), "?")),
		})
	}
}

// validateNames rejects properties declared twice across fields, relationships
// and embeddables. Dots are reserved as the path separator.
func (v *SchemaValidator) validateNames(schema *ResourceSchema) {
	seen := make(map[string]string)
	check := func(name, kind string) {
		if strings.Contains(name, ".") {
			v.errors = append(v.errors, &ValidationError{
				Resource: schema.Name,
				Field:    name,
				Message:  fmt.Sprintf("%s name must not contain '.'", kind),
			})
		}
		if prev, ok := seen[name]; ok {
			v.errors = append(v.errors, &ValidationError{
				Resource: schema.Name,
				Field:    name,
				Message:  fmt.Sprintf("%s collides with %s of the same name", kind, prev),
			})
			return
		}
		seen[name] = kind
	}

	for _, name := range sortedKeys(schema.Fields) {
		check(name, "field")
	}
	for _, name := range sortedKeys(schema.Relationships) {
		check(name, "relationship")
	}
	for _, name := range sortedKeys(schema.Embedded) {
		check(name, "embedded")
	}
}

// validateRelationships validates relationship definitions
func (v *SchemaValidator) validateRelationships(schema *ResourceSchema, schemas map[string]*ResourceSchema) {
	for _, name := range sortedKeys(schema.Relationships) {
		rel := schema.Relationships[name]

		target, exists := schemas[rel.TargetResource]
		if !exists {
			v.errors = append(v.errors, &ValidationError{
				Resource: schema.Name,
				Field:    name,
				Message:  fmt.Sprintf("references unknown resource %s", rel.TargetResource),
				Hint:     "Ensure the target resource is defined",
			})
			continue
		}

		if target.Embeddable {
			v.errors = append(v.errors, &ValidationError{
				Resource: schema.Name,
				Field:    name,
				Message:  fmt.Sprintf("relationship targets embeddable %s", rel.TargetResource),
				Hint:     "Declare it under embedded instead",
			})
		}

		if rel.Type == RelationshipHasManyThrough && rel.JoinTable == "" {
			v.errors = append(v.errors, &ValidationError{
				Resource: schema.Name,
				Field:    name,
				Message:  "has_many_through relationship requires join_table",
			})
		}

		if rel.Type == RelationshipBelongsTo {
			if _, err := target.GetPrimaryKey(); err != nil {
				v.errors = append(v.errors, &ValidationError{
					Resource: schema.Name,
					Field:    name,
					Message:  fmt.Sprintf("target resource %s has no primary key", rel.TargetResource),
				})
			}
		}
	}
}

// validateEmbedded ensures embedded value objects point to embeddables
func (v *SchemaValidator) validateEmbedded(schema *ResourceSchema, schemas map[string]*ResourceSchema) {
	for _, name := range sortedKeys(schema.Embedded) {
		emb := schema.Embedded[name]

		target, exists := schemas[emb.TargetResource]
		if !exists {
			v.errors = append(v.errors, &ValidationError{
				Resource: schema.Name,
				Field:    name,
				Message:  fmt.Sprintf("embeds unknown resource %s", emb.TargetResource),
				Hint:     "Ensure the embeddable is defined",
			})
			continue
		}
		if !target.Embeddable {
			v.errors = append(v.errors, &ValidationError{
				Resource: schema.Name,
				Field:    name,
				Message:  fmt.Sprintf("%s is not embeddable", emb.TargetResource),
				Hint:     "Set embeddable: true on the target resource",
			})
		}
	}
}

// Errors returns all validation errors
func (v *SchemaValidator) Errors() []*ValidationError {
	return v.errors
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
