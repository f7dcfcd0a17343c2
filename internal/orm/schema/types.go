// Package schema provides the resource metadata used to resolve filter
// properties: fields with explicit types and nullability, relationships
// between resources and embedded value objects.
package schema

import (
	"fmt"
	"strings"

	"github.com/ettle/strcase"
)

// PrimitiveType represents the built-in field types
type PrimitiveType int

const (
	// Text types
	TypeString PrimitiveType = iota
	TypeText

	// Numeric types
	TypeSmallInt
	TypeInt
	TypeBigInt
	TypeFloat
	TypeDecimal

	// Boolean
	TypeBool

	// Time types
	TypeTimestamp
	TypeDate
	TypeTime

	// Identifiers
	TypeUUID
	TypeObjectID

	// Documents
	TypeJSON
	TypeHash
	TypeCollection

	// Binary
	TypeBinary
)

// String returns the string representation of the primitive type
func (p PrimitiveType) String() string {
	switch p {
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeSmallInt:
		return "smallint"
	case TypeInt:
		return "int"
	case TypeBigInt:
		return "bigint"
	case TypeFloat:
		return "float"
	case TypeDecimal:
		return "decimal"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	case TypeDate:
		return "date"
	case TypeTime:
		return "time"
	case TypeUUID:
		return "uuid"
	case TypeObjectID:
		return "object_id"
	case TypeJSON:
		return "json"
	case TypeHash:
		return "hash"
	case TypeCollection:
		return "collection"
	case TypeBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// ParsePrimitiveType converts a string to a PrimitiveType
func ParsePrimitiveType(s string) (PrimitiveType, error) {
	switch strings.ToLower(s) {
	case "string":
		return TypeString, nil
	case "text":
		return TypeText, nil
	case "smallint":
		return TypeSmallInt, nil
	case "int", "integer":
		return TypeInt, nil
	case "bigint":
		return TypeBigInt, nil
	case "float":
		return TypeFloat, nil
	case "decimal":
		return TypeDecimal, nil
	case "bool", "boolean":
		return TypeBool, nil
	case "timestamp", "datetime":
		return TypeTimestamp, nil
	case "date":
		return TypeDate, nil
	case "time":
		return TypeTime, nil
	case "uuid":
		return TypeUUID, nil
	case "object_id":
		return TypeObjectID, nil
	case "json":
		return TypeJSON, nil
	case "hash":
		return TypeHash, nil
	case "collection":
		return TypeCollection, nil
	case "binary":
		return TypeBinary, nil
	default:
		return 0, fmt.Errorf("unknown primitive type: %s", s)
	}
}

// TypeSpec represents a field type with nullability
type TypeSpec struct {
	BaseType PrimitiveType
	Nullable bool
}

// String returns a string representation of the TypeSpec
func (t *TypeSpec) String() string {
	if t.Nullable {
		return t.BaseType.String() + "?"
	}
	return t.BaseType.String() + "!"
}

// IsNumeric returns true if the type is a numeric type
func (t *TypeSpec) IsNumeric() bool {
	return t.IsInteger() ||
		t.BaseType == TypeFloat ||
		t.BaseType == TypeDecimal
}

// IsInteger returns true for the integer subtypes
func (t *TypeSpec) IsInteger() bool {
	return t.BaseType == TypeSmallInt ||
		t.BaseType == TypeInt ||
		t.BaseType == TypeBigInt
}

// IsText returns true if the type is a text type
func (t *TypeSpec) IsText() bool {
	return t.BaseType == TypeString || t.BaseType == TypeText
}

// Field represents a mapped field of a resource
type Field struct {
	Name    string
	Type    *TypeSpec
	Column  string
	Primary bool
}

// ColumnName returns the storage column for the field
func (f *Field) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	return toColumnName(f.Name)
}

// RelationType represents the type of relationship
type RelationType int

const (
	RelationshipBelongsTo RelationType = iota
	RelationshipHasMany
	RelationshipHasManyThrough
	RelationshipHasOne
)

// String returns the string representation of the relationship type
func (r RelationType) String() string {
	switch r {
	case RelationshipBelongsTo:
		return "belongs_to"
	case RelationshipHasMany:
		return "has_many"
	case RelationshipHasManyThrough:
		return "has_many_through"
	case RelationshipHasOne:
		return "has_one"
	default:
		return "unknown"
	}
}

// ParseRelationType converts a string to a RelationType
func ParseRelationType(s string) (RelationType, error) {
	switch s {
	case "belongs_to":
		return RelationshipBelongsTo, nil
	case "has_many":
		return RelationshipHasMany, nil
	case "has_many_through":
		return RelationshipHasManyThrough, nil
	case "has_one":
		return RelationshipHasOne, nil
	default:
		return 0, fmt.Errorf("unknown relationship type: %s", s)
	}
}

// Relationship represents an association between resources
type Relationship struct {
	Type           RelationType
	TargetResource string
	FieldName      string
	Nullable       bool

	// ForeignKey is the column holding the reference. For belongs_to it lives
	// on the owning resource, otherwise on the target.
	ForeignKey string

	// For has_many_through
	JoinTable      string
	AssociationKey string
}

// IsSingleValued reports whether the association points to at most one record
func (r *Relationship) IsSingleValued() bool {
	return r.Type == RelationshipBelongsTo || r.Type == RelationshipHasOne
}

// IsOwningSide reports whether the reference is stored on the declaring resource
func (r *Relationship) IsOwningSide() bool {
	return r.Type == RelationshipBelongsTo
}

// Embedded represents a value object stored inline with its owner
type Embedded struct {
	Name           string
	TargetResource string
	ColumnPrefix   string
}

// Prefix returns the column prefix applied to the embeddable's fields
func (e *Embedded) Prefix() string {
	if e.ColumnPrefix != "" {
		return e.ColumnPrefix
	}
	return toColumnName(e.Name) + "_"
}

// ResourceSchema represents the complete metadata for a resource
type ResourceSchema struct {
	Name          string
	Documentation string

	Fields        map[string]*Field
	Relationships map[string]*Relationship
	Embedded      map[string]*Embedded

	// Embeddable marks value objects that are never queried on their own
	Embeddable bool

	TableName string
}

// NewResourceSchema creates a new ResourceSchema
func NewResourceSchema(name string) *ResourceSchema {
	return &ResourceSchema{
		Name:          name,
		Fields:        make(map[string]*Field),
		Relationships: make(map[string]*Relationship),
		Embedded:      make(map[string]*Embedded),
		TableName:     toTableName(name),
	}
}

// GetPrimaryKey returns the primary key field
func (r *ResourceSchema) GetPrimaryKey() (*Field, error) {
	for _, field := range r.Fields {
		if field.Primary {
			return field, nil
		}
	}
	if field, ok := r.Fields["id"]; ok {
		return field, nil
	}
	return nil, fmt.Errorf("resource %s has no primary key", r.Name)
}

// HasField returns true if the resource has a field with the given name
func (r *ResourceSchema) HasField(name string) bool {
	_, exists := r.Fields[name]
	return exists
}

// HasRelationship returns true if the resource has a relationship with the given name
func (r *ResourceSchema) HasRelationship(name string) bool {
	_, exists := r.Relationships[name]
	return exists
}

// HasEmbedded returns true if the resource embeds a value object under name
func (r *ResourceSchema) HasEmbedded(name string) bool {
	_, exists := r.Embedded[name]
	return exists
}

// AssociationTarget returns the target resource of a relationship or embeddable
func (r *ResourceSchema) AssociationTarget(name string) (string, bool) {
	if rel, ok := r.Relationships[name]; ok {
		return rel.TargetResource, true
	}
	if emb, ok := r.Embedded[name]; ok {
		return emb.TargetResource, true
	}
	return "", false
}

// toColumnName converts a property or resource name to snake_case
func toColumnName(name string) string {
	return strcase.ToSnake(name)
}

// toTableName converts a resource name to a table name (snake_case plural)
func toTableName(resourceName string) string {
	return pluralize(toColumnName(resourceName))
}

// pluralize adds simple pluralization
func pluralize(s string) string {
	if strings.HasSuffix(s, "s") ||
		strings.HasSuffix(s, "x") ||
		strings.HasSuffix(s, "z") {
		return s + "es"
	}
	if strings.HasSuffix(s, "y") {
		return s[:len(s)-1] + "ies"
	}
	return s + "s"
}
