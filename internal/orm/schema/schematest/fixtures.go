// Package schematest provides resource fixtures shared by tests.
package schematest

import (
	"github.com/conduit-lang/filterkit/internal/orm/schema"
)

// Definitions returns a small catalogue:
//
//	Dummy -> RelatedDummy -> ThirdLevel -> FourthLevel
//	Dummy has many RelatedDummy
//	Dummy embeds Dimensions
func Definitions() []schema.Definition {
	return []schema.Definition{
		{
			Name: "Dummy",
			Fields: []schema.FieldDefinition{
				{Name: "id", Type: "int!", Primary: true},
				{Name: "name", Type: "string!"},
				{Name: "description", Type: "text?"},
				{Name: "price", Type: "float?"},
				{Name: "dummyPrice", Type: "decimal?"},
				{Name: "quantity", Type: "int?"},
				{Name: "views", Type: "bigint?"},
				{Name: "createdAt", Type: "timestamp?"},
			},
			Relationships: []schema.RelationshipDefinition{
				{Name: "relatedDummy", Kind: "belongs_to", Resource: "RelatedDummy", Nullable: true},
				{Name: "relatedDummies", Kind: "has_many", Resource: "RelatedDummy"},
			},
			Embedded: []schema.EmbeddedDefinition{
				{Name: "dimensions", Resource: "Dimensions"},
			},
		},
		{
			Name: "RelatedDummy",
			Fields: []schema.FieldDefinition{
				{Name: "id", Type: "int!", Primary: true},
				{Name: "name", Type: "string?"},
				{Name: "age", Type: "int?"},
			},
			Relationships: []schema.RelationshipDefinition{
				{Name: "thirdLevel", Kind: "belongs_to", Resource: "ThirdLevel", Nullable: true},
			},
		},
		{
			Name: "ThirdLevel",
			Fields: []schema.FieldDefinition{
				{Name: "id", Type: "int!", Primary: true},
				{Name: "level", Type: "int!"},
			},
			Relationships: []schema.RelationshipDefinition{
				{Name: "fourthLevel", Kind: "belongs_to", Resource: "FourthLevel"},
			},
		},
		{
			Name: "FourthLevel",
			Fields: []schema.FieldDefinition{
				{Name: "id", Type: "int!", Primary: true},
				{Name: "level", Type: "int!"},
			},
		},
		{
			Name:       "Dimensions",
			Embeddable: true,
			Fields: []schema.FieldDefinition{
				{Name: "width", Type: "float!"},
				{Name: "height", Type: "float!"},
			},
		},
	}
}

// Registry returns the fixtures loaded into a registry. It panics on error.
func Registry() *schema.Registry {
	registry, _ := Load()
	return registry
}

// Load returns the fixture registry and its serialization mappings
func Load() (*schema.Registry, *schema.SerializationRegistry) {
	registry, serialization, err := schema.LoadDefinitions(Definitions())
	if err != nil {
		panic(err)
	}
	return registry, serialization
}
