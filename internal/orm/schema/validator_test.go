package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStructural(t *testing.T) {
	t.Run("valid schema", func(t *testing.T) {
		assert.NoError(t, NewSchemaValidator().ValidateStructural(newIDSchema("Post")))
	})

	t.Run("nullable primary key", func(t *testing.T) {
		schema := newIDSchema("Post")
		schema.Fields["id"].Type.Nullable = true

		validator := NewSchemaValidator()
		require.Error(t, validator.ValidateStructural(schema))
		require.Len(t, validator.Errors(), 1)
		assert.Contains(t, validator.Errors()[0].Hint, "id: int!")
	})

	t.Run("two primary keys", func(t *testing.T) {
		schema := newIDSchema("Post")
		schema.Fields["uuid"] = &Field{Name: "uuid", Type: &TypeSpec{BaseType: TypeUUID}, Primary: true}

		assert.Error(t, NewSchemaValidator().ValidateStructural(schema))
	})

	t.Run("field without type", func(t *testing.T) {
		schema := newIDSchema("Post")
		schema.Fields["title"] = &Field{Name: "title"}

		assert.Error(t, NewSchemaValidator().ValidateStructural(schema))
	})

	t.Run("name collision", func(t *testing.T) {
		schema := newIDSchema("Post")
		schema.Fields["author"] = &Field{Name: "author", Type: &TypeSpec{BaseType: TypeString}}
		schema.Relationships["author"] = &Relationship{
			Type:           RelationshipBelongsTo,
			TargetResource: "User",
			FieldName:      "author",
		}

		validator := NewSchemaValidator()
		require.Error(t, validator.ValidateStructural(schema))
		assert.Contains(t, validator.Errors()[0].Error(), "Post.author: relationship collides with field")
	})

	t.Run("embeddable needs no primary key", func(t *testing.T) {
		schema := NewResourceSchema("Dimensions")
		schema.Embeddable = true
		schema.Fields["width"] = &Field{Name: "width", Type: &TypeSpec{BaseType: TypeFloat}}

		assert.NoError(t, NewSchemaValidator().ValidateStructural(schema))
	})
}

func TestValidateReferences(t *testing.T) {
	dimensions := NewResourceSchema("Dimensions")
	dimensions.Embeddable = true

	user := newIDSchema("User")

	post := newIDSchema("Post")
	post.Relationships["tags"] = &Relationship{
		Type:           RelationshipHasManyThrough,
		TargetResource: "User",
		FieldName:      "tags",
	}
	post.Embedded["size"] = &Embedded{Name: "size", TargetResource: "User"}
	post.Embedded["dimensions"] = &Embedded{Name: "dimensions", TargetResource: "Dimensions"}
	post.Relationships["box"] = &Relationship{
		Type:           RelationshipBelongsTo,
		TargetResource: "Dimensions",
		FieldName:      "box",
	}

	validator := NewSchemaValidator()
	err := validator.ValidateReferences(map[string]*ResourceSchema{
		"Dimensions": dimensions,
		"User":       user,
		"Post":       post,
	})
	require.Error(t, err)

	var messages []string
	for _, e := range validator.Errors() {
		messages = append(messages, e.Field+": "+e.Message)
	}
	assert.ElementsMatch(t, []string{
		"box: relationship targets embeddable Dimensions",
		"box: target resource Dimensions has no primary key",
		"tags: has_many_through relationship requires join_table",
		"size: User is not embeddable",
	}, messages)
}
