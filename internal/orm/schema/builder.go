package schema

import (
	"fmt"
	"strings"
)

// Definition is the declarative form of a resource, as read from configuration
type Definition struct {
	Name          string                   `mapstructure:"name"`
	Table         string                   `mapstructure:"table"`
	Documentation string                   `mapstructure:"documentation"`
	Embeddable    bool                     `mapstructure:"embeddable"`
	Fields        []FieldDefinition        `mapstructure:"fields"`
	Relationships []RelationshipDefinition `mapstructure:"relationships"`
	Embedded      []EmbeddedDefinition     `mapstructure:"embedded"`
}

// FieldDefinition declares a field. Type uses the "int!" / "float?" notation.
type FieldDefinition struct {
	Name           string `mapstructure:"name"`
	Type           string `mapstructure:"type"`
	Column         string `mapstructure:"column"`
	Primary        bool   `mapstructure:"primary"`
	SerializedName string `mapstructure:"serialized_name"`
}

// RelationshipDefinition declares an association to another resource
type RelationshipDefinition struct {
	Name           string `mapstructure:"name"`
	Kind           string `mapstructure:"kind"`
	Resource       string `mapstructure:"resource"`
	Nullable       bool   `mapstructure:"nullable"`
	ForeignKey     string `mapstructure:"foreign_key"`
	JoinTable      string `mapstructure:"join_table"`
	AssociationKey string `mapstructure:"association_key"`
	SerializedName string `mapstructure:"serialized_name"`
}

// EmbeddedDefinition declares an embedded value object
type EmbeddedDefinition struct {
	Name           string `mapstructure:"name"`
	Resource       string `mapstructure:"resource"`
	ColumnPrefix   string `mapstructure:"column_prefix"`
	SerializedName string `mapstructure:"serialized_name"`
}

// Builder builds ResourceSchema from definitions
type Builder struct {
	errors []error
}

// NewBuilder creates a new schema builder
func NewBuilder() *Builder {
	return &Builder{
		errors: make([]error, 0),
	}
}

// Build converts a Definition to a ResourceSchema
func (b *Builder) Build(def *Definition) (*ResourceSchema, error) {
	b.errors = make([]error, 0)

	if def.Name == "" {
		return nil, fmt.Errorf("resource definition has no name")
	}

	schema := NewResourceSchema(def.Name)
	schema.Documentation = def.Documentation
	schema.Embeddable = def.Embeddable
	if def.Table != "" {
		schema.TableName = def.Table
	}

	for i := range def.Fields {
		field, err := b.buildField(&def.Fields[i])
		if err != nil {
			b.errors = append(b.errors, err)
			continue
		}
		schema.Fields[field.Name] = field
	}

	for i := range def.Relationships {
		rel, err := b.buildRelationship(def.Name, &def.Relationships[i])
		if err != nil {
			b.errors = append(b.errors, err)
			continue
		}
		schema.Relationships[rel.FieldName] = rel
	}

	for i := range def.Embedded {
		emb, err := b.buildEmbedded(&def.Embedded[i])
		if err != nil {
			b.errors = append(b.errors, err)
			continue
		}
		schema.Embedded[emb.Name] = emb
	}

	if len(b.errors) > 0 {
		var errMsgs []string
		for _, err := range b.errors {
			errMsgs = append(errMsgs, err.Error())
		}
		return nil, fmt.Errorf("schema building failed for %s with %d errors:\n%s",
			def.Name, len(b.errors), strings.Join(errMsgs, "\n"))
	}

	return schema, nil
}

// BuildSerialization returns the serialized-name mapping declared by a definition.
// Properties without a serialized_name keep their own name.
func (b *Builder) BuildSerialization(def *Definition) *ClassSerialization {
	cs := &ClassSerialization{Resource: def.Name}

	add := func(name, serialized string) {
		if serialized == "" {
			serialized = name
		}
		cs.Attributes = append(cs.Attributes, &AttributeMetadata{Name: name, SerializedName: serialized})
	}

	for _, f := range def.Fields {
		add(f.Name, f.SerializedName)
	}
	for _, r := range def.Relationships {
		add(r.Name, r.SerializedName)
	}
	for _, e := range def.Embedded {
		add(e.Name, e.SerializedName)
	}

	return cs
}

// buildField converts a FieldDefinition to a Field
func (b *Builder) buildField(def *FieldDefinition) (*Field, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("field definition has no name")
	}

	typeSpec, err := ParseTypeSpec(def.Type)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", def.Name, err)
	}

	return &Field{
		Name:    def.Name,
		Type:    typeSpec,
		Column:  def.Column,
		Primary: def.Primary,
	}, nil
}

// buildRelationship converts a RelationshipDefinition to a Relationship
func (b *Builder) buildRelationship(owner string, def *RelationshipDefinition) (*Relationship, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("relationship definition has no name")
	}
	if def.Resource == "" {
		return nil, fmt.Errorf("relationship %s: missing target resource", def.Name)
	}

	relType, err := ParseRelationType(def.Kind)
	if err != nil {
		return nil, fmt.Errorf("relationship %s: %w", def.Name, err)
	}

	rel := &Relationship{
		Type:           relType,
		TargetResource: def.Resource,
		FieldName:      def.Name,
		Nullable:       def.Nullable,
		ForeignKey:     def.ForeignKey,
		JoinTable:      def.JoinTable,
		AssociationKey: def.AssociationKey,
	}

	if rel.ForeignKey == "" {
		rel.ForeignKey = defaultForeignKey(owner, rel)
	}
	if rel.Type == RelationshipHasManyThrough && rel.AssociationKey == "" {
		rel.AssociationKey = toColumnName(def.Resource) + "_id"
	}

	return rel, nil
}

// buildEmbedded converts an EmbeddedDefinition to an Embedded
func (b *Builder) buildEmbedded(def *EmbeddedDefinition) (*Embedded, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("embedded definition has no name")
	}
	if def.Resource == "" {
		return nil, fmt.Errorf("embedded %s: missing target resource", def.Name)
	}

	return &Embedded{
		Name:           def.Name,
		TargetResource: def.Resource,
		ColumnPrefix:   def.ColumnPrefix,
	}, nil
}

// ParseTypeSpec parses the "base!" / "base?" notation
func ParseTypeSpec(s string) (*TypeSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("missing type")
	}

	var nullable bool
	switch {
	case strings.HasSuffix(s, "?"):
		nullable = true
	case strings.HasSuffix(s, "!"):
		nullable = false
	default:
		return nil, fmt.Errorf("type %s must end with ! (required) or ? (optional)", s)
	}

	base, err := ParsePrimitiveType(s[:len(s)-1])
	if err != nil {
		return nil, err
	}

	return &TypeSpec{BaseType: base, Nullable: nullable}, nil
}

// defaultForeignKey follows the <resource>_id convention. belongs_to stores the
// key on the owner and names it after the association; the inverse sides store
// it on the target and name it after the owner.
func defaultForeignKey(owner string, rel *Relationship) string {
	if rel.Type == RelationshipBelongsTo {
		return toColumnName(rel.FieldName) + "_id"
	}
	return toColumnName(owner) + "_id"
}
