// Package property resolves dotted property paths against resource metadata
// and adds the joins or lookups a nested path needs.
package property

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conduit-lang/filterkit/internal/odm/aggregation"
	"github.com/conduit-lang/filterkit/internal/orm/query"
	"github.com/conduit-lang/filterkit/internal/orm/schema"
)

// ErrNotNested is returned when a join or lookup is requested for a path that
// crosses no association
var ErrNotNested = errors.New("property is not nested")

// lookupSuffix is appended to an association name to form its lookup alias
const lookupSuffix = "_lkup"

// Parts is a property path split into the associations to traverse and the
// remaining field
type Parts struct {
	Associations []string
	Field        string
}

// Resolver answers questions about property paths of a resource. It works on
// internal names; API names must be denormalized first.
type Resolver struct {
	metadata schema.MetadataFactory
}

// NewResolver creates a Resolver reading metadata from factory
func NewResolver(factory schema.MetadataFactory) *Resolver {
	return &Resolver{metadata: factory}
}

// Metadata returns the metadata of resource
func (r *Resolver) Metadata(resource string) (*schema.ResourceSchema, error) {
	if r.metadata == nil {
		return nil, fmt.Errorf("no metadata factory to resolve %s", resource)
	}
	return r.metadata.Metadata(resource)
}

// IsPropertyNested reports whether property has more than one segment and its
// first segment is a relationship of resource
func (r *Resolver) IsPropertyNested(property, resource string) bool {
	first, _, found := strings.Cut(property, ".")
	if !found {
		return false
	}

	meta, err := r.Metadata(resource)
	if err != nil {
		return false
	}
	return meta.HasRelationship(first)
}

// IsPropertyEmbedded reports whether property is a dotted path whose first
// segment is an embeddable of resource
func (r *Resolver) IsPropertyEmbedded(property, resource string) bool {
	first, _, found := strings.Cut(property, ".")
	if !found {
		return false
	}

	meta, err := r.Metadata(resource)
	if err != nil {
		return false
	}
	return meta.HasEmbedded(first)
}

// IsPropertyMapped reports whether property resolves to a field, or to a
// relationship when allowAssociation is set, on the resource reached after
// its associations
func (r *Resolver) IsPropertyMapped(property, resource string, allowAssociation bool) bool {
	meta, field, err := r.resolve(property, resource)
	if err != nil {
		return false
	}

	if _, ok := r.lookupField(meta, field); ok {
		return true
	}
	return allowAssociation && meta.HasRelationship(field)
}

// SplitPropertyParts splits property into its leading relationships and the
// remaining field. Embedded segments stay in the field. When every segment is
// a relationship the last one is treated as the field.
func (r *Resolver) SplitPropertyParts(property, resource string) Parts {
	segments := strings.Split(property, ".")

	count := 0
	meta, err := r.Metadata(resource)
	for err == nil && count < len(segments) {
		rel, ok := meta.Relationships[segments[count]]
		if !ok {
			break
		}
		count++
		meta, err = r.Metadata(rel.TargetResource)
	}

	if count == len(segments) {
		count--
	}

	return Parts{
		Associations: segments[:count],
		Field:        strings.Join(segments[count:], "."),
	}
}

// NestedMetadata follows associations from resource and returns the metadata
// of the resource they lead to
func (r *Resolver) NestedMetadata(resource string, associations []string) (*schema.ResourceSchema, error) {
	meta, err := r.Metadata(resource)
	if err != nil {
		return nil, err
	}

	for _, association := range associations {
		rel, ok := meta.Relationships[association]
		if !ok {
			return nil, fmt.Errorf("%s has no association %s", meta.Name, association)
		}
		if meta, err = r.Metadata(rel.TargetResource); err != nil {
			return nil, err
		}
	}

	return meta, nil
}

// FieldType returns the declared type of the field property resolves to
func (r *Resolver) FieldType(property, resource string) (*schema.TypeSpec, bool) {
	meta, field, err := r.resolve(property, resource)
	if err != nil {
		return nil, false
	}

	f, ok := r.lookupField(meta, field)
	if !ok {
		return nil, false
	}
	return f.Type, true
}

// AddJoinsForNestedProperty adds one join per association of property, chained
// from rootAlias. It returns the alias of the last join and the field to
// filter on.
func (r *Resolver) AddJoinsForNestedProperty(property, rootAlias string, cs *query.Changeset, resource string, joinType query.JoinType) (string, string, []string, error) {
	parts := r.SplitPropertyParts(property, resource)
	if len(parts.Associations) == 0 {
		return "", "", nil, fmt.Errorf("cannot add joins for %q: %w", property, ErrNotNested)
	}

	alias := rootAlias
	for _, association := range parts.Associations {
		alias = cs.Join(alias, association, joinType)
	}

	return alias, parts.Field, parts.Associations, nil
}

// AddLookupsForNestedProperty adds a $lookup per relationship crossed by
// property. Embedded documents only extend the path. It returns the field
// path to match on in the pipeline and the field below the last association.
func (r *Resolver) AddLookupsForNestedProperty(property string, cs *aggregation.Changeset, resource string) (string, string, []string, error) {
	segments := strings.Split(property, ".")

	meta, err := r.Metadata(resource)
	if err != nil {
		return "", "", nil, err
	}

	prefix := ""
	fieldStart := 0
	associations := make([]string, 0)

	for i, segment := range segments[:len(segments)-1] {
		if emb, ok := meta.Embedded[segment]; ok {
			if meta, err = r.Metadata(emb.TargetResource); err != nil {
				return "", "", nil, err
			}
			prefix += segment + "."
			continue
		}

		rel, ok := meta.Relationships[segment]
		if !ok {
			return "", "", nil, fmt.Errorf("%s has no association %s", meta.Name, segment)
		}
		target, err := r.Metadata(rel.TargetResource)
		if err != nil {
			return "", "", nil, err
		}

		var localField, foreignField string
		switch {
		case rel.IsOwningSide():
			localField, foreignField = prefix+segment, "_id"
		case rel.Type == schema.RelationshipHasManyThrough:
			return "", "", nil, fmt.Errorf("association %s.%s cannot be looked up", meta.Name, segment)
		default:
			localField, foreignField = prefix+"_id", rel.ForeignKey
		}

		as := cs.Lookup(target.TableName, localField, foreignField, prefix+segment+lookupSuffix)
		prefix = as + "."
		fieldStart = i + 1
		associations = append(associations, segment)
		meta = target
	}

	if len(associations) == 0 {
		return "", "", nil, fmt.Errorf("cannot add lookups for %q: %w", property, ErrNotNested)
	}

	return prefix + segments[len(segments)-1], strings.Join(segments[fieldStart:], "."), associations, nil
}

// resolve returns the metadata reached after the associations of property and
// the remaining field
func (r *Resolver) resolve(property, resource string) (*schema.ResourceSchema, string, error) {
	if !r.IsPropertyNested(property, resource) {
		meta, err := r.Metadata(resource)
		return meta, property, err
	}

	parts := r.SplitPropertyParts(property, resource)
	meta, err := r.NestedMetadata(resource, parts.Associations)
	return meta, parts.Field, err
}

// lookupField finds field on meta, walking embeddables for dotted names
func (r *Resolver) lookupField(meta *schema.ResourceSchema, field string) (*schema.Field, bool) {
	segments := strings.Split(field, ".")

	for _, segment := range segments[:len(segments)-1] {
		emb, ok := meta.Embedded[segment]
		if !ok {
			return nil, false
		}
		next, err := r.Metadata(emb.TargetResource)
		if err != nil {
			return nil, false
		}
		meta = next
	}

	f, ok := meta.Fields[segments[len(segments)-1]]
	return f, ok
}
