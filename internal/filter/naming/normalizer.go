package naming

import (
	"strings"

	"github.com/conduit-lang/filterkit/internal/orm/schema"
)

// Normalizer converts dotted property paths in both directions. Each segment
// goes through the name converter and, while the owning resource is known,
// through its serialized-name mapping. Any collaborator may be nil.
type Normalizer struct {
	metadata      schema.MetadataFactory
	serialization schema.SerializationFactory
	converter     NameConverter
}

// NewNormalizer creates a Normalizer
func NewNormalizer(metadata schema.MetadataFactory, serialization schema.SerializationFactory, converter NameConverter) *Normalizer {
	return &Normalizer{
		metadata:      metadata,
		serialization: serialization,
		converter:     converter,
	}
}

// Denormalize turns an API path into the internal property path. An empty
// resource disables metadata-aware resolution.
func (n *Normalizer) Denormalize(path, resource string) string {
	segments := strings.Split(path, ".")

	for i, segment := range segments {
		if n.converter != nil {
			segment = n.converter.Denormalize(segment)
		}

		if resource != "" {
			segment = n.originalName(resource, segment)
			resource = n.associationTarget(resource, segment)
		}

		segments[i] = segment
	}

	return strings.Join(segments, ".")
}

// Normalize turns an internal property path into its API spelling
func (n *Normalizer) Normalize(path, resource string) string {
	segments := strings.Split(path, ".")

	for i, segment := range segments {
		normalized := segment

		if resource != "" {
			normalized = n.serializedName(resource, segment)
		}
		if n.converter != nil {
			normalized = n.converter.Normalize(normalized)
		}

		// traversal follows the internal name
		if resource != "" {
			resource = n.associationTarget(resource, segment)
		}

		segments[i] = normalized
	}

	return strings.Join(segments, ".")
}

// associationTarget returns the resource reached through property, or ""
// when property is not a relationship or the metadata cannot be loaded
func (n *Normalizer) associationTarget(resource, property string) string {
	if n.metadata == nil {
		return ""
	}

	meta, err := n.metadata.Metadata(resource)
	if err != nil {
		return ""
	}

	rel, ok := meta.Relationships[property]
	if !ok {
		return ""
	}
	return rel.TargetResource
}

func (n *Normalizer) originalName(resource, serialized string) string {
	if n.serialization == nil || !n.serialization.HasMetadataFor(resource) {
		return serialized
	}

	class, err := n.serialization.MetadataFor(resource)
	if err != nil {
		return serialized
	}
	if name, ok := class.OriginalName(serialized); ok {
		return name
	}
	return serialized
}

func (n *Normalizer) serializedName(resource, original string) string {
	if n.serialization == nil || !n.serialization.HasMetadataFor(resource) {
		return original
	}

	class, err := n.serialization.MetadataFor(resource)
	if err != nil {
		return original
	}
	if name, ok := class.SerializedName(original); ok {
		return name
	}
	return original
}
