package schema

import (
	"fmt"
	"sync"
)

// AttributeMetadata maps an internal attribute name to its serialized name
type AttributeMetadata struct {
	Name           string
	SerializedName string
}

// ClassSerialization is the ordered attribute list of one resource
type ClassSerialization struct {
	Resource   string
	Attributes []*AttributeMetadata
}

// OriginalName returns the attribute whose serialized name matches. The first
// match wins; ok is false when nothing matches.
func (c *ClassSerialization) OriginalName(serialized string) (string, bool) {
	for _, attr := range c.Attributes {
		if attr.SerializedName == serialized {
			return attr.Name, true
		}
	}
	return "", false
}

// SerializedName returns the serialized name of an attribute
func (c *ClassSerialization) SerializedName(name string) (string, bool) {
	for _, attr := range c.Attributes {
		if attr.Name == name && attr.SerializedName != "" {
			return attr.SerializedName, true
		}
	}
	return "", false
}

// SerializationFactory provides serialization metadata per resource
type SerializationFactory interface {
	HasMetadataFor(resource string) bool
	MetadataFor(resource string) (*ClassSerialization, error)
}

// SerializationRegistry is an in-memory SerializationFactory
type SerializationRegistry struct {
	classes map[string]*ClassSerialization
	mu      sync.RWMutex
}

var _ SerializationFactory = (*SerializationRegistry)(nil)

// NewSerializationRegistry creates an empty registry
func NewSerializationRegistry() *SerializationRegistry {
	return &SerializationRegistry{
		classes: make(map[string]*ClassSerialization),
	}
}

// Register stores the mapping for cs.Resource, replacing any previous one
func (r *SerializationRegistry) Register(cs *ClassSerialization) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.classes[cs.Resource] = cs
}

// HasMetadataFor reports whether a mapping is known for resource
func (r *SerializationRegistry) HasMetadataFor(resource string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.classes[resource]
	return ok
}

// MetadataFor returns the mapping for resource
func (r *SerializationRegistry) MetadataFor(resource string) (*ClassSerialization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cs, ok := r.classes[resource]
	if !ok {
		return nil, fmt.Errorf("no serialization metadata for %s", resource)
	}
	return cs, nil
}
