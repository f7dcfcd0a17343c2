package schema

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is used when a non-positive size is given
const DefaultCacheSize = 128

// Loader produces the metadata of one resource
type Loader func(resource string) (*ResourceSchema, error)

// CachedFactory is a read-through MetadataFactory. Concurrent misses for the
// same resource share a single Loader call. Failed loads are not cached.
type CachedFactory struct {
	loader Loader
	cache  *lru.Cache
	group  singleflight.Group
}

var _ MetadataFactory = (*CachedFactory)(nil)

// NewCachedFactory wraps loader with an LRU cache of the given size
func NewCachedFactory(loader Loader, size int) (*CachedFactory, error) {
	if loader == nil {
		return nil, fmt.Errorf("metadata loader is required")
	}
	if size <= 0 {
		size = DefaultCacheSize
	}

	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata cache: %w", err)
	}

	return &CachedFactory{loader: loader, cache: cache}, nil
}

// Metadata implements MetadataFactory
func (f *CachedFactory) Metadata(resource string) (*ResourceSchema, error) {
	if v, ok := f.cache.Get(resource); ok {
		return v.(*ResourceSchema), nil
	}

	v, err, _ := f.group.Do(resource, func() (interface{}, error) {
		if v, ok := f.cache.Get(resource); ok {
			return v, nil
		}
		schema, err := f.loader(resource)
		if err != nil {
			return nil, err
		}
		f.cache.Add(resource, schema)
		return schema, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ResourceSchema), nil
}

// Len returns the number of cached resources
func (f *CachedFactory) Len() int {
	return f.cache.Len()
}

// Purge drops every cached entry
func (f *CachedFactory) Purge() {
	f.cache.Purge()
}

// DefinitionLoader returns a Loader building schemas from definitions on demand
func DefinitionLoader(defs []Definition) Loader {
	index := make(map[string]*Definition, len(defs))
	for i := range defs {
		index[defs[i].Name] = &defs[i]
	}

	return func(resource string) (*ResourceSchema, error) {
		def, ok := index[resource]
		if !ok {
			return nil, &ResourceNotFoundError{Resource: resource}
		}
		return NewBuilder().Build(def)
	}
}

// LoadDefinitions builds, registers and cross-validates all definitions. It
// also returns the serialized-name mappings they declare.
func LoadDefinitions(defs []Definition) (*Registry, *SerializationRegistry, error) {
	registry := NewRegistry()
	serialization := NewSerializationRegistry()
	builder := NewBuilder()

	for i := range defs {
		schema, err := builder.Build(&defs[i])
		if err != nil {
			return nil, nil, err
		}
		if err := registry.Register(schema); err != nil {
			return nil, nil, err
		}
		serialization.Register(builder.BuildSerialization(&defs[i]))
	}

	if err := registry.ValidateAll(); err != nil {
		return nil, nil, err
	}

	return registry, serialization, nil
}
