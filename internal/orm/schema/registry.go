package schema

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrResourceNotFound is matched by every ResourceNotFoundError
var ErrResourceNotFound = errors.New("resource not found")

// ResourceNotFoundError is returned when the metadata for a resource is unknown
type ResourceNotFoundError struct {
	Resource string
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("resource %s not found", e.Resource)
}

// Is makes errors.Is(err, ErrResourceNotFound) work for wrapped errors
func (e *ResourceNotFoundError) Is(target error) bool {
	return target == ErrResourceNotFound
}

// MetadataFactory is the read contract for resource metadata
type MetadataFactory interface {
	Metadata(resource string) (*ResourceSchema, error)
}

// Registry manages all resource schemas in the application
type Registry struct {
	schemas   map[string]*ResourceSchema
	validator *SchemaValidator
	mu        sync.RWMutex
}

var _ MetadataFactory = (*Registry)(nil)

// NewRegistry creates a new schema registry
func NewRegistry() *Registry {
	return &Registry{
		schemas:   make(map[string]*ResourceSchema),
		validator: NewSchemaValidator(),
	}
}

// Register registers a new resource schema
func (r *Registry) Register(schema *ResourceSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[schema.Name]; exists {
		return fmt.Errorf("resource %s is already registered", schema.Name)
	}

	// Relationship targets are checked in ValidateAll so that resources can
	// reference each other in any registration order.
	if err := r.validator.ValidateStructural(schema); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", schema.Name, err)
	}

	r.schemas[schema.Name] = schema
	return nil
}

// MustRegister registers schemas and panics on the first error
func (r *Registry) MustRegister(schemas ...*ResourceSchema) *Registry {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Get retrieves a resource schema by name
func (r *Registry) Get(name string) (*ResourceSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.schemas[name]
	return schema, exists
}

// Metadata implements MetadataFactory
func (r *Registry) Metadata(name string) (*ResourceSchema, error) {
	schema, ok := r.Get(name)
	if !ok {
		return nil, &ResourceNotFoundError{Resource: name}
	}
	return schema, nil
}

// List returns the sorted names of all registered resources
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateAll checks cross-resource references of all registered schemas
func (r *Registry) ValidateAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.validator.ValidateReferences(r.schemas)
}

// Clear removes all registered schemas (useful for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.schemas = make(map[string]*ResourceSchema)
}

// Count returns the number of registered schemas
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.schemas)
}

// Exists checks if a resource schema exists
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.schemas[name]
	return exists
}
