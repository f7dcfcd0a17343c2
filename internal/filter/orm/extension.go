package orm

import (
	"sort"
	"sync"

	"github.com/conduit-lang/filterkit/internal/filter"
	"github.com/conduit-lang/filterkit/internal/orm/query"
)

// FilterExtension applies the filters registered for a resource to a query
// builder. Filters run in registration order and share the builder.
type FilterExtension struct {
	filters map[string][]Filter
	mu      sync.RWMutex
}

// NewFilterExtension creates an empty FilterExtension
func NewFilterExtension() *FilterExtension {
	return &FilterExtension{
		filters: make(map[string][]Filter),
	}
}

// Register adds filters to resource
func (e *FilterExtension) Register(resource string, filters ...Filter) *FilterExtension {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.filters[resource] = append(e.filters[resource], filters...)
	return e
}

// Filters returns the filters of resource in registration order
func (e *FilterExtension) Filters(resource string) []Filter {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Filter, len(e.filters[resource]))
	copy(out, e.filters[resource])
	return out
}

// Resources returns the resources with at least one filter
func (e *FilterExtension) Resources() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.filters))
	for name := range e.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyToCollection runs every filter of the builder's resource
func (e *FilterExtension) ApplyToCollection(qb *query.QueryBuilder, ctx filter.Context) {
	if ctx.Filters == nil || ctx.Filters.Len() == 0 {
		return
	}

	for _, f := range e.Filters(qb.Resource().Name) {
		f.Apply(qb, ctx)
	}
}

// Description merges the descriptions of every filter of resource
func (e *FilterExtension) Description(resource string) map[string]filter.Description {
	description := make(map[string]filter.Description)
	for _, f := range e.Filters(resource) {
		for key, d := range f.Description(resource) {
			description[key] = d
		}
	}
	return description
}
