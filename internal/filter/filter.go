// Package filter holds the pieces shared by the query filters of every
// backend: request context, per-property options, descriptions and the
// property dispatch loop.
package filter

import (
	"errors"

	webquery "github.com/conduit-lang/filterkit/pkg/web/query"
)

var (
	// ErrPropertyNotEnabled is returned for properties outside the allow-list,
	// and for nested properties when there is no allow-list
	ErrPropertyNotEnabled = errors.New("property not enabled")

	// ErrPropertyNotMapped is returned for properties the metadata does not
	// know or that have the wrong type for the filter
	ErrPropertyNotMapped = errors.New("property not mapped")
)

// OperationGetCollection names the collection read operation
const OperationGetCollection = "get_collection"

// Context is the read-only input of one filter application
type Context struct {
	Filters   *webquery.Values
	Operation string
}

// NewContext creates a context over a copy of filters
func NewContext(filters *webquery.Values, operation string) Context {
	if filters == nil {
		filters = webquery.NewValues()
	}
	return Context{
		Filters:   filters.Clone(),
		Operation: operation,
	}
}

// Description documents one query parameter accepted by a filter
type Description struct {
	Property     string                 `json:"property"`
	Type         string                 `json:"type"`
	Required     bool                   `json:"required"`
	IsCollection bool                   `json:"is_collection,omitempty"`
	Schema       map[string]interface{} `json:"schema,omitempty"`
}

// Filter is implemented by every filter regardless of backend
type Filter interface {
	Description(resource string) map[string]Description
}
