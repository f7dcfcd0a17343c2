// Package orm applies query filters to relational query builders.
package orm

import (
	"fmt"

	"github.com/conduit-lang/filterkit/internal/filter"
	"github.com/conduit-lang/filterkit/internal/orm/query"
	webquery "github.com/conduit-lang/filterkit/pkg/web/query"
)

// Filter adds predicates or orderings to a query builder
type Filter interface {
	filter.Filter

	// Apply adds the fragments requested by ctx. Invalid input is logged and
	// skipped.
	Apply(qb *query.QueryBuilder, ctx filter.Context)
}

type propertyFunc func(property string, value interface{}, cs *query.Changeset, resource string) error

// applyEach runs fn for every entry of filters, each in its own changeset.
// A changeset is applied even when fn reports a partial failure.
func applyEach(base *filter.Base, qb *query.QueryBuilder, filters *webquery.Values, fn propertyFunc) {
	resource := qb.Resource().Name

	base.Each(filters, resource, func(property string, value interface{}) error {
		cs := qb.Changeset()
		err := fn(property, value, cs, resource)
		if cs.IsEmpty() {
			return err
		}

		if applyErr := qb.Apply(cs); applyErr != nil {
			return fmt.Errorf("failed to filter on %s: %w", property, applyErr)
		}
		return err
	})
}

// target returns the alias and field to filter property on, joining the
// associations of nested properties
func target(base *filter.Base, property string, cs *query.Changeset, resource string, joinType query.JoinType) (string, string, error) {
	if !base.Resolver.IsPropertyNested(property, resource) {
		return cs.RootAlias(), property, nil
	}

	alias, field, _, err := base.Resolver.AddJoinsForNestedProperty(property, cs.RootAlias(), cs, resource, joinType)
	return alias, field, err
}
