// Package odm applies query filters to MongoDB aggregation pipelines.
package odm

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/conduit-lang/filterkit/internal/filter"
	"github.com/conduit-lang/filterkit/internal/odm/aggregation"
	webquery "github.com/conduit-lang/filterkit/pkg/web/query"
)

// Filter adds stages or sort keys to an aggregation builder
type Filter interface {
	filter.Filter

	// Apply adds the stages requested by ctx. Invalid input is logged and
	// skipped.
	Apply(b *aggregation.Builder, ctx filter.Context)
}

type propertyFunc func(property string, value interface{}, cs *aggregation.Changeset, resource string) error

// applyEach runs fn for every entry of filters, each in its own changeset.
// A changeset is applied even when fn reports a partial failure.
func applyEach(base *filter.Base, b *aggregation.Builder, filters *webquery.Values, fn propertyFunc) {
	resource := b.Resource().Name

	base.Each(filters, resource, func(property string, value interface{}) error {
		cs := b.Changeset()
		err := fn(property, value, cs, resource)
		if cs.IsEmpty() {
			return err
		}

		if applyErr := b.Apply(cs); applyErr != nil {
			return fmt.Errorf("failed to filter on %s: %w", property, applyErr)
		}
		return err
	})
}

// matchField returns the document path to match property on, looking up the
// referenced documents of nested properties
func matchField(base *filter.Base, property string, cs *aggregation.Changeset, resource string) (string, error) {
	if !base.Resolver.IsPropertyNested(property, resource) {
		return property, nil
	}

	field, _, _, err := base.Resolver.AddLookupsForNestedProperty(property, cs, resource)
	return field, err
}

// bsonValue converts decimals to Decimal128. Other values encode as is.
func bsonValue(v interface{}) (interface{}, error) {
	d, ok := v.(decimal.Decimal)
	if !ok {
		return v, nil
	}

	dec, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", d, err)
	}
	return dec, nil
}
