package odm

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/conduit-lang/filterkit/internal/filter"
	"github.com/conduit-lang/filterkit/internal/filter/value"
	"github.com/conduit-lang/filterkit/internal/odm/aggregation"
)

// NumericFilter matches documents by equality of numeric properties.
//
//	price=10              {$match: {price: 10}}
//	price[]=10&price[]=20 {$match: {price: {$in: [10, 20]}}}
type NumericFilter struct {
	*filter.Base
}

var _ Filter = (*NumericFilter)(nil)

// NewNumericFilter creates a NumericFilter
func NewNumericFilter(cfg filter.Config) (*NumericFilter, error) {
	base, err := filter.NewBase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create numeric filter: %w", err)
	}
	return &NumericFilter{Base: base}, nil
}

// Apply implements Filter
func (f *NumericFilter) Apply(b *aggregation.Builder, ctx filter.Context) {
	applyEach(f.Base, b, ctx.Filters, f.filterProperty)
}

func (f *NumericFilter) filterProperty(property string, raw interface{}, cs *aggregation.Changeset, resource string) error {
	if err := f.CheckProperty(property, resource, false); err != nil {
		return err
	}

	ft, ok := f.Resolver.FieldType(property, resource)
	if !ok || !ft.IsNumeric() {
		return fmt.Errorf("%w: %s is not numeric", filter.ErrPropertyNotMapped, property)
	}

	values, err := value.Numeric(raw, ft)
	if err != nil {
		return err
	}

	list := make(bson.A, len(values))
	for i, v := range values {
		if list[i], err = bsonValue(v); err != nil {
			return err
		}
	}

	field, err := matchField(f.Base, property, cs, resource)
	if err != nil {
		return err
	}

	if len(list) == 1 {
		cs.Match(field, list[0])
		return nil
	}

	cs.Match(field, bson.D{{Key: "$in", Value: list}})
	return nil
}

// Description implements filter.Filter
func (f *NumericFilter) Description(resource string) map[string]filter.Description {
	return f.NumericDescription(resource)
}
