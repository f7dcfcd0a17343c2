package odm

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/conduit-lang/filterkit/internal/filter"
	"github.com/conduit-lang/filterkit/internal/filter/value"
	"github.com/conduit-lang/filterkit/internal/odm/aggregation"
)

// RangeFilter matches documents by range, one $match per accepted operator.
// between adds {$gte: a, $lte: b}.
type RangeFilter struct {
	*filter.Base
}

var _ Filter = (*RangeFilter)(nil)

// NewRangeFilter creates a RangeFilter
func NewRangeFilter(cfg filter.Config) (*RangeFilter, error) {
	base, err := filter.NewBase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create range filter: %w", err)
	}
	return &RangeFilter{Base: base}, nil
}

// Apply implements Filter
func (f *RangeFilter) Apply(b *aggregation.Builder, ctx filter.Context) {
	applyEach(f.Base, b, ctx.Filters, f.filterProperty)
}

func (f *RangeFilter) filterProperty(property string, raw interface{}, cs *aggregation.Changeset, resource string) error {
	if err := f.CheckProperty(property, resource, false); err != nil {
		return err
	}

	operators, err := value.RangeOperators(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", property, err)
	}

	bounds, errs := value.Bounds(operators)
	if len(bounds) == 0 {
		return fmt.Errorf("%s: %w", property, errors.Join(errs...))
	}

	field, err := matchField(f.Base, property, cs, resource)
	if err != nil {
		return err
	}

	for _, b := range bounds {
		if b.Operator == value.OperatorBetween {
			cs.Match(field, bson.D{
				{Key: "$gte", Value: b.Values[0]},
				{Key: "$lte", Value: b.Values[1]},
			})
			continue
		}

		cs.Match(field, bson.D{{Key: "$" + b.Operator, Value: b.Values[0]}})
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", property, errors.Join(errs...))
	}
	return nil
}

// Description implements filter.Filter
func (f *RangeFilter) Description(resource string) map[string]filter.Description {
	return f.RangeDescription(resource)
}
