package orm

import (
	"errors"
	"fmt"

	"github.com/conduit-lang/filterkit/internal/filter"
	"github.com/conduit-lang/filterkit/internal/filter/value"
	"github.com/conduit-lang/filterkit/internal/orm/query"
)

// RangeFilter filters a collection by range. Each property takes one or more
// operators: price[gte]=10&price[lt]=20 or price[between]=10..20. An invalid
// operator is skipped without affecting the others.
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
func (f *RangeFilter) Apply(qb *query.QueryBuilder, ctx filter.Context) {
	applyEach(f.Base, qb, ctx.Filters, f.filterProperty)
}

var rangeOperators = map[string]query.Operator{
	value.OperatorGreaterThan:        query.OpGreaterThan,
	value.OperatorGreaterThanOrEqual: query.OpGreaterThanOrEqual,
	value.OperatorLessThan:           query.OpLessThan,
	value.OperatorLessThanOrEqual:    query.OpLessThanOrEqual,
}

func (f *RangeFilter) filterProperty(property string, raw interface{}, cs *query.Changeset, resource string) error {
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

	alias, field, err := target(f.Base, property, cs, resource, query.InnerJoin)
	if err != nil {
		return err
	}

	for _, b := range bounds {
		p := cs.ParameterName(field)

		if b.Operator == value.OperatorBetween {
			cs.AndWhere(alias, field, query.OpBetween, p+"_1", p+"_2").
				SetParameter(p+"_1", b.Values[0], nil).
				SetParameter(p+"_2", b.Values[1], nil)
			continue
		}

		cs.AndWhere(alias, field, rangeOperators[b.Operator], p).
			SetParameter(p, b.Values[0], nil)
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
