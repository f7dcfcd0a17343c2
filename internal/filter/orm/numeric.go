package orm

import (
	"fmt"

	"github.com/conduit-lang/filterkit/internal/filter"
	"github.com/conduit-lang/filterkit/internal/filter/value"
	"github.com/conduit-lang/filterkit/internal/orm/query"
)

// NumericFilter filters a collection by equality of numeric properties.
//
//	price=10             o.price = :price_p1
//	price[]=10&price[]=20 o.price IN (:price_p1)
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
func (f *NumericFilter) Apply(qb *query.QueryBuilder, ctx filter.Context) {
	applyEach(f.Base, qb, ctx.Filters, f.filterProperty)
}

func (f *NumericFilter) filterProperty(property string, raw interface{}, cs *query.Changeset, resource string) error {
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

	alias, field, err := target(f.Base, property, cs, resource, query.InnerJoin)
	if err != nil {
		return err
	}

	p := cs.ParameterName(field)
	if len(values) == 1 {
		cs.AndWhere(alias, field, query.OpEqual, p).SetParameter(p, values[0], ft)
		return nil
	}

	// lists are bound without a type
	cs.AndWhere(alias, field, query.OpIn, p).SetParameter(p, values, nil)
	return nil
}

// Description implements filter.Filter
func (f *NumericFilter) Description(resource string) map[string]filter.Description {
	return f.NumericDescription(resource)
}
