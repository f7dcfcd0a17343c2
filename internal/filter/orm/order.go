package orm

import (
	"fmt"

	"github.com/conduit-lang/filterkit/internal/filter"
	"github.com/conduit-lang/filterkit/internal/filter/value"
	"github.com/conduit-lang/filterkit/internal/orm/query"
	webquery "github.com/conduit-lang/filterkit/pkg/web/query"
)

// DefaultOrderParameterName is the query parameter read by OrderFilter
const DefaultOrderParameterName = "order"

// OrderFilter sorts a collection. Properties are read from the nested
// parameter order[property]=asc|desc and ordered in request order. Nested
// properties are joined with LEFT joins so that ordering never removes rows.
type OrderFilter struct {
	*filter.Base
	parameterName string
}

var _ Filter = (*OrderFilter)(nil)

// NewOrderFilter creates an OrderFilter. An empty parameterName selects
// DefaultOrderParameterName.
func NewOrderFilter(cfg filter.Config, parameterName string) (*OrderFilter, error) {
	base, err := filter.NewBase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create order filter: %w", err)
	}
	if parameterName == "" {
		parameterName = DefaultOrderParameterName
	}
	return &OrderFilter{Base: base, parameterName: parameterName}, nil
}

// ParameterName returns the query parameter holding the orderings
func (f *OrderFilter) ParameterName() string { return f.parameterName }

// Apply implements Filter
func (f *OrderFilter) Apply(qb *query.QueryBuilder, ctx filter.Context) {
	raw, ok := ctx.Filters.Get(f.parameterName)
	if !ok {
		return
	}

	order, ok := raw.(*webquery.Values)
	if !ok {
		f.Logger.Debug("order parameter is not a map")
		return
	}

	applyEach(f.Base, qb, order, f.filterProperty)
}

func (f *OrderFilter) filterProperty(property string, raw interface{}, cs *query.Changeset, resource string) error {
	if err := f.CheckProperty(property, resource, false); err != nil {
		return err
	}

	opts := f.Properties.Options(property)
	defaultDirection := ""
	if opts != nil {
		defaultDirection = opts.DefaultDirection
	}

	direction, err := value.Direction(raw, defaultDirection)
	if err != nil {
		return fmt.Errorf("%s: %w", property, err)
	}

	alias, field, err := target(f.Base, property, cs, resource, query.LeftJoin)
	if err != nil {
		return err
	}

	if opts != nil && opts.NullsComparison != "" {
		nullsDirection, err := filter.NullsDirection(opts.NullsComparison, direction)
		if err != nil {
			return err
		}

		rank := query.NullRankName(alias, field)
		cs.AddSelect(&query.Select{Alias: alias, Field: field, Name: rank, Hidden: true}).
			AddOrderBySelect(rank, nullsDirection)
	}

	cs.AddOrderBy(alias, field, direction)
	return nil
}

// Description implements filter.Filter
func (f *OrderFilter) Description(resource string) map[string]filter.Description {
	return f.OrderDescription(resource, f.parameterName)
}
