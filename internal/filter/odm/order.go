package odm

import (
	"fmt"

	"github.com/conduit-lang/filterkit/internal/filter"
	"github.com/conduit-lang/filterkit/internal/filter/value"
	"github.com/conduit-lang/filterkit/internal/odm/aggregation"
	webquery "github.com/conduit-lang/filterkit/pkg/web/query"
)

// DefaultOrderParameterName is the query parameter read by OrderFilter
const DefaultOrderParameterName = "order"

// OrderFilter sorts documents. Sort keys accumulate on the builder and are
// emitted as one $sort stage in request order. MongoDB already sorts null
// before any value, so nulls_comparison has no effect here.
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
func (f *OrderFilter) Apply(b *aggregation.Builder, ctx filter.Context) {
	raw, ok := ctx.Filters.Get(f.parameterName)
	if !ok {
		return
	}

	order, ok := raw.(*webquery.Values)
	if !ok {
		f.Logger.Debug("order parameter is not a map")
		return
	}

	applyEach(f.Base, b, order, f.filterProperty)
}

func (f *OrderFilter) filterProperty(property string, raw interface{}, cs *aggregation.Changeset, resource string) error {
	if err := f.CheckProperty(property, resource, false); err != nil {
		return err
	}

	defaultDirection := ""
	if opts := f.Properties.Options(property); opts != nil {
		defaultDirection = opts.DefaultDirection
	}

	direction, err := value.Direction(raw, defaultDirection)
	if err != nil {
		return fmt.Errorf("%s: %w", property, err)
	}

	field, err := matchField(f.Base, property, cs, resource)
	if err != nil {
		return err
	}

	cs.Sort(field, direction)
	return nil
}

// Description implements filter.Filter
func (f *OrderFilter) Description(resource string) map[string]filter.Description {
	return f.OrderDescription(resource, f.parameterName)
}
