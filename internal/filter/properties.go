package filter

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"

	"github.com/conduit-lang/filterkit/internal/filter/value"
)

// Null ordering policies
const (
	NullsSmallest    = "nulls_smallest"
	NullsLargest     = "nulls_largest"
	NullsAlwaysFirst = "nulls_always_first"
	NullsAlwaysLast  = "nulls_always_last"
)

// nullsDirections maps a policy and the requested direction to the direction
// of the null rank
var nullsDirections = map[string]map[string]string{
	NullsSmallest:    {value.DirectionAsc: value.DirectionAsc, value.DirectionDesc: value.DirectionDesc},
	NullsLargest:     {value.DirectionAsc: value.DirectionDesc, value.DirectionDesc: value.DirectionAsc},
	NullsAlwaysFirst: {value.DirectionAsc: value.DirectionAsc, value.DirectionDesc: value.DirectionAsc},
	NullsAlwaysLast:  {value.DirectionAsc: value.DirectionDesc, value.DirectionDesc: value.DirectionDesc},
}

// NullsDirection returns the direction to sort the null rank in
func NullsDirection(policy, direction string) (string, error) {
	directions, ok := nullsDirections[policy]
	if !ok {
		return "", fmt.Errorf("unknown nulls comparison %q", policy)
	}
	d, ok := directions[direction]
	if !ok {
		return "", fmt.Errorf("unknown direction %q", direction)
	}
	return d, nil
}

// PropertyOptions are the per-property settings of a filter
type PropertyOptions struct {
	DefaultDirection string `mapstructure:"default_direction"`
	NullsComparison  string `mapstructure:"nulls_comparison"`
}

// Properties is the allow-list of a filter. A nil map means every top-level
// property is allowed and nested ones are not. Values may be nil.
type Properties map[string]*PropertyOptions

// Names returns the property names in sorted order
func (p Properties) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options returns the options of property, or nil
func (p Properties) Options(property string) *PropertyOptions {
	if p == nil {
		return nil
	}
	return p[property]
}

// Validate checks the nulls comparison policies
func (p Properties) Validate() error {
	for _, name := range p.Names() {
		opts := p[name]
		if opts == nil || opts.NullsComparison == "" {
			continue
		}
		if _, ok := nullsDirections[opts.NullsComparison]; !ok {
			return fmt.Errorf("property %s: unknown nulls comparison %q", name, opts.NullsComparison)
		}
	}
	return nil
}

// ParseProperties converts loosely typed configuration into Properties. Each
// entry may be empty, a direction shorthand ("name: asc") or a map of
// options.
func ParseProperties(raw map[string]interface{}) (Properties, error) {
	if raw == nil {
		return nil, nil
	}

	props := make(Properties, len(raw))
	for name, v := range raw {
		switch opts := v.(type) {
		case nil:
			props[name] = nil
		case string:
			props[name] = &PropertyOptions{DefaultDirection: opts}
		default:
			var decoded PropertyOptions
			if err := mapstructure.Decode(opts, &decoded); err != nil {
				return nil, fmt.Errorf("property %s: %w", name, err)
			}
			props[name] = &decoded
		}
	}

	return props, nil
}
