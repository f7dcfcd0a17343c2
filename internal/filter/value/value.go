// Package value coerces raw query values into the typed values the filters
// bind. Every function is pure: the same input gives the same result or the
// same error.
package value

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/conduit-lang/filterkit/internal/orm/schema"
	webquery "github.com/conduit-lang/filterkit/pkg/web/query"
)

var (
	// ErrInvalidValue is returned for values that do not parse
	ErrInvalidValue = errors.New("invalid value")

	// ErrInvalidDirection is returned for order directions other than asc or desc
	ErrInvalidDirection = errors.New("invalid direction")

	// ErrInvalidRange is returned for malformed between ranges
	ErrInvalidRange = errors.New("invalid range")

	// ErrNoOperator is returned when a range value carries no known operator
	ErrNoOperator = errors.New("no valid operator")
)

// Order directions
const (
	DirectionAsc  = "ASC"
	DirectionDesc = "DESC"
)

// Range operators
const (
	OperatorBetween            = "between"
	OperatorGreaterThan        = "gt"
	OperatorGreaterThanOrEqual = "gte"
	OperatorLessThan           = "lt"
	OperatorLessThanOrEqual    = "lte"
)

// rangeOperators lists the accepted range operators in the order they are
// documented
var rangeOperators = []string{
	OperatorBetween,
	OperatorGreaterThan,
	OperatorGreaterThanOrEqual,
	OperatorLessThan,
	OperatorLessThanOrEqual,
}

// numberSyntax is plain decimal notation: optional sign, digits with an
// optional fraction and exponent. No NaN, Inf, hex or underscores.
var numberSyntax = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?$`)

// indexSyntax matches the keys of an indexed list, price[0]=1&price[1]=2
var indexSyntax = regexp.MustCompile(`^[0-9]+$`)

// Operators returns the accepted range operators
func Operators() []string {
	out := make([]string, len(rangeOperators))
	copy(out, rangeOperators)
	return out
}

// Numeric parses a scalar or a list of strings according to the numeric
// subtype of ft: int64 for integers, float64 for floats and decimal.Decimal
// for decimals. A nil ft accepts any number. One bad element rejects the
// whole value. Index-keyed values (price[0]=1) count as a list.
func Numeric(raw interface{}, ft *schema.TypeSpec) ([]interface{}, error) {
	var items []string
	switch v := raw.(type) {
	case string:
		items = []string{v}
	case []string:
		items = v
	case *webquery.Values:
		list, ok := indexedList(v)
		if !ok {
			return nil, fmt.Errorf("%w: expected a number or a list of numbers, got operators", ErrInvalidValue)
		}
		items = list
	default:
		return nil, fmt.Errorf("%w: expected a number or a list of numbers, got %T", ErrInvalidValue, raw)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty list", ErrInvalidValue)
	}

	values := make([]interface{}, 0, len(items))
	for _, item := range items {
		v, err := parseNumeric(item, ft)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	return values, nil
}

// indexedList returns the values of v in order when every key is a list
// index
func indexedList(v *webquery.Values) ([]string, bool) {
	if v.Len() == 0 {
		return nil, false
	}

	items := make([]string, 0, v.Len())
	ok := true
	v.Range(func(key string, item interface{}) bool {
		s, isString := item.(string)
		if !isString || !indexSyntax.MatchString(key) {
			ok = false
			return false
		}
		items = append(items, s)
		return true
	})
	return items, ok
}

func parseNumeric(s string, ft *schema.TypeSpec) (interface{}, error) {
	s = strings.TrimSpace(s)

	if ft == nil {
		return Number(s)
	}
	if !numberSyntax.MatchString(s) {
		return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, s)
	}

	switch {
	case ft.IsInteger():
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, s)
		}
		return n, nil

	case ft.BaseType == schema.TypeFloat:
		return parseFloat(s)

	case ft.BaseType == schema.TypeDecimal:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a decimal", ErrInvalidValue, s)
		}
		return d, nil

	default:
		return nil, fmt.Errorf("%w: %s is not a numeric type", ErrInvalidValue, ft)
	}
}

// Number parses s as int64 when it has integer syntax, else as float64
func Number(s string) (interface{}, error) {
	s = strings.TrimSpace(s)
	if !numberSyntax.MatchString(s) {
		return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, s)
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	return parseFloat(s)
}

// parseFloat rejects values that overflow to infinity
func parseFloat(s string) (interface{}, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %q is not a finite number", ErrInvalidValue, s)
	}
	return f, nil
}

// Direction normalizes an order direction. An empty value falls back to
// defaultDirection.
func Direction(raw interface{}, defaultDirection string) (string, error) {
	var direction string
	switch v := raw.(type) {
	case nil:
	case string:
		direction = v
	default:
		return "", fmt.Errorf("%w: expected a string, got %T", ErrInvalidDirection, raw)
	}

	if direction == "" {
		direction = defaultDirection
	}

	direction = strings.ToUpper(strings.TrimSpace(direction))
	if direction != DirectionAsc && direction != DirectionDesc {
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}
	return direction, nil
}

// RangeOperators keeps the known operators of a range value, in request
// order
func RangeOperators(raw interface{}) (*webquery.Values, error) {
	values, ok := raw.(*webquery.Values)
	if !ok {
		return nil, fmt.Errorf("%w: expected operators, got %T", ErrNoOperator, raw)
	}

	kept := webquery.NewValues()
	values.Range(func(key string, v interface{}) bool {
		if isRangeOperator(key) {
			kept.Set(key, v)
		}
		return true
	})

	if kept.Len() == 0 {
		return nil, fmt.Errorf("%w: expected one of %s", ErrNoOperator, strings.Join(rangeOperators, ", "))
	}
	return kept, nil
}

func isRangeOperator(op string) bool {
	for _, known := range rangeOperators {
		if op == known {
			return true
		}
	}
	return false
}

// Between splits "a..b" into two numbers
func Between(raw string) ([2]interface{}, error) {
	var bounds [2]interface{}

	parts := strings.Split(raw, "..")
	if len(parts) != 2 {
		return bounds, fmt.Errorf("%w: %q must have exactly two bounds", ErrInvalidRange, raw)
	}

	for i, part := range parts {
		n, err := Number(part)
		if err != nil {
			return bounds, fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}
		bounds[i] = n
	}

	return bounds, nil
}

// Bound is one accepted range operator with its normalized values: two for
// between, one otherwise
type Bound struct {
	Operator string
	Values   []interface{}
}

// Bounds normalizes every operator of a range value. Rejected operators are
// reported in errs and left out of the result.
func Bounds(operators *webquery.Values) ([]Bound, []error) {
	var bounds []Bound
	var errs []error

	operators.Range(func(op string, raw interface{}) bool {
		s, ok := raw.(string)
		if !ok {
			errs = append(errs, fmt.Errorf("%s: %w: expected a string, got %T", op, ErrInvalidValue, raw))
			return true
		}

		if op == OperatorBetween {
			between, err := Between(s)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", op, err))
				return true
			}
			bounds = append(bounds, Bound{Operator: op, Values: between[:]})
			return true
		}

		n, err := Number(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", op, err))
			return true
		}
		bounds = append(bounds, Bound{Operator: op, Values: []interface{}{n}})
		return true
	})

	return bounds, errs
}
