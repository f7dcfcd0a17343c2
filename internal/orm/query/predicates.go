package query

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/filterkit/internal/orm/schema"
)

// Operator represents a comparison operator
type Operator int

const (
	OpEqual Operator = iota
	OpGreaterThan
	OpGreaterThanOrEqual
	OpLessThan
	OpLessThanOrEqual
	OpIn
	OpBetween
)

// String returns the string representation of the operator
func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "="
	case OpGreaterThan:
		return ">"
	case OpGreaterThanOrEqual:
		return ">="
	case OpLessThan:
		return "<"
	case OpLessThanOrEqual:
		return "<="
	case OpIn:
		return "IN"
	case OpBetween:
		return "BETWEEN"
	default:
		return "UNKNOWN"
	}
}

// arity is the number of parameters the operator binds
func (o Operator) arity() int {
	if o == OpBetween {
		return 2
	}
	return 1
}

// Predicate is a comparison between a property reached through Alias and
// named parameters. Predicates on one builder are combined with AND.
type Predicate struct {
	Alias    string
	Field    string
	Operator Operator
	Params   []string
}

// Expr returns the qualified property, e.g. o.price
func (p *Predicate) Expr() string {
	return p.Alias + "." + p.Field
}

// String renders the predicate with named parameters:
//
//	o.price = :price_p1
//	o.price IN (:price_p1)
//	o.price BETWEEN :price_p1_1 AND :price_p1_2
func (p *Predicate) String() string {
	switch p.Operator {
	case OpIn:
		return fmt.Sprintf("%s IN (:%s)", p.Expr(), p.param(0))
	case OpBetween:
		return fmt.Sprintf("%s BETWEEN :%s AND :%s", p.Expr(), p.param(0), p.param(1))
	default:
		return fmt.Sprintf("%s %s :%s", p.Expr(), p.Operator, p.param(0))
	}
}

func (p *Predicate) param(i int) string {
	if i < len(p.Params) {
		return p.Params[i]
	}
	return "?"
}

// Parameter is a named bound value. Type is nil for untyped bindings.
type Parameter struct {
	Name  string
	Value interface{}
	Type  *schema.TypeSpec
}

// Select is a computed column ranking NULL values of Alias.Field before
// non-null ones. Hidden selects are only used for ordering.
type Select struct {
	Alias  string
	Field  string
	Name   string
	Hidden bool
}

// Expression returns the CASE expression without its alias
func (s *Select) Expression() string {
	return fmt.Sprintf("CASE WHEN %s.%s IS NULL THEN 0 ELSE 1 END", s.Alias, s.Field)
}

// String renders the select clause
func (s *Select) String() string {
	if s.Hidden {
		return fmt.Sprintf("%s AS HIDDEN %s", s.Expression(), s.Name)
	}
	return fmt.Sprintf("%s AS %s", s.Expression(), s.Name)
}

// NullRankName returns the result alias of the null-rank select for alias.field
func NullRankName(alias, field string) string {
	return strings.ReplaceAll(fmt.Sprintf("_%s_%s_null_rank", alias, field), ".", "_")
}

// OrderBy is one ORDER BY entry. It either orders by Alias.Field or, when
// Select is set, by the named computed column.
type OrderBy struct {
	Alias     string
	Field     string
	Select    string
	Direction string
}

// String renders the order-by entry
func (o *OrderBy) String() string {
	if o.Select != "" {
		return fmt.Sprintf("%s %s", o.Select, o.Direction)
	}
	return fmt.Sprintf("%s.%s %s", o.Alias, o.Field, o.Direction)
}

// predicateToSQL converts a predicate to SQL with positional parameters
func predicateToSQL(column string, pred *Predicate, params map[string]*Parameter, paramCounter *int, args *[]interface{}) (string, error) {
	if len(pred.Params) < pred.Operator.arity() {
		return "", fmt.Errorf("%s requires %d parameters, got %d", pred.Operator, pred.Operator.arity(), len(pred.Params))
	}

	values := make([]interface{}, len(pred.Params))
	for i, name := range pred.Params {
		param, ok := params[name]
		if !ok {
			return "", fmt.Errorf("parameter %s is not bound", name)
		}
		values[i] = param.Value
	}

	switch pred.Operator {
	case OpEqual, OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		*args = append(*args, values[0])
		sql := fmt.Sprintf("%s %s $%d", column, pred.Operator, *paramCounter)
		*paramCounter++
		return sql, nil

	case OpIn:
		list, ok := values[0].([]interface{})
		if !ok {
			list = []interface{}{values[0]}
		}
		if len(list) == 0 {
			// IN with empty array always returns false
			return "FALSE", nil
		}

		placeholders := make([]string, len(list))
		for i, v := range list {
			*args = append(*args, v)
			placeholders[i] = fmt.Sprintf("$%d", *paramCounter)
			*paramCounter++
		}
		return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")), nil

	case OpBetween:
		*args = append(*args, values[0], values[1])
		sql := fmt.Sprintf("%s BETWEEN $%d AND $%d", column, *paramCounter, *paramCounter+1)
		*paramCounter += 2
		return sql, nil

	default:
		return "", fmt.Errorf("unsupported operator: %v", pred.Operator)
	}
}
