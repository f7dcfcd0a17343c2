// Package query builds SQL for one resource from joins, predicates, named
// parameters and orderings, and executes it over database/sql.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/conduit-lang/filterkit/internal/orm/schema"
)

// DefaultRootAlias is the alias of the queried resource
const DefaultRootAlias = "o"

// JoinType represents the type of SQL join
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
)

// String returns the string representation of the join type
func (j JoinType) String() string {
	switch j {
	case LeftJoin:
		return "LEFT"
	default:
		return "INNER"
	}
}

// Join joins the target of Association, declared on the resource behind
// ParentAlias, under Alias
type Join struct {
	Type        JoinType
	ParentAlias string
	Association string
	Alias       string
}

// String renders the join, e.g. LEFT JOIN o.relatedDummy relatedDummy_a1
func (j *Join) String() string {
	return fmt.Sprintf("%s JOIN %s.%s %s", j.Type, j.ParentAlias, j.Association, j.Alias)
}

// QueryBuilder accumulates the query for one request
type QueryBuilder struct {
	resource  *schema.ResourceSchema
	factory   schema.MetadataFactory
	db        *sql.DB
	rootAlias string
	names     *NameGenerator

	joins    []*Join
	wheres   []*Predicate
	params   []*Parameter
	selects  []*Select
	orderBys []*OrderBy
	limit    *int
}

// NewQueryBuilder creates a new query builder for the given resource. factory
// resolves joined and embedded resources; db may be nil when the query is only
// rendered.
func NewQueryBuilder(resource *schema.ResourceSchema, factory schema.MetadataFactory, db *sql.DB) *QueryBuilder {
	return &QueryBuilder{
		resource:  resource,
		factory:   factory,
		db:        db,
		rootAlias: DefaultRootAlias,
		names:     NewNameGenerator(),
		joins:     make([]*Join, 0),
		wheres:    make([]*Predicate, 0),
		params:    make([]*Parameter, 0),
		selects:   make([]*Select, 0),
		orderBys:  make([]*OrderBy, 0),
	}
}

// WithRootAlias changes the alias of the queried resource
func (qb *QueryBuilder) WithRootAlias(alias string) *QueryBuilder {
	qb.rootAlias = alias
	return qb
}

// Resource returns the queried resource
func (qb *QueryBuilder) Resource() *schema.ResourceSchema { return qb.resource }

// RootAlias returns the alias of the queried resource
func (qb *QueryBuilder) RootAlias() string { return qb.rootAlias }

// Joins returns the applied joins in order
func (qb *QueryBuilder) Joins() []*Join { return qb.joins }

// Wheres returns the applied predicates in order
func (qb *QueryBuilder) Wheres() []*Predicate { return qb.wheres }

// Parameters returns the bound parameters in order
func (qb *QueryBuilder) Parameters() []*Parameter { return qb.params }

// Selects returns the computed columns in order
func (qb *QueryBuilder) Selects() []*Select { return qb.selects }

// OrderBys returns the orderings in order
func (qb *QueryBuilder) OrderBys() []*OrderBy { return qb.orderBys }

// Parameter returns the parameter bound under name
func (qb *QueryBuilder) Parameter(name string) (*Parameter, bool) {
	for _, p := range qb.params {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// HasLeftJoin reports whether any applied join is a LEFT join
func (qb *QueryBuilder) HasLeftJoin() bool {
	for _, join := range qb.joins {
		if join.Type == LeftJoin {
			return true
		}
	}
	return false
}

func (qb *QueryBuilder) findJoin(parentAlias, association string) *Join {
	for _, join := range qb.joins {
		if join.ParentAlias == parentAlias && join.Association == association {
			return join
		}
	}
	return nil
}

// Apply validates a changeset and appends its content. Nothing is applied
// when validation fails.
func (qb *QueryBuilder) Apply(cs *Changeset) error {
	if err := cs.validate(qb); err != nil {
		return fmt.Errorf("failed to apply changeset: %w", err)
	}

	qb.joins = append(qb.joins, cs.joins...)
	qb.wheres = append(qb.wheres, cs.wheres...)
	qb.params = append(qb.params, cs.params...)
	qb.selects = append(qb.selects, cs.selects...)
	qb.orderBys = append(qb.orderBys, cs.orderBys...)
	return nil
}

// Limit sets the LIMIT clause
func (qb *QueryBuilder) Limit(n int) *QueryBuilder {
	qb.limit = &n
	return qb
}

// DQL renders the query in terms of resources and properties with named
// parameters. It is meant for debugging and tests.
func (qb *QueryBuilder) DQL() string {
	var b strings.Builder

	b.WriteString("SELECT ")
	b.WriteString(qb.rootAlias)
	for _, sel := range qb.selects {
		b.WriteString(", ")
		b.WriteString(sel.String())
	}
	b.WriteString(fmt.Sprintf(" FROM %s %s", qb.resource.Name, qb.rootAlias))

	for _, join := range qb.joins {
		b.WriteString(" ")
		b.WriteString(join.String())
	}

	if len(qb.wheres) > 0 {
		parts := make([]string, len(qb.wheres))
		for i, pred := range qb.wheres {
			parts[i] = pred.String()
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(parts, " AND "))
	}

	if len(qb.orderBys) > 0 {
		parts := make([]string, len(qb.orderBys))
		for i, o := range qb.orderBys {
			parts[i] = o.String()
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}

	return b.String()
}

// ToSQL generates the SQL query and parameter bindings
func (qb *QueryBuilder) ToSQL() (string, []interface{}, error) {
	return newRenderer(qb).render(false)
}

// CountSQL generates a COUNT(*) query over the same joins and predicates
func (qb *QueryBuilder) CountSQL() (string, []interface{}, error) {
	return newRenderer(qb).render(true)
}

// All executes the query and returns all matching rows
func (qb *QueryBuilder) All(ctx context.Context) ([]map[string]interface{}, error) {
	if qb.db == nil {
		return nil, fmt.Errorf("no database configured")
	}

	sqlStr, args, err := qb.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SQL: %w", err)
	}

	rows, err := qb.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	results, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan rows: %w", err)
	}

	return results, nil
}

// Count executes the query and returns the count
func (qb *QueryBuilder) Count(ctx context.Context) (int, error) {
	if qb.db == nil {
		return 0, fmt.Errorf("no database configured")
	}

	sqlStr, args, err := qb.CountSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to generate SQL: %w", err)
	}

	var count int
	err = qb.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to execute count query: %w", err)
	}

	return count, nil
}

// Clone creates a copy of the query builder
func (qb *QueryBuilder) Clone() *QueryBuilder {
	clone := &QueryBuilder{
		resource:  qb.resource,
		factory:   qb.factory,
		db:        qb.db,
		rootAlias: qb.rootAlias,
		names:     qb.names.clone(),
		joins:     make([]*Join, len(qb.joins)),
		wheres:    make([]*Predicate, len(qb.wheres)),
		params:    make([]*Parameter, len(qb.params)),
		selects:   make([]*Select, len(qb.selects)),
		orderBys:  make([]*OrderBy, len(qb.orderBys)),
	}

	copy(clone.joins, qb.joins)
	copy(clone.wheres, qb.wheres)
	copy(clone.params, qb.params)
	copy(clone.selects, qb.selects)
	copy(clone.orderBys, qb.orderBys)

	if qb.limit != nil {
		limit := *qb.limit
		clone.limit = &limit
	}

	return clone
}

// scanRows scans SQL rows into a slice of maps
func scanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		record := make(map[string]interface{})
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
				continue
			}
			record[col] = values[i]
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
