package query

import (
	"fmt"

	"github.com/conduit-lang/filterkit/internal/orm/schema"
)

// Changeset collects the joins, predicates, parameters, selects and orderings
// produced by one filter application. Nothing reaches the builder until the
// changeset is passed to QueryBuilder.Apply.
type Changeset struct {
	base *QueryBuilder

	joins    []*Join
	wheres   []*Predicate
	params   []*Parameter
	selects  []*Select
	orderBys []*OrderBy
}

// Changeset starts an empty changeset against the current builder state
func (qb *QueryBuilder) Changeset() *Changeset {
	return &Changeset{base: qb}
}

// RootAlias returns the alias of the queried resource
func (cs *Changeset) RootAlias() string {
	return cs.base.rootAlias
}

// Resource returns the name of the queried resource
func (cs *Changeset) Resource() string {
	return cs.base.resource.Name
}

// Join returns the alias joining association onto parentAlias. An existing
// join, applied or pending, is reused. The join is LEFT when requested or when
// the query already contains a LEFT join.
func (cs *Changeset) Join(parentAlias, association string, joinType JoinType) string {
	if join := cs.findJoin(parentAlias, association); join != nil {
		return join.Alias
	}

	if joinType != LeftJoin && cs.hasLeftJoin() {
		joinType = LeftJoin
	}

	join := &Join{
		Type:        joinType,
		ParentAlias: parentAlias,
		Association: association,
		Alias:       cs.base.names.JoinAlias(association),
	}
	cs.joins = append(cs.joins, join)
	return join.Alias
}

// ParameterName generates a parameter name unique within the builder
func (cs *Changeset) ParameterName(field string) string {
	return cs.base.names.ParameterName(field)
}

// AndWhere adds a predicate on alias.field
func (cs *Changeset) AndWhere(alias, field string, op Operator, params ...string) *Changeset {
	cs.wheres = append(cs.wheres, &Predicate{
		Alias:    alias,
		Field:    field,
		Operator: op,
		Params:   params,
	})
	return cs
}

// SetParameter binds a value. typ may be nil for an untyped binding.
func (cs *Changeset) SetParameter(name string, value interface{}, typ *schema.TypeSpec) *Changeset {
	cs.params = append(cs.params, &Parameter{Name: name, Value: value, Type: typ})
	return cs
}

// AddSelect adds a computed column
func (cs *Changeset) AddSelect(sel *Select) *Changeset {
	cs.selects = append(cs.selects, sel)
	return cs
}

// AddOrderBy orders by alias.field
func (cs *Changeset) AddOrderBy(alias, field, direction string) *Changeset {
	cs.orderBys = append(cs.orderBys, &OrderBy{Alias: alias, Field: field, Direction: direction})
	return cs
}

// AddOrderBySelect orders by a computed column previously added with AddSelect
func (cs *Changeset) AddOrderBySelect(name, direction string) *Changeset {
	cs.orderBys = append(cs.orderBys, &OrderBy{Select: name, Direction: direction})
	return cs
}

// IsEmpty reports whether the changeset holds no additions
func (cs *Changeset) IsEmpty() bool {
	return len(cs.joins) == 0 &&
		len(cs.wheres) == 0 &&
		len(cs.params) == 0 &&
		len(cs.selects) == 0 &&
		len(cs.orderBys) == 0
}

// Joins returns the pending joins
func (cs *Changeset) Joins() []*Join { return cs.joins }

// Wheres returns the pending predicates
func (cs *Changeset) Wheres() []*Predicate { return cs.wheres }

// Parameters returns the pending parameters
func (cs *Changeset) Parameters() []*Parameter { return cs.params }

// Selects returns the pending selects
func (cs *Changeset) Selects() []*Select { return cs.selects }

// OrderBys returns the pending orderings
func (cs *Changeset) OrderBys() []*OrderBy { return cs.orderBys }

func (cs *Changeset) findJoin(parentAlias, association string) *Join {
	if join := cs.base.findJoin(parentAlias, association); join != nil {
		return join
	}
	for _, join := range cs.joins {
		if join.ParentAlias == parentAlias && join.Association == association {
			return join
		}
	}
	return nil
}

func (cs *Changeset) hasLeftJoin() bool {
	if cs.base.HasLeftJoin() {
		return true
	}
	for _, join := range cs.joins {
		if join.Type == LeftJoin {
			return true
		}
	}
	return false
}

// validate checks the changeset against the builder it will be applied to
func (cs *Changeset) validate(qb *QueryBuilder) error {
	if cs.base != qb {
		return fmt.Errorf("changeset belongs to another query builder")
	}

	aliases := map[string]bool{qb.rootAlias: true}
	for _, join := range qb.joins {
		aliases[join.Alias] = true
	}
	for _, join := range cs.joins {
		if !aliases[join.ParentAlias] {
			return fmt.Errorf("join %s: unknown parent alias %s", join.Alias, join.ParentAlias)
		}
		aliases[join.Alias] = true
	}

	bound := make(map[string]bool, len(qb.params)+len(cs.params))
	for _, p := range qb.params {
		bound[p.Name] = true
	}
	for _, p := range cs.params {
		if bound[p.Name] {
			return fmt.Errorf("parameter %s is already bound", p.Name)
		}
		bound[p.Name] = true
	}

	for _, pred := range cs.wheres {
		if !aliases[pred.Alias] {
			return fmt.Errorf("predicate %s: unknown alias %s", pred, pred.Alias)
		}
		for _, name := range pred.Params {
			if !bound[name] {
				return fmt.Errorf("predicate %s: parameter %s is not bound", pred, name)
			}
		}
	}

	for _, sel := range cs.selects {
		if !aliases[sel.Alias] {
			return fmt.Errorf("select %s: unknown alias %s", sel.Name, sel.Alias)
		}
	}

	selects := make(map[string]bool)
	for _, sel := range qb.selects {
		selects[sel.Name] = true
	}
	for _, sel := range cs.selects {
		selects[sel.Name] = true
	}
	for _, o := range cs.orderBys {
		if o.Select != "" {
			if !selects[o.Select] {
				return fmt.Errorf("order by unknown select %s", o.Select)
			}
			continue
		}
		if !aliases[o.Alias] {
			return fmt.Errorf("order by %s: unknown alias %s", o, o.Alias)
		}
	}

	return nil
}
