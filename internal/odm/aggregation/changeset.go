package aggregation

import (
	"fmt"
	"strings"
)

// Changeset collects the stages and sort keys produced by one filter
// application. Nothing reaches the builder until it is passed to Builder.Apply.
type Changeset struct {
	base   *Builder
	stages []stage
	sort   []SortField
}

// Changeset starts an empty changeset against the current builder state
func (b *Builder) Changeset() *Changeset {
	return &Changeset{base: b}
}

// Resource returns the name of the queried resource
func (cs *Changeset) Resource() string {
	return cs.base.resource.Name
}

// Lookup adds a lookup unless one with the same alias exists, applied or
// pending. It returns the alias.
func (cs *Changeset) Lookup(from, localField, foreignField, as string) string {
	if cs.base.hasLookup(as) {
		return as
	}
	for _, s := range cs.stages {
		if s.lookup != nil && s.lookup.As == as {
			return as
		}
	}

	cs.stages = append(cs.stages, stage{lookup: &Lookup{
		From:         from,
		LocalField:   localField,
		ForeignField: foreignField,
		As:           as,
	}})
	return as
}

// Match adds a $match on field
func (cs *Changeset) Match(field string, condition interface{}) *Changeset {
	cs.stages = append(cs.stages, stage{match: &Match{Field: field, Condition: condition}})
	return cs
}

// Sort appends a key to the final $sort stage. direction is ASC or DESC.
func (cs *Changeset) Sort(field, direction string) *Changeset {
	order := 1
	if strings.EqualFold(direction, "DESC") {
		order = -1
	}
	cs.sort = append(cs.sort, SortField{Field: field, Order: order})
	return cs
}

// IsEmpty reports whether the changeset holds no additions
func (cs *Changeset) IsEmpty() bool {
	return len(cs.stages) == 0 && len(cs.sort) == 0
}

// Lookups returns the pending lookups
func (cs *Changeset) Lookups() []*Lookup {
	lookups := make([]*Lookup, 0)
	for _, s := range cs.stages {
		if s.lookup != nil {
			lookups = append(lookups, s.lookup)
		}
	}
	return lookups
}

// Matches returns the pending matches
func (cs *Changeset) Matches() []*Match {
	matches := make([]*Match, 0)
	for _, s := range cs.stages {
		if s.match != nil {
			matches = append(matches, s.match)
		}
	}
	return matches
}

// SortFields returns the pending sort keys
func (cs *Changeset) SortFields() []SortField { return cs.sort }

func (cs *Changeset) validate(b *Builder) error {
	if cs.base != b {
		return fmt.Errorf("changeset belongs to another builder")
	}

	for _, s := range cs.stages {
		if s.lookup != nil {
			if s.lookup.From == "" || s.lookup.LocalField == "" || s.lookup.ForeignField == "" || s.lookup.As == "" {
				return fmt.Errorf("incomplete lookup %+v", *s.lookup)
			}
			continue
		}
		if s.match.Field == "" {
			return fmt.Errorf("match without field")
		}
	}

	for _, f := range cs.sort {
		if f.Field == "" {
			return fmt.Errorf("sort without field")
		}
	}

	return nil
}
