package query

import (
	"fmt"
	"strings"
)

// NameGenerator produces join aliases and parameter names unique within one
// query builder
type NameGenerator struct {
	joinCounter  int
	paramCounter int
}

// NewNameGenerator creates a generator whose counters start at 1
func NewNameGenerator() *NameGenerator {
	return &NameGenerator{joinCounter: 1, paramCounter: 1}
}

// JoinAlias returns <association>_a<n>
func (g *NameGenerator) JoinAlias(association string) string {
	alias := fmt.Sprintf("%s_a%d", association, g.joinCounter)
	g.joinCounter++
	return alias
}

// ParameterName returns <name>_p<n> with dots replaced by underscores
func (g *NameGenerator) ParameterName(name string) string {
	param := fmt.Sprintf("%s_p%d", strings.ReplaceAll(name, ".", "_"), g.paramCounter)
	g.paramCounter++
	return param
}

func (g *NameGenerator) clone() *NameGenerator {
	c := *g
	return &c
}
