package schema

import (
	"sort"
)

// AssociationGraph is the directed graph of associations between resources.
// Associations may form cycles, so traversals are depth limited.
type AssociationGraph struct {
	factory MetadataFactory
}

// NewAssociationGraph creates a graph over the resources of factory
func NewAssociationGraph(factory MetadataFactory) *AssociationGraph {
	return &AssociationGraph{factory: factory}
}

// GetDependencies returns the sorted targets of every association of resource
func (g *AssociationGraph) GetDependencies(resource string) []string {
	meta, err := g.factory.Metadata(resource)
	if err != nil {
		return []string{}
	}

	seen := make(map[string]bool)
	deps := []string{}
	for _, name := range sortedKeys(meta.Relationships) {
		target := meta.Relationships[name].TargetResource
		if !seen[target] {
			seen[target] = true
			deps = append(deps, target)
		}
	}
	sort.Strings(deps)
	return deps
}

// PropertyPaths lists the dotted property paths reachable from resource,
// crossing at most maxDepth associations or embeddables. Leaf paths end in a
// field. The result is sorted.
func (g *AssociationGraph) PropertyPaths(resource string, maxDepth int) []string {
	var paths []string

	var walk func(resource, prefix string, depth int)
	walk = func(resource, prefix string, depth int) {
		meta, err := g.factory.Metadata(resource)
		if err != nil {
			return
		}

		for _, name := range sortedKeys(meta.Fields) {
			paths = append(paths, prefix+name)
		}

		if depth >= maxDepth {
			return
		}

		for _, name := range sortedKeys(meta.Relationships) {
			walk(meta.Relationships[name].TargetResource, prefix+name+".", depth+1)
		}
		for _, name := range sortedKeys(meta.Embedded) {
			walk(meta.Embedded[name].TargetResource, prefix+name+".", depth+1)
		}
	}

	walk(resource, "", 0)
	sort.Strings(paths)
	return paths
}
