package metrics

import (
	"maps"
	"slices"
)

// Kind distinguishes the two shapes a schema node can take.
type Kind int

const (
	// KindLeafSet is a set of terminal metric names.
	KindLeafSet Kind = iota
	// KindGroupMap maps group names to nested schema nodes.
	KindGroupMap
)

func (k Kind) String() string {
	switch k {
	case KindLeafSet:
		return "leaf set"
	case KindGroupMap:
		return "group map"
	default:
		return "unknown"
	}
}

// Schema describes the metric names a benchmark is expected to report.
// A Schema is immutable once built.
type Schema struct {
	kind   Kind
	leaves map[string]struct{}
	groups map[string]*Schema
}

// LeafSet returns a schema node expecting exactly the given metric names.
// Duplicate names collapse.
func LeafSet(names ...string) *Schema {
	s := &Schema{
		kind:   KindLeafSet,
		leaves: make(map[string]struct{}, len(names)),
	}

	for _, n := range names {
		s.leaves[n] = struct{}{}
	}

	return s
}

// GroupMap returns a schema node expecting one nested group per entry.
// A nil child is treated as an empty leaf set.
func GroupMap(groups map[string]*Schema) *Schema {
	s := &Schema{
		kind:   KindGroupMap,
		groups: make(map[string]*Schema, len(groups)),
	}

	for name, child := range groups {
		if child == nil {
			child = LeafSet()
		}

		s.groups[name] = child
	}

	return s
}

// Kind returns the node shape.
func (s *Schema) Kind() Kind {
	return s.kind
}

// Keys returns the key set expected at this node, sorted.
func (s *Schema) Keys() []string {
	if s.kind == KindGroupMap {
		return slices.Sorted(maps.Keys(s.groups))
	}

	return slices.Sorted(maps.Keys(s.leaves))
}

// Child returns the nested schema for a group. It always reports false for
// leaf sets.
func (s *Schema) Child(name string) (*Schema, bool) {
	if s.kind != KindGroupMap {
		return nil, false
	}

	child, ok := s.groups[name]

	return child, ok
}

func (s *Schema) has(key string) bool {
	if s.kind == KindGroupMap {
		_, ok := s.groups[key]
		return ok
	}

	_, ok := s.leaves[key]

	return ok
}
