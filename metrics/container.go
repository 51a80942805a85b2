// Package metrics holds benchmark result metrics and the schema they are
// checked against.
package metrics

import (
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"slices"
)

// Container is a read-only, arbitrarily nested set of metrics. Each key maps
// either to a numeric value or to another Container.
type Container struct {
	values map[string]float64
	groups map[string]*Container
}

// New builds a Container from a raw nested mapping, as decoded from
// benchmark output. Leaves must be numeric and inner nodes must be
// map[string]any.
func New(raw map[string]any) (*Container, error) {
	return build("", raw)
}

// NewFor builds a Container holding only the keys of raw that the schema
// names, recursively. Undeclared keys are skipped before their values are
// looked at, so they may hold anything.
func NewFor(s *Schema, raw map[string]any) (*Container, error) {
	return buildFor("", s, raw)
}

func buildFor(prefix string, s *Schema, raw map[string]any) (*Container, error) {
	c := empty()

	for key, v := range raw {
		if !s.has(key) {
			continue
		}

		path := join(prefix, key)

		if sub, ok := v.(map[string]any); ok {
			var (
				child *Container
				err   error
			)

			if cs, nested := s.Child(key); nested {
				child, err = buildFor(path, cs, sub)
			} else {
				child, err = build(path, sub)
			}

			if err != nil {
				return nil, err
			}

			c.groups[key] = child

			continue
		}

		num, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("metric %q: %w", path, err)
		}

		c.values[key] = num
	}

	return c, nil
}

func build(prefix string, raw map[string]any) (*Container, error) {
	c := empty()

	for key, v := range raw {
		path := join(prefix, key)

		if sub, ok := v.(map[string]any); ok {
			child, err := build(path, sub)
			if err != nil {
				return nil, err
			}

			c.groups[key] = child

			continue
		}

		num, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("metric %q: %w", path, err)
		}

		c.values[key] = num
	}

	return c, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}

func empty() *Container {
	return &Container{
		values: make(map[string]float64),
		groups: make(map[string]*Container),
	}
}

// Len returns the number of keys at the top level.
func (c *Container) Len() int {
	if c == nil {
		return 0
	}

	return len(c.values) + len(c.groups)
}

// Keys returns the top-level keys in sorted order.
func (c *Container) Keys() []string {
	if c == nil {
		return nil
	}

	keys := make([]string, 0, c.Len())
	keys = slices.AppendSeq(keys, maps.Keys(c.values))
	keys = slices.AppendSeq(keys, maps.Keys(c.groups))
	slices.Sort(keys)

	return keys
}

// Has reports whether key is present at the top level.
func (c *Container) Has(key string) bool {
	if c == nil {
		return false
	}

	_, isValue := c.values[key]
	_, isGroup := c.groups[key]

	return isValue || isGroup
}

// Value returns the numeric metric stored under key.
func (c *Container) Value(key string) (float64, bool) {
	if c == nil {
		return 0, false
	}

	v, ok := c.values[key]

	return v, ok
}

// Group returns the nested container stored under key.
func (c *Container) Group(key string) (*Container, bool) {
	if c == nil {
		return nil, false
	}

	g, ok := c.groups[key]

	return g, ok
}

// Flatten yields every numeric metric with its dot-qualified name, depth
// first in key order. The sequence can be iterated any number of times.
func (c *Container) Flatten() iter.Seq2[string, float64] {
	return func(yield func(string, float64) bool) {
		c.walk("", yield)
	}
}

func (c *Container) walk(prefix string, yield func(string, float64) bool) bool {
	for _, key := range c.Keys() {
		path := join(prefix, key)

		if g, ok := c.groups[key]; ok {
			if !g.walk(path, yield) {
				return false
			}

			continue
		}

		if !yield(path, c.values[key]) {
			return false
		}
	}

	return true
}

// Map returns an independent nested copy of the container.
func (c *Container) Map() map[string]any {
	out := make(map[string]any, c.Len())
	if c == nil {
		return out
	}

	for k, v := range c.values {
		out[k] = v
	}

	for k, g := range c.groups {
		out[k] = g.Map()
	}

	return out
}

// MarshalJSON encodes the container as a nested JSON object.
func (c *Container) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}

// Equal reports whether both containers hold the same keys and values at
// every level.
func (c *Container) Equal(other *Container) bool {
	if c.Len() != other.Len() {
		return false
	}

	if c.Len() == 0 {
		return true
	}

	for k, v := range c.values {
		ov, ok := other.values[k]
		if !ok || ov != v {
			return false
		}
	}

	for k, g := range c.groups {
		og, ok := other.groups[k]
		if !ok || !g.Equal(og) {
			return false
		}
	}

	return true
}

func (c *Container) clone() *Container {
	out := empty()
	if c == nil {
		return out
	}

	maps.Copy(out.values, c.values)

	for k, g := range c.groups {
		out.groups[k] = g.clone()
	}

	return out
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}

	return prefix + "." + key
}
