package metrics

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrSchemaMismatch is matched by every *SchemaMismatchError.
var ErrSchemaMismatch = errors.New("metrics do not match schema")

// SchemaMismatchError reports the first level at which a container's keys
// differ from the schema. Path is dot-qualified; the root is "".
type SchemaMismatchError struct {
	Path     string
	Expected []string
	Actual   []string
}

func (e *SchemaMismatchError) Error() string {
	path := e.Path
	if path == "" {
		path = "<root>"
	}

	return fmt.Sprintf("%s at %s: expected keys [%s], got [%s]",
		ErrSchemaMismatch, path,
		strings.Join(e.Expected, ", "),
		strings.Join(e.Actual, ", "),
	)
}

// Is lets errors.Is match ErrSchemaMismatch.
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// Validate checks that c has exactly the keys the schema expects at every
// level. Extra keys are as much a mismatch as missing ones.
func Validate(s *Schema, c *Container) error {
	return validate("", s, c)
}

func validate(path string, s *Schema, c *Container) error {
	expected := s.Keys()
	actual := c.Keys()

	if !slices.Equal(expected, actual) {
		return &SchemaMismatchError{
			Path:     path,
			Expected: expected,
			Actual:   actual,
		}
	}

	if s.kind == KindLeafSet {
		return nil
	}

	for _, name := range expected {
		childPath := join(path, name)

		group, ok := c.Group(name)
		if !ok {
			// A bare value where a group is expected has no keys.
			return &SchemaMismatchError{
				Path:     childPath,
				Expected: s.groups[name].Keys(),
				Actual:   []string{},
			}
		}

		if err := validate(childPath, s.groups[name], group); err != nil {
			return err
		}
	}

	return nil
}

// Strip returns a new container holding only the keys of c that the schema
// names, recursively. Keys missing from c stay missing.
func Strip(s *Schema, c *Container) *Container {
	out := empty()
	if c == nil {
		return out
	}

	for k, v := range c.values {
		if s.has(k) {
			out.values[k] = v
		}
	}

	for k, g := range c.groups {
		if !s.has(k) {
			continue
		}

		if child, ok := s.Child(k); ok {
			out.groups[k] = Strip(child, g)
			continue
		}

		out.groups[k] = g.clone()
	}

	return out
}
