package job

import (
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// ErrMalformedArgSpec is returned when args are neither a list of tokens
// nor a flag to value mapping.
var ErrMalformedArgSpec = errors.New("malformed args")

// ArgKind distinguishes the two accepted argument shapes.
type ArgKind int

const (
	// TokenListKind holds pre-formatted tokens passed through as is.
	TokenListKind ArgKind = iota
	// FlagMapKind holds flags rendered as --name [value].
	FlagMapKind
)

// Flag is one entry of a flag map. An empty Value renders the flag alone.
type Flag struct {
	Name  string
	Value string
}

// ArgSpec is the declared command line of a benchmark. The zero value is an
// empty token list.
type ArgSpec struct {
	kind   ArgKind
	tokens []string
	flags  []Flag
}

// TokenList returns an ArgSpec that passes tokens through unchanged.
func TokenList(tokens ...string) ArgSpec {
	return ArgSpec{kind: TokenListKind, tokens: slices.Clone(tokens)}
}

// FlagMap returns an ArgSpec rendering flags in the given order.
func FlagMap(flags ...Flag) ArgSpec {
	return ArgSpec{kind: FlagMapKind, flags: slices.Clone(flags)}
}

// Kind returns the shape of the spec.
func (a ArgSpec) Kind() ArgKind {
	return a.kind
}

// ArgList turns an ArgSpec into the tokens handed to the benchmark process.
// Flag values are emitted as separate tokens, never joined with "=".
func ArgList(spec ArgSpec) []string {
	if spec.kind == TokenListKind {
		return slices.Clone(spec.tokens)
	}

	out := make([]string, 0, 2*len(spec.flags))

	for _, f := range spec.flags {
		out = append(out, "--"+f.Name)
		if f.Value != "" {
			out = append(out, f.Value)
		}
	}

	return out
}

// UnmarshalYAML accepts a sequence of scalars or a mapping of scalars.
// Mapping order is preserved and null values mean "no value".
func (a *ArgSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		tokens := make([]string, 0, len(node.Content))

		for i, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("%w: line %d: token %d is not a scalar",
					ErrMalformedArgSpec, item.Line, i)
			}

			tokens = append(tokens, item.Value)
		}

		*a = ArgSpec{kind: TokenListKind, tokens: tokens}

		return nil

	case yaml.MappingNode:
		flags := make([]Flag, 0, len(node.Content)/2)
		seen := make(map[string]struct{}, len(node.Content)/2)

		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]

			if key.Kind != yaml.ScalarNode || val.Kind != yaml.ScalarNode {
				return fmt.Errorf("%w: line %d: flag %q must map to a scalar",
					ErrMalformedArgSpec, key.Line, key.Value)
			}

			if _, dup := seen[key.Value]; dup {
				return fmt.Errorf("%w: line %d: duplicate flag %q",
					ErrMalformedArgSpec, key.Line, key.Value)
			}

			seen[key.Value] = struct{}{}

			f := Flag{Name: key.Value}
			if val.Tag != "!!null" {
				f.Value = val.Value
			}

			flags = append(flags, f)
		}

		*a = ArgSpec{kind: FlagMapKind, flags: flags}

		return nil

	default:
		return fmt.Errorf("%w: line %d: expected a list or a mapping",
			ErrMalformedArgSpec, node.Line)
	}
}
