package job

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestArgList(t *testing.T) {
	t.Run("token list passes through", func(t *testing.T) {
		tokens := []string{"--output-format=json", "a"}
		assert.Equal(t, tokens, ArgList(TokenList(tokens...)))
	})

	t.Run("flag map", func(t *testing.T) {
		spec := FlagMap(
			Flag{Name: "output-format", Value: "json"},
			Flag{Name: "file"},
		)
		assert.Equal(t,
			[]string{"--output-format", "json", "--file"},
			ArgList(spec),
		)
	})

	t.Run("flag order preserved", func(t *testing.T) {
		spec := FlagMap(
			Flag{Name: "z"},
			Flag{Name: "a", Value: "1"},
			Flag{Name: "m"},
		)
		assert.Equal(t, []string{"--z", "--a", "1", "--m"}, ArgList(spec))
	})

	t.Run("zero value is empty", func(t *testing.T) {
		assert.Empty(t, ArgList(ArgSpec{}))
	})

	t.Run("result is a copy", func(t *testing.T) {
		spec := TokenList("a", "b")
		out := ArgList(spec)
		out[0] = "mutated"
		assert.Equal(t, []string{"a", "b"}, ArgList(spec))
	})
}

func TestArgSpecUnmarshalYAML(t *testing.T) {
	decode := func(t *testing.T, src string) (ArgSpec, error) {
		t.Helper()

		var v struct {
			Args ArgSpec `yaml:"args"`
		}
		err := yaml.Unmarshal([]byte(src), &v)

		return v.Args, err
	}

	t.Run("sequence", func(t *testing.T) {
		spec, err := decode(t, `args: ["--output-format=json", "a"]`)
		require.NoError(t, err)
		assert.Equal(t, TokenListKind, spec.Kind())
		assert.Equal(t, []string{"--output-format=json", "a"}, ArgList(spec))
	})

	t.Run("mapping keeps declaration order", func(t *testing.T) {
		spec, err := decode(t, `
args:
  output-format: json
  file: null
  threads: 4
  quiet: ""
`)
		require.NoError(t, err)
		assert.Equal(t, FlagMapKind, spec.Kind())
		assert.Equal(t,
			[]string{"--output-format", "json", "--file", "--threads", "4", "--quiet"},
			ArgList(spec),
		)
	})

	t.Run("tilde is null", func(t *testing.T) {
		spec, err := decode(t, "args:\n  verbose: ~\n")
		require.NoError(t, err)
		assert.Equal(t, []string{"--verbose"}, ArgList(spec))
	})

	t.Run("missing args", func(t *testing.T) {
		spec, err := decode(t, "other: 1\n")
		require.NoError(t, err)
		assert.Empty(t, ArgList(spec))
	})

	malformed := map[string]string{
		"scalar":          `args: "--flag"`,
		"nested sequence": `args: [[a, b]]`,
		"nested mapping":  "args:\n  flag:\n    inner: 1\n",
		"list value":      "args:\n  flag: [1, 2]\n",
		"duplicate flag":  "args: {threads: 1, threads: 8}",
	}

	for name, src := range malformed {
		t.Run(name, func(t *testing.T) {
			_, err := decode(t, src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedArgSpec), "got %v", err)
		})
	}
}
