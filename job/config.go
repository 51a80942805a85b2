package job

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/weiihann/benchpress/metrics"
)

var configValidate *validator.Validate

func init() {
	configValidate = validator.New(validator.WithRequiredStructEnabled())
	configValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}

		return name
	})
}

// Config is the declarative definition of one benchmark job.
type Config struct {
	Name        string        `yaml:"name" validate:"required"`
	Description string        `yaml:"description"`
	Binary      string        `yaml:"binary" validate:"required"`
	Args        ArgSpec       `yaml:"args"`
	Metrics     *MetricsSpec  `yaml:"metrics" validate:"required"`
	Env         []string      `yaml:"env" validate:"dive,contains=="`
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
}

// Validate reports missing or invalid fields as *ConfigError values.
func (c Config) Validate() error {
	err := configValidate.Struct(c)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		errs := make([]error, 0, len(verrs))
		for _, fe := range verrs {
			errs = append(errs, &ConfigError{
				Job:    c.Name,
				Field:  fe.Field(),
				Reason: reason(fe),
			})
		}

		return errors.Join(errs...)
	}

	if err != nil {
		return fmt.Errorf("validate job %q: %w", c.Name, err)
	}

	if len(c.Metrics.Schema().Keys()) == 0 {
		return &ConfigError{
			Job:    c.Name,
			Field:  "metrics",
			Reason: "must name at least one metric",
		}
	}

	return nil
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "contains":
		return fmt.Sprintf("%q is not KEY=VALUE", fe.Value())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// MetricsSpec wraps the schema declared under a job's metrics key.
type MetricsSpec struct {
	schema *metrics.Schema
}

// NewMetricsSpec wraps an already built schema.
func NewMetricsSpec(s *metrics.Schema) *MetricsSpec {
	return &MetricsSpec{schema: s}
}

// Schema returns the declared schema. A nil spec yields an empty leaf set.
func (m *MetricsSpec) Schema() *metrics.Schema {
	if m == nil || m.schema == nil {
		return metrics.LeafSet()
	}

	return m.schema
}

// UnmarshalYAML accepts a list of names or a mapping of group name to a
// nested list or mapping.
func (m *MetricsSpec) UnmarshalYAML(node *yaml.Node) error {
	s, err := parseSchema(node)
	if err != nil {
		return err
	}

	m.schema = s

	return nil
}

func parseSchema(node *yaml.Node) (*metrics.Schema, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		names := make([]string, 0, len(node.Content))

		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, &ConfigError{
					Field:  "metrics",
					Reason: fmt.Sprintf("line %d: metric names must be scalars", item.Line),
				}
			}

			names = append(names, item.Value)
		}

		return metrics.LeafSet(names...), nil

	case yaml.MappingNode:
		groups := make(map[string]*metrics.Schema, len(node.Content)/2)

		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]

			if _, dup := groups[key.Value]; dup {
				return nil, &ConfigError{
					Field:  "metrics",
					Reason: fmt.Sprintf("line %d: duplicate group %q", key.Line, key.Value),
				}
			}

			child, err := parseSchema(val)
			if err != nil {
				return nil, err
			}

			groups[key.Value] = child
		}

		return metrics.GroupMap(groups), nil

	default:
		return nil, &ConfigError{
			Field:  "metrics",
			Reason: fmt.Sprintf("line %d: expected a list or a mapping", node.Line),
		}
	}
}

// File is a set of job definitions loaded from YAML.
type File struct {
	Jobs []Config `yaml:"jobs"`
}

// Find returns the job with the given name.
func (f *File) Find(name string) (Config, bool) {
	for _, c := range f.Jobs {
		if c.Name == name {
			return c, true
		}
	}

	return Config{}, false
}

// Load reads and validates a job file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jobs file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates a job file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse jobs YAML: %w", err)
	}

	if len(f.Jobs) == 0 {
		return nil, &ConfigError{Field: "jobs", Reason: "no jobs defined"}
	}

	seen := make(map[string]struct{}, len(f.Jobs))

	for i, c := range f.Jobs {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("job at index %d: %w", i, err)
		}

		if _, dup := seen[c.Name]; dup {
			return nil, &ConfigError{
				Job:    c.Name,
				Field:  "name",
				Reason: "defined more than once",
			}
		}

		seen[c.Name] = struct{}{}
	}

	return &f, nil
}
