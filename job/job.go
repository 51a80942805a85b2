// Package job defines a single benchmark job: the arguments handed to an
// external benchmark binary and the metrics it is expected to report.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/weiihann/benchpress/metrics"
)

// Executor runs the benchmark process with the given arguments and returns
// its decoded output.
type Executor interface {
	Execute(ctx context.Context, args []string) (map[string]any, error)
}

// Result holds the reported metrics of one job run.
type Result struct {
	RunID   string             `json:"run_id"`
	Job     string             `json:"job"`
	Metrics *metrics.Container `json:"metrics"`
	Elapsed time.Duration      `json:"elapsed_ns"`
}

// Job pairs a validated Config with the executor that runs it. The schema is
// fixed at construction, so a Job is safe for concurrent use.
type Job struct {
	cfg      Config
	schema   *metrics.Schema
	executor Executor
	logger   *slog.Logger
}

// New validates cfg and derives the job's metrics schema.
func New(cfg Config, executor Executor, logger *slog.Logger) (*Job, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if executor == nil {
		return nil, fmt.Errorf("job %q: nil executor", cfg.Name)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Job{
		cfg:      cfg,
		schema:   cfg.Metrics.Schema(),
		executor: executor,
		logger:   logger.With(slog.String("job", cfg.Name)),
	}, nil
}

// Name returns the job name.
func (j *Job) Name() string {
	return j.cfg.Name
}

// Config returns the job definition.
func (j *Job) Config() Config {
	return j.cfg
}

// Schema returns the metrics schema derived from the config.
func (j *Job) Schema() *metrics.Schema {
	return j.schema
}

// ValidateMetrics checks that c matches the schema exactly.
func (j *Job) ValidateMetrics(c *metrics.Container) error {
	return metrics.Validate(j.schema, c)
}

// StripMetrics drops every metric the schema does not name.
func (j *Job) StripMetrics(c *metrics.Container) *metrics.Container {
	return metrics.Strip(j.schema, c)
}

// Args returns the normalized argument list for the benchmark binary.
func (j *Job) Args() []string {
	return ArgList(j.cfg.Args)
}

// Run executes the benchmark once and returns the metrics declared by the
// schema. Metrics outside the schema are dropped; missing ones fail the run.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	if j.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.cfg.Timeout)
		defer cancel()
	}

	runID := uuid.NewString()
	args := j.Args()

	j.logger.InfoContext(ctx, "running job",
		slog.String("run_id", runID),
		slog.Any("args", args),
	)

	start := time.Now()

	raw, err := j.executor.Execute(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("execute job %s: %w", j.cfg.Name, err)
	}

	elapsed := time.Since(start)

	// Undeclared output is dropped before parsing so that non-numeric
	// fields such as a version string never fail the run.
	stripped, err := metrics.NewFor(j.schema, raw)
	if err != nil {
		return nil, fmt.Errorf("parse job %s metrics: %w", j.cfg.Name, err)
	}

	if dropped := len(raw) - stripped.Len(); dropped > 0 {
		j.logger.DebugContext(ctx, "dropped undeclared metrics",
			slog.Int("count", dropped),
		)
	}

	if err := j.ValidateMetrics(stripped); err != nil {
		return nil, fmt.Errorf("job %s: %w", j.cfg.Name, err)
	}

	j.logger.InfoContext(ctx, "job finished",
		slog.String("run_id", runID),
		slog.Duration("elapsed", elapsed),
	)

	return &Result{
		RunID:   runID,
		Job:     j.cfg.Name,
		Metrics: stripped,
		Elapsed: elapsed,
	}, nil
}
