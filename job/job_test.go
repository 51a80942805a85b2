package job

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/weiihann/benchpress/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeExecutor struct {
	out     map[string]any
	err     error
	gotArgs []string
	delay   time.Duration
}

func (f *fakeExecutor) Execute(ctx context.Context, args []string) (map[string]any, error) {
	f.gotArgs = args

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return f.out, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestJob(t *testing.T, schema *metrics.Schema, exec Executor) *Job {
	t.Helper()

	j, err := New(Config{
		Name:    "test",
		Binary:  "bench",
		Args:    FlagMap(Flag{Name: "output-format", Value: "json"}, Flag{Name: "file"}),
		Metrics: NewMetricsSpec(schema),
	}, exec, discardLogger())
	require.NoError(t, err)

	return j
}

func container(t *testing.T, raw map[string]any) *metrics.Container {
	t.Helper()

	c, err := metrics.New(raw)
	require.NoError(t, err)

	return c
}

func TestValidateMetrics(t *testing.T) {
	job := newTestJob(t, metrics.LeafSet("rps"), &fakeExecutor{})

	assert.ErrorIs(t, job.ValidateMetrics(container(t, map[string]any{})), metrics.ErrSchemaMismatch)
	assert.ErrorIs(t,
		job.ValidateMetrics(container(t, map[string]any{"latency": map[string]any{"p50": 1}})),
		metrics.ErrSchemaMismatch,
	)
	assert.NoError(t, job.ValidateMetrics(container(t, map[string]any{"rps": 1})))

	grouped := newTestJob(t, metrics.GroupMap(map[string]*metrics.Schema{
		"latency": metrics.LeafSet("p50", "p95"),
	}), &fakeExecutor{})

	assert.NoError(t, grouped.ValidateMetrics(container(t, map[string]any{
		"latency": map[string]any{"p50": 1, "p95": 2},
	})))
}

func TestStripMetrics(t *testing.T) {
	job := newTestJob(t, metrics.LeafSet("rps"), &fakeExecutor{})

	count := func(c *metrics.Container) int {
		n := 0
		for range c.Flatten() {
			n++
		}
		return n
	}

	assert.Equal(t, 0, count(job.StripMetrics(container(t, map[string]any{}))))
	assert.Equal(t, 1, count(job.StripMetrics(container(t, map[string]any{"rps": 1}))))
	assert.Equal(t, 1, count(job.StripMetrics(container(t, map[string]any{"rps": 1, "extra": 2}))))
}

func TestNew(t *testing.T) {
	t.Run("missing required fields", func(t *testing.T) {
		_, err := New(Config{}, &fakeExecutor{}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfig)
	})

	t.Run("nil executor", func(t *testing.T) {
		_, err := New(Config{
			Name:    "x",
			Binary:  "y",
			Metrics: NewMetricsSpec(metrics.LeafSet("m")),
		}, nil, nil)
		assert.Error(t, err)
	})

	t.Run("args", func(t *testing.T) {
		job := newTestJob(t, metrics.LeafSet("rps"), &fakeExecutor{})
		assert.Equal(t, "test", job.Name())
		assert.Equal(t, []string{"--output-format", "json", "--file"}, job.Args())
	})
}

func TestRun(t *testing.T) {
	schema := metrics.GroupMap(map[string]*metrics.Schema{
		"latency": metrics.LeafSet("p50", "p95"),
	})

	t.Run("strips and validates", func(t *testing.T) {
		exec := &fakeExecutor{out: map[string]any{
			"latency": map[string]any{"p50": 1.0, "p95": 2.0, "p99": 3.0},
			"debug":   4.0,
		}}
		job := newTestJob(t, schema, exec)

		res, err := job.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, []string{"--output-format", "json", "--file"}, exec.gotArgs)
		assert.Equal(t, "test", res.Job)
		assert.NotEmpty(t, res.RunID)
		assert.Equal(t, []string{"latency"}, res.Metrics.Keys())
		assert.NoError(t, job.ValidateMetrics(res.Metrics))
	})

	t.Run("missing metric fails", func(t *testing.T) {
		job := newTestJob(t, schema, &fakeExecutor{out: map[string]any{
			"latency": map[string]any{"p50": 1.0},
		}})

		_, err := job.Run(context.Background())
		require.Error(t, err)

		var mismatch *metrics.SchemaMismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, "latency", mismatch.Path)
	})

	t.Run("executor error", func(t *testing.T) {
		boom := errors.New("exit status 1")
		job := newTestJob(t, schema, &fakeExecutor{err: boom})

		_, err := job.Run(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("non-numeric output", func(t *testing.T) {
		job := newTestJob(t, schema, &fakeExecutor{out: map[string]any{
			"latency": "n/a",
		}})

		_, err := job.Run(context.Background())
		assert.Error(t, err)
	})

	t.Run("undeclared string fields ignored", func(t *testing.T) {
		job := newTestJob(t, metrics.LeafSet("rps"), &fakeExecutor{out: map[string]any{
			"rps":     1.0,
			"version": "wrk 4.2",
			"client":  map[string]any{"name": "geth", "root": "0xabc"},
		}})

		res, err := job.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"rps"}, res.Metrics.Keys())
	})

	t.Run("undeclared nested string ignored", func(t *testing.T) {
		job := newTestJob(t, schema, &fakeExecutor{out: map[string]any{
			"latency": map[string]any{"p50": 1.0, "p95": 2.0, "unit": "ms"},
		}})

		res, err := job.Run(context.Background())
		require.NoError(t, err)

		latency, ok := res.Metrics.Group("latency")
		require.True(t, ok)
		assert.Equal(t, []string{"p50", "p95"}, latency.Keys())
	})

	t.Run("timeout", func(t *testing.T) {
		exec := &fakeExecutor{delay: time.Second}
		job, err := New(Config{
			Name:    "slow",
			Binary:  "bench",
			Metrics: NewMetricsSpec(schema),
			Timeout: 10 * time.Millisecond,
		}, exec, discardLogger())
		require.NoError(t, err)

		_, err = job.Run(context.Background())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestConcurrentUse(t *testing.T) {
	job := newTestJob(t, metrics.LeafSet("rps"), &fakeExecutor{})
	in := container(t, map[string]any{"rps": 1, "extra": 2})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			out := job.StripMetrics(in)
			assert.NoError(t, job.ValidateMetrics(out))
			assert.Equal(t, []string{"--output-format", "json", "--file"}, job.Args())
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, in.Len())
}
