package harness

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// Runner launches a benchmark binary and decodes its JSON output.
// It implements job.Executor.
type Runner struct {
	Name       string
	BinaryPath string
	ExtraArgs  []string
	Env        []string
	Dir        string
	Logger     *slog.Logger
}

// NewRunner creates a Runner for the named job.
// For benchmarks that need a wrapper (e.g. java -jar),
// pass the wrapper command as binaryPath and the JAR path
// in extraArgs. Env is appended to the inherited environment.
func NewRunner(
	name, binaryPath string,
	extraArgs, env []string,
	logger *slog.Logger,
) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		Name:       name,
		BinaryPath: binaryPath,
		ExtraArgs:  extraArgs,
		Env:        env,
		Logger:     logger.With(slog.String("job", name)),
	}
}

// FromCommand creates a Runner from a resolved CommandConfig.
func FromCommand(name string, cfg CommandConfig, logger *slog.Logger) *Runner {
	return NewRunner(name, cfg.Binary, cfg.ExtraArgs, cfg.Env, logger)
}

// Execute runs the binary with args appended to the runner's extra
// arguments and returns the decoded metrics.
func (r *Runner) Execute(ctx context.Context, args []string) (map[string]any, error) {
	cmdArgs := make([]string, 0, len(r.ExtraArgs)+len(args))
	cmdArgs = append(cmdArgs, r.ExtraArgs...)
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.CommandContext(ctx, r.BinaryPath, cmdArgs...)
	cmd.Dir = r.Dir

	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Logger.InfoContext(ctx, "starting benchmark",
		slog.String("binary", r.BinaryPath),
		slog.Any("args", cmdArgs),
	)

	wallStart := time.Now()

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf(
			"benchmark %s failed: %w\nstderr: %s",
			r.Name, err, stderr.String(),
		)
	}

	r.Logger.InfoContext(ctx, "benchmark finished",
		slog.Duration("wall_time", time.Since(wallStart)),
	)

	if stderr.Len() > 0 {
		r.Logger.DebugContext(ctx, "benchmark stderr",
			slog.String("stderr", stderr.String()),
		)
	}

	raw, err := parseResult(&stdout)
	if err != nil {
		return nil, fmt.Errorf(
			"parse %s output: %w\nstdout: %s",
			r.Name, err, stdout.String(),
		)
	}

	return raw, nil
}
