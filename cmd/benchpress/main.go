// Package main provides the CLI entry point for benchpress, a runner for
// declaratively configured benchmark jobs.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/weiihann/benchpress/harness"
	"github.com/weiihann/benchpress/job"
	"github.com/weiihann/benchpress/report"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(logger)
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		logger.Error("benchpress failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "benchpress",
		Short: "Run declaratively configured benchmark jobs",
		Long: `Benchpress runs an external benchmark binary with the arguments
declared in a jobs file and reports the metrics it prints, checked
against the metric names the job declares.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("jobs", "j", "jobs.yml",
		"Path to the jobs definition file")

	root.AddCommand(newListCmd())
	root.AddCommand(newRunCmd(logger))

	return root
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the jobs defined in the jobs file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("jobs")

			f, err := job.Load(path)
			if err != nil {
				return err
			}

			return listJobs(cmd.OutOrStdout(), f)
		},
	}
}

func listJobs(w io.Writer, f *job.File) error {
	for _, c := range f.Jobs {
		line := c.Name
		if c.Description != "" {
			line += "\t" + c.Description
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write job list: %w", err)
		}
	}

	return nil
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		outputJSON bool
		dryRun     bool
		workDir    string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "run JOB",
		Short: "Run a single benchmark job",
		Long: `Run the named job once, keep only the metrics it declares and fail
if any declared metric is missing from the benchmark output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("jobs")

			if verbose {
				logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
					&slog.HandlerOptions{Level: slog.LevelDebug}))
			}

			return runJob(cmd.Context(), logger, runConfig{
				jobsPath:   path,
				name:       args[0],
				outputJSON: outputJSON,
				dryRun:     dryRun,
				workDir:    workDir,
				out:        cmd.OutOrStdout(),
			})
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&outputJSON, "json", false,
		"Output results as JSON instead of table")
	flags.BoolVar(&dryRun, "dry-run", false,
		"Print the benchmark command line without running it")
	flags.StringVar(&workDir, "work-dir", "",
		"Working directory for the benchmark process")
	flags.BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	return cmd
}

// shellJoin renders tokens as a copy-pasteable command line, quoting any
// token that is empty or contains whitespace or quotes.
func shellJoin(tokens []string) string {
	quoted := make([]string, len(tokens))

	for i, tok := range tokens {
		if tok == "" || strings.ContainsAny(tok, " \t\n\"'\\") {
			quoted[i] = strconv.Quote(tok)
			continue
		}

		quoted[i] = tok
	}

	return strings.Join(quoted, " ")
}

type runConfig struct {
	jobsPath   string
	name       string
	outputJSON bool
	dryRun     bool
	workDir    string
	out        io.Writer
}

func runJob(
	ctx context.Context,
	logger *slog.Logger,
	cfg runConfig,
) error {
	f, err := job.Load(cfg.jobsPath)
	if err != nil {
		return err
	}

	jobCfg, ok := f.Find(cfg.name)
	if !ok {
		return fmt.Errorf("job %q not found in %s", cfg.name, cfg.jobsPath)
	}

	cmdCfg := harness.WrapCommand(jobCfg.Binary, jobCfg.Env)
	runner := harness.FromCommand(jobCfg.Name, cmdCfg, logger)
	runner.Dir = cfg.workDir

	j, err := job.New(jobCfg, runner, logger)
	if err != nil {
		return err
	}

	if cfg.dryRun {
		line := append([]string{cmdCfg.Binary}, cmdCfg.ExtraArgs...)
		line = append(line, j.Args()...)
		fmt.Fprintln(cfg.out, shellJoin(line))

		return nil
	}

	result, err := j.Run(ctx)
	if err != nil {
		return fmt.Errorf("run %s: %w", jobCfg.Name, err)
	}

	results := []job.Result{*result}

	if cfg.outputJSON {
		if err := report.GenerateJSON(cfg.out, results); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(cfg.out, results); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	logger.InfoContext(ctx, "benchmark complete",
		slog.String("job", jobCfg.Name),
		slog.String("run_id", result.RunID),
	)

	return nil
}
