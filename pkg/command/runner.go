package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rulesdoctor/pkg/check"
	"github.com/macropower/rulesdoctor/pkg/config"
	"github.com/macropower/rulesdoctor/pkg/log"
	"github.com/macropower/rulesdoctor/pkg/report"
	"github.com/macropower/rulesdoctor/pkg/rule"
)

// ErrNotDirectory is returned when the path to check is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Runner checks rule documents below directories of a fixed root. Paths
// given to [Runner.Run] cannot escape the root. It is safe for concurrent use.
type Runner struct {
	tracer trace.Tracer
	root   *os.Root
	cfg    *config.Config
}

// RunnerOpt configures a [Runner].
type RunnerOpt func(r *Runner) error

// WithConfig sets the configuration. A nil config selects the defaults.
func WithConfig(cfg *config.Config) RunnerOpt {
	return func(r *Runner) error {
		if cfg == nil {
			cfg = config.New()
		}

		cfg.EnsureDefaults()
		r.cfg = cfg

		return nil
	}
}

// NewRunner creates a new [Runner] for the directory dir.
func NewRunner(dir string, opts ...RunnerOpt) (*Runner, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("open root directory %q: %w", abs, err)
	}

	r := &Runner{
		tracer: otel.Tracer("command-runner"),
		root:   root,
		cfg:    config.New(),
	}

	for _, opt := range opts {
		err := opt(r)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("apply option: %w", err), root.Close())
		}
	}

	return r, nil
}

// Root returns the absolute root directory.
func (r *Runner) Root() string {
	return r.root.Name()
}

// Config returns the configuration in use.
func (r *Runner) Config() *config.Config {
	return r.cfg
}

// Close releases the root directory.
func (r *Runner) Close() error {
	return r.root.Close() //nolint:wrapcheck // Return the original error.
}

// Resolve returns the absolute directory for path. Relative paths are
// resolved against the root; absolute paths must be inside it. An empty path
// selects the root.
func (r *Runner) Resolve(path string) (string, error) {
	if path == "" {
		path = "."
	}

	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(r.root.Name(), path)
		if err != nil {
			return "", fmt.Errorf("relative path: %w", err)
		}

		path = rel
	}

	path = filepath.Clean(path)

	info, err := r.root.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat path %q: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}

	return filepath.Join(r.root.Name(), path), nil
}

// Run checks the rules below path (see [Runner.Resolve]). A missing rules
// directory is reported as an error wrapping [rule.ErrNoRulesDir].
func (r *Runner) Run(ctx context.Context, path string) Output {
	ctx, span := r.tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("path", path),
	))
	defer span.End()

	logger := log.WithContext(ctx)

	dir, err := r.Resolve(path)
	if err != nil {
		span.RecordError(err)

		return NewOutput(path, WithError(err))
	}

	docs, err := rule.LoadAll(ctx, dir,
		rule.WithDir(r.cfg.RulesDir),
		rule.WithConcurrency(r.cfg.Concurrency),
	)
	if err != nil {
		span.RecordError(err)

		return NewOutput(dir, WithError(fmt.Errorf("load rules: %w", err)))
	}

	ev := check.NewEvaluator(dir,
		check.WithExclude(r.cfg.Exclude...),
		check.WithConcurrency(r.cfg.Concurrency),
	)

	rep := report.New(ev.EvaluateAll(ctx, docs))

	span.SetAttributes(
		attribute.Int("rules", rep.TotalRules),
		attribute.Int("dead", rep.DeadCount),
	)

	logger.InfoContext(ctx, "checked rules",
		slog.String("dir", dir),
		slog.Int("total", rep.TotalRules),
		slog.Int("ok", rep.OKCount),
		slog.Int("warning", rep.WarningCount),
		slog.Int("dead", rep.DeadCount),
	)

	return NewOutput(dir, WithReport(rep))
}
