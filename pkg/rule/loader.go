package rule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/macropower/rulesdoctor/pkg/files"
	"github.com/macropower/rulesdoctor/pkg/log"
)

const (
	// DefaultDir is the rules directory, relative to the evaluation root.
	DefaultDir = ".claude/rules"

	documentPattern = "**/*.md"
)

// ErrNoRulesDir is returned when the rules directory does not exist.
var ErrNoRulesDir = errors.New("rules directory does not exist")

// LoaderOpt configures [Find] and [LoadAll].
type LoaderOpt func(*loaderOptions)

type loaderOptions struct {
	dir         string
	concurrency int
}

// WithDir sets the rules directory, relative to the root. Defaults to [DefaultDir].
func WithDir(dir string) LoaderOpt {
	return func(o *loaderOptions) {
		if dir != "" {
			o.dir = dir
		}
	}
}

// WithConcurrency limits the number of documents read at once. Values below
// one select [runtime.GOMAXPROCS].
func WithConcurrency(n int) LoaderOpt {
	return func(o *loaderOptions) {
		o.concurrency = n
	}
}

func newLoaderOptions(opts []LoaderOpt) *loaderOptions {
	o := &loaderOptions{dir: DefaultDir}
	for _, opt := range opts {
		opt(o)
	}

	if o.concurrency < 1 {
		o.concurrency = runtime.GOMAXPROCS(0)
	}

	return o
}

// Dir returns the absolute rules directory for root.
func Dir(root string, opts ...LoaderOpt) string {
	o := newLoaderOptions(opts)

	return filepath.Join(root, filepath.FromSlash(o.dir))
}

// Find returns the absolute paths of all rule documents below the rules
// directory of root, sorted. A missing rules directory returns an error
// wrapping [ErrNoRulesDir].
func Find(root string, opts ...LoaderOpt) ([]string, error) {
	dir := Dir(root, opts...)

	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoRulesDir, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("stat rules directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoRulesDir, dir)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), documentPattern,
		doublestar.WithFilesOnly(),
		doublestar.WithFailOnIOErrors(),
		doublestar.WithNoFollow(),
	)
	if err != nil {
		return nil, fmt.Errorf("find rule documents in %s: %w", dir, err)
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		if !files.MatchPath(documentPattern, m) {
			continue
		}

		path := filepath.Join(dir, filepath.FromSlash(m))

		// Unfollowed symlinks are reported as files; keep only regular targets.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		paths = append(paths, path)
	}

	slices.Sort(paths)

	return paths, nil
}

// Load reads and parses the document at path. Only I/O failures are returned
// as errors.
func Load(path, root string) (*Document, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: Paths come from Find.
	if err != nil {
		return nil, fmt.Errorf("read rule document: %w", err)
	}

	name, err := filepath.Rel(root, path)
	if err != nil {
		name = path
	}

	return Parse(path, filepath.ToSlash(name), content), nil
}

// LoadAll finds and loads every rule document below root. Documents are read
// concurrently; the result is in [Find] order.
func LoadAll(ctx context.Context, root string, opts ...LoaderOpt) ([]*Document, error) {
	ctx, span := otel.Tracer("rule-loader").Start(ctx, "load rules", trace.WithAttributes(
		attribute.String("root", root),
	))
	defer span.End()

	o := newLoaderOptions(opts)

	paths, err := Find(root, opts...)
	if err != nil {
		span.RecordError(err)

		return nil, err
	}

	docs := make([]*Document, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err //nolint:wrapcheck // Context errors are returned as-is.
			}

			doc, err := Load(path, root)
			if err != nil {
				return err
			}

			docs[i] = doc

			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		span.RecordError(err)

		return nil, err //nolint:wrapcheck // Errors are wrapped by Load.
	}

	span.SetAttributes(attribute.Int("documents", len(docs)))

	logger := log.WithContext(ctx)
	for _, doc := range docs {
		logger.DebugContext(ctx, "loaded rule document",
			slog.String("name", doc.Name),
			slog.String("header", doc.State().String()),
		)
	}

	return docs, nil
}
