// Package files indexes the regular files below a root directory and resolves
// glob patterns against that index.
package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sahilm/fuzzy"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rulesdoctor/pkg/log"
)

// ErrBadPattern is returned by [Index.Match] for syntactically invalid patterns.
var ErrBadPattern = errors.New("invalid glob pattern")

// DefaultExclude lists directory names that are never indexed, at any depth.
var DefaultExclude = []string{"node_modules", ".git"}

// Index lists the files below a root directory. The directory tree is walked
// at most once, on first use; the result is shared by all callers.
type Index struct {
	tracer  trace.Tracer
	err     error
	root    string
	exclude []string
	files   []string
	once    sync.Once
}

// IndexOpt configures an [Index].
type IndexOpt func(*Index)

// WithExclude replaces [DefaultExclude].
func WithExclude(names ...string) IndexOpt {
	return func(ix *Index) {
		ix.exclude = slices.Clone(names)
	}
}

// NewIndex creates an [Index] for root. Nothing is read until the first call
// to [Index.Files] or [Index.Match].
func NewIndex(root string, opts ...IndexOpt) *Index {
	ix := &Index{
		root:    root,
		exclude: slices.Clone(DefaultExclude),
		tracer:  otel.Tracer("files"),
	}
	for _, opt := range opts {
		opt(ix)
	}

	return ix
}

// Root returns the indexed directory.
func (ix *Index) Root() string {
	return ix.root
}

// Files returns all indexed file paths, relative to the root, slash separated
// and sorted. The returned slice must not be modified.
func (ix *Index) Files(ctx context.Context) ([]string, error) {
	ix.once.Do(func() {
		ix.files, ix.err = ix.walk(ctx)
	})

	return ix.files, ix.err
}

// Match returns the indexed files matching pattern, sorted. Hidden files are
// only matched by patterns that spell out their leading dot (see [MatchPath]).
// Invalid patterns return an error wrapping [ErrBadPattern].
func (ix *Index) Match(ctx context.Context, pattern string) ([]string, error) {
	pattern = NormalizePattern(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %w", ErrBadPattern, doublestar.ErrBadPattern)
	}

	all, err := ix.Files(ctx)
	if err != nil {
		return nil, err
	}

	var matches []string
	for _, f := range all {
		if MatchPath(pattern, f) {
			matches = append(matches, f)
		}
	}

	return matches, nil
}

// Suggest returns up to limit indexed files that fuzzy-match the literal
// parts of pattern, best match first. It returns nil if the index has not
// been built or pattern has no literal characters.
func (ix *Index) Suggest(ctx context.Context, pattern string, limit int) []string {
	needle := literalPart(NormalizePattern(pattern))
	if needle == "" || limit <= 0 {
		return nil
	}

	all, err := ix.Files(ctx)
	if err != nil {
		return nil
	}

	found := fuzzy.Find(needle, all)

	suggestions := make([]string, 0, min(limit, len(found)))
	for _, m := range found[:min(limit, len(found))] {
		suggestions = append(suggestions, m.Str)
	}

	return suggestions
}

// NormalizePattern strips leading "./" segments so that patterns written
// relative to the current directory match root-relative paths.
func NormalizePattern(pattern string) string {
	pattern = filepath.ToSlash(pattern)
	for strings.HasPrefix(pattern, "./") {
		pattern = strings.TrimLeft(pattern[2:], "/")
	}

	return pattern
}

func literalPart(pattern string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '*', '?', '[', ']', '{', '}', '!', '\\', '/':
			return -1
		}

		return r
	}, pattern)
}

func (ix *Index) walk(ctx context.Context) ([]string, error) {
	ctx, span := ix.tracer.Start(ctx, "index files", trace.WithAttributes(
		attribute.String("root", ix.root),
	))
	defer span.End()

	logger := log.WithContext(ctx)

	var files []string

	err := filepath.WalkDir(ix.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == ix.root {
				return err
			}

			// Unreadable entries below the root are skipped.
			logger.DebugContext(ctx, "skip unreadable path",
				slog.String("path", path),
				slog.Any("error", err),
			)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if d.IsDir() {
			if path != ix.root && slices.Contains(ix.exclude, d.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if !isFile(path, d) {
			return nil
		}

		rel, err := filepath.Rel(ix.root, path)
		if err != nil {
			return fmt.Errorf("relative path: %w", err)
		}

		files = append(files, filepath.ToSlash(rel))

		return nil
	})
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("walk %s: %w", ix.root, err)
	}

	slices.Sort(files)

	span.SetAttributes(attribute.Int("files", len(files)))
	logger.DebugContext(ctx, "indexed files",
		slog.String("root", ix.root),
		slog.Int("count", len(files)),
	)

	return files, nil
}

// isFile reports whether d is a regular file, or a symlink to one.
func isFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.Mode().IsRegular()
}
