package check

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/macropower/rulesdoctor/pkg/files"
	"github.com/macropower/rulesdoctor/pkg/log"
	"github.com/macropower/rulesdoctor/pkg/rule"
)

// Fixed result messages.
const (
	MsgGlobal      = "Global rule (no paths specified)"
	MsgInvalidType = "Invalid paths type (must be string or array)"
	MsgEmptyPaths  = "Empty paths array"
	MsgNoMatches   = "No files match the specified paths"
)

const (
	msgInvalidGlobs  = "Invalid glob pattern(s): %s"
	msgInvalidItems  = "Invalid types in paths array: %s. Only strings are allowed."
	msgMatches       = "Matches %d file(s)"
	msgIndexFailure  = "Cannot list files: %v"
	msgEvalCancelled = "Evaluation cancelled: %v"
)

// DefaultSuggestions is the number of suggestions attached to dead results.
const DefaultSuggestions = 3

// Evaluator classifies rule documents against the files below a root
// directory. It is safe for concurrent use.
type Evaluator struct {
	tracer      trace.Tracer
	index       *files.Index
	root        string
	exclude     []string
	concurrency int
	suggestions int
}

// EvaluatorOpt configures an [Evaluator].
type EvaluatorOpt func(*Evaluator)

// WithIndex sets the file index. By default a new [files.Index] is created
// for the root.
func WithIndex(ix *files.Index) EvaluatorOpt {
	return func(e *Evaluator) {
		e.index = ix
	}
}

// WithExclude sets the directory names excluded from the default index.
func WithExclude(names ...string) EvaluatorOpt {
	return func(e *Evaluator) {
		e.exclude = slices.Clone(names)
	}
}

// WithConcurrency limits the number of rules [Evaluator.EvaluateAll]
// evaluates at once. Values below one select [runtime.GOMAXPROCS].
func WithConcurrency(n int) EvaluatorOpt {
	return func(e *Evaluator) {
		e.concurrency = n
	}
}

// WithSuggestions sets the maximum number of suggestions attached to dead
// results. Zero disables suggestions.
func WithSuggestions(n int) EvaluatorOpt {
	return func(e *Evaluator) {
		e.suggestions = max(n, 0)
	}
}

// NewEvaluator creates a new [Evaluator] for root.
func NewEvaluator(root string, opts ...EvaluatorOpt) *Evaluator {
	e := &Evaluator{
		root:        root,
		suggestions: DefaultSuggestions,
		tracer:      otel.Tracer("rule-evaluator"),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.concurrency < 1 {
		e.concurrency = runtime.GOMAXPROCS(0)
	}

	if e.index == nil {
		var ixOpts []files.IndexOpt
		if e.exclude != nil {
			ixOpts = append(ixOpts, files.WithExclude(e.exclude...))
		}

		e.index = files.NewIndex(root, ixOpts...)
	}

	return e
}

// Root returns the evaluation root.
func (e *Evaluator) Root() string {
	return e.root
}

// EvaluateAll evaluates docs concurrently. The results are in the order of docs.
func (e *Evaluator) EvaluateAll(ctx context.Context, docs []*rule.Document) []Result {
	ctx, span := e.tracer.Start(ctx, "evaluate rules", trace.WithAttributes(
		attribute.String("root", e.root),
		attribute.Int("rules", len(docs)),
	))
	defer span.End()

	results := make([]Result, len(docs))

	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for i, doc := range docs {
		g.Go(func() error {
			results[i] = e.Evaluate(ctx, doc)

			return nil
		})
	}

	// Evaluate reports every failure in its Result.
	_ = g.Wait() //nolint:errcheck

	return results
}

// Evaluate classifies a single document. Every failure is reported through
// the returned [Result].
func (e *Evaluator) Evaluate(ctx context.Context, doc *rule.Document) Result {
	ctx, span := e.tracer.Start(ctx, "evaluate rule", trace.WithAttributes(
		attribute.String("rule", doc.Name),
	))
	defer span.End()

	res := e.evaluate(ctx, doc)

	span.SetAttributes(
		attribute.String("status", res.Status.String()),
		attribute.Int("matched_files", len(res.MatchedFiles)),
	)
	if res.Status == StatusWarning {
		span.SetStatus(codes.Error, res.Message)
	}

	log.WithContext(ctx).DebugContext(ctx, "evaluated rule",
		slog.String("rule", doc.Name),
		slog.String("status", res.Status.String()),
		slog.Int("matched_files", len(res.MatchedFiles)),
	)

	return res
}

func (e *Evaluator) evaluate(ctx context.Context, doc *rule.Document) Result {
	if err := ctx.Err(); err != nil {
		return newResult(doc, StatusWarning, fmt.Sprintf(msgEvalCancelled, err), nil)
	}

	switch doc.State() {
	case rule.HeaderInvalid:
		return newResult(doc, StatusWarning, doc.ParseError.Error(), nil)
	case rule.HeaderAbsent:
		return newResult(doc, StatusOK, MsgGlobal, nil)
	case rule.HeaderPresent:
	}

	raw, ok := doc.Frontmatter.Paths()
	if !ok || raw == nil {
		return newResult(doc, StatusOK, MsgGlobal, nil)
	}

	var entries []any

	switch v := raw.(type) {
	case string:
		entries = []any{v}
	case []string:
		entries = make([]any, 0, len(v))
		for _, s := range v {
			entries = append(entries, s)
		}
	case []any:
		entries = v
	default:
		return newResult(doc, StatusWarning, MsgInvalidType, nil)
	}

	if len(entries) == 0 {
		return newResult(doc, StatusWarning, MsgEmptyPaths, nil)
	}

	patterns, invalid := splitEntries(entries)

	matched, patternErrs, err := e.resolve(ctx, patterns)
	if err != nil {
		return newResult(doc, StatusWarning, fmt.Sprintf(msgIndexFailure, err), nil)
	}

	if len(patternErrs) > 0 {
		if len(matched) == 0 {
			return newResult(doc, StatusWarning, fmt.Sprintf(msgInvalidGlobs, strings.Join(patternErrs, "; ")), nil)
		}

		log.WithContext(ctx).WarnContext(ctx, "ignoring invalid glob patterns",
			slog.String("rule", doc.Name),
			slog.Any("patterns", patternErrs),
		)
	}

	if len(invalid) > 0 {
		types := make([]string, 0, len(invalid))
		for _, v := range invalid {
			types = append(types, rule.TypeName(v))
		}

		return newResult(doc, StatusWarning, fmt.Sprintf(msgInvalidItems, strings.Join(types, ", ")), matched)
	}

	if len(matched) == 0 {
		res := newResult(doc, StatusDead, MsgNoMatches, nil)
		res.Suggestions = e.suggest(ctx, patterns)

		return res
	}

	return newResult(doc, StatusOK, fmt.Sprintf(msgMatches, len(matched)), matched)
}

// resolve matches every pattern against the index. Invalid patterns are
// returned as formatted messages; other failures are returned as err.
func (e *Evaluator) resolve(ctx context.Context, patterns []string) ([]string, []string, error) {
	set := map[string]struct{}{}

	var patternErrs []string

	for _, p := range patterns {
		matches, err := e.index.Match(ctx, p)
		if errors.Is(err, files.ErrBadPattern) {
			patternErrs = append(patternErrs, fmt.Sprintf("%q: %v", p, err))

			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("match %q: %w", p, err)
		}

		for _, m := range matches {
			set[m] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(set)), patternErrs, nil
}

func (e *Evaluator) suggest(ctx context.Context, patterns []string) []string {
	if e.suggestions == 0 {
		return nil
	}

	var out []string
	for _, p := range patterns {
		for _, s := range e.index.Suggest(ctx, p, e.suggestions) {
			if !slices.Contains(out, s) {
				out = append(out, s)
			}
		}
	}

	if len(out) > e.suggestions {
		out = out[:e.suggestions]
	}

	return out
}

// splitEntries separates string patterns from entries of any other type.
func splitEntries(entries []any) ([]string, []any) {
	var (
		patterns []string
		invalid  []any
	)

	for _, v := range entries {
		if s, ok := v.(string); ok {
			patterns = append(patterns, s)
		} else {
			invalid = append(invalid, v)
		}
	}

	return patterns, invalid
}
