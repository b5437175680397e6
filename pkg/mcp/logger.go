package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rulesdoctor/pkg/log"
)

// TracedToolHandler is a typed MCP tool handler.
type TracedToolHandler[In, Out any] func(
	context.Context,
	*mcp.ServerSession,
	*mcp.CallToolParamsFor[In],
) (*mcp.CallToolResultFor[Out], error)

// WithTracing wraps handler so that every call runs in its own span and is
// logged with the span's trace ID.
func WithTracing[In, Out any](
	tracer trace.Tracer,
	handler TracedToolHandler[In, Out],
) mcp.ToolHandlerFor[In, Out] {
	return func(
		ctx context.Context,
		session *mcp.ServerSession,
		params *mcp.CallToolParamsFor[In],
	) (*mcp.CallToolResultFor[Out], error) {
		start := time.Now()

		ctx, span := tracer.Start(ctx, params.Name, trace.WithAttributes(
			attribute.String("mcp.tool", params.Name),
		))
		defer span.End()

		logger := log.WithContext(ctx)
		logger.DebugContext(ctx, "handling tool call",
			slog.String("name", params.Name),
			slog.Any("args", params.Arguments),
		)

		result, err := handler(ctx, session, params)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.ErrorContext(ctx, "tool call failed",
				slog.String("name", params.Name),
				slog.Any("error", err),
			)

			return result, err
		}

		logger.DebugContext(ctx, "tool call completed",
			slog.String("name", params.Name),
			slog.Duration("duration", time.Since(start)),
		)

		return result, nil
	}
}
