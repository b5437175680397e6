package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rulesdoctor/pkg/command"
	"github.com/macropower/rulesdoctor/pkg/report"
	"github.com/macropower/rulesdoctor/pkg/rule"
	"github.com/macropower/rulesdoctor/pkg/version"
)

// Checker runs the rule check for a directory below its root.
type Checker interface {
	Run(ctx context.Context, path string) command.Output
}

// Server implements the MCP server for rulesdoctor.
type Server struct {
	checker   Checker
	server    *mcp.Server
	tracer    trace.Tracer
	address   string
	rulesDir  string
	maxListed int
}

// ServerOpt configures a [Server].
type ServerOpt func(*Server)

// WithMaxListedFiles caps the matched files listed per rule in verbose text
// output.
func WithMaxListedFiles(n int) ServerOpt {
	return func(s *Server) {
		s.maxListed = n
	}
}

// WithRulesDir sets the rules directory named in tool messages. It should
// match the directory the [Checker] reads.
func WithRulesDir(dir string) ServerOpt {
	return func(s *Server) {
		s.rulesDir = dir
	}
}

// NewServer creates a new MCP server. An empty address serves over stdio;
// otherwise the streamable HTTP transport listens on address.
func NewServer(address string, checker Checker, opts ...ServerOpt) *Server {
	impl := &mcp.Implementation{
		Name:    name,
		Version: version.GetVersion(),
	}

	s := &Server{
		address:   address,
		checker:   checker,
		tracer:    otel.Tracer("mcp-server"),
		rulesDir:  rule.DefaultDir,
		maxListed: report.DefaultMaxListedFiles,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(impl, &mcp.ServerOptions{
		Instructions: fmt.Sprintf(instructionsFormat, s.rulesDir),
	})

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "check_rules",
		Description: fmt.Sprintf("Check the rule documents in %s/ and report which rules are OK, "+
			"malformed (WARNING) or match no files (DEAD).", s.rulesDir),
		InputSchema: newCheckRulesInputSchema(),
	}, WithTracing(s.tracer, s.handleCheckRules))
}

// Server returns the underlying MCP server.
func (s *Server) Server() *mcp.Server {
	return s.server
}

// Serve runs the server until ctx is canceled or the transport closes.
func (s *Server) Serve(ctx context.Context) error {
	slog.InfoContext(ctx, "starting MCP server", slog.String("address", s.address))

	if s.address == "" {
		err := s.serveStdio(ctx)
		if err != nil {
			return fmt.Errorf("serve stdio: %w", err)
		}

		return nil
	}

	err := s.serveHTTP(ctx)
	if err != nil {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}

func (s *Server) serveHTTP(ctx context.Context) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	server := &http.Server{
		Addr:    s.address,
		Handler: handler,

		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			slog.ErrorContext(ctx, "shut down MCP server", slog.Any("error", err))
		}
	}()

	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

func (s *Server) serveStdio(ctx context.Context) error {
	t := mcp.NewLoggingTransport(mcp.NewStdioTransport(), os.Stderr)

	err := s.server.Run(ctx, t)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}
