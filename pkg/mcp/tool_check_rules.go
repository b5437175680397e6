package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/muesli/termenv"

	"github.com/macropower/rulesdoctor/pkg/log"
	"github.com/macropower/rulesdoctor/pkg/report"
	"github.com/macropower/rulesdoctor/pkg/rule"
)

// CheckRulesParams defines parameters for the check_rules tool.
type CheckRulesParams struct {
	Path    string `json:"path,omitempty"`
	Verbose bool   `json:"verbose,omitempty"`
}

// CheckRulesResult is the structured result of the check_rules tool. It
// carries the report fields at the top level.
type CheckRulesResult struct {
	*report.Report

	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
	Dir     string `json:"dir"`
}

func (s *Server) handleCheckRules(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[CheckRulesParams],
) (*mcp.CallToolResultFor[CheckRulesResult], error) {
	out := s.checker.Run(ctx, params.Arguments.Path)

	result := CheckRulesResult{
		Dir:    out.Dir,
		Report: out.Report,
	}

	switch {
	case errors.Is(out.Error, rule.ErrNoRulesDir):
		result.Report = report.New(nil)
		result.Error = out.Error.Error()
		result.Message = fmt.Sprintf("Directory %s/ does not exist.", s.rulesDir)

		return newCheckRulesResult(result, result.Message), nil
	case out.Error != nil:
		return nil, fmt.Errorf("check rules: %w", out.Error)
	}

	result.Message = summarize(out.Report, s.rulesDir)

	text := result.Message
	if params.Arguments.Verbose {
		var sb strings.Builder

		err := report.NewConsole(&sb,
			report.WithColorProfile(termenv.Ascii),
			report.WithVerbose(true),
			report.WithMaxListedFiles(s.maxListed),
		).Write(out.Report)
		if err != nil {
			return nil, fmt.Errorf("render report: %w", err)
		}

		text = sb.String()
	}

	log.WithContext(ctx).DebugContext(ctx, "check_rules completed",
		slog.String("dir", out.Dir),
		slog.Int("total", out.Report.TotalRules),
		slog.Int("dead", out.Report.DeadCount),
	)

	return newCheckRulesResult(result, text), nil
}

func newCheckRulesResult(result CheckRulesResult, text string) *mcp.CallToolResultFor[CheckRulesResult] {
	return &mcp.CallToolResultFor[CheckRulesResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: text,
			},
		},
		StructuredContent: result,
	}
}

func summarize(r *report.Report, rulesDir string) string {
	if r.TotalRules == 0 {
		return fmt.Sprintf("No rules found in %s/ (directory is empty).", rulesDir)
	}

	msg := fmt.Sprintf("Checked %d rule(s): %d OK, %d WARNING, %d DEAD.",
		r.TotalRules, r.OKCount, r.WarningCount, r.DeadCount)
	if r.WarningCount+r.DeadCount > 0 {
		msg += " Fix the WARNING and DEAD rules listed in 'results'."
	}

	return msg
}
