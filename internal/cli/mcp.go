package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/rulesdoctor/pkg/command"
	"github.com/macropower/rulesdoctor/pkg/config"
	"github.com/macropower/rulesdoctor/pkg/mcp"
)

type MCPArgs struct {
	*RootArgs

	Root       string
	ConfigPath string
	Address    string
}

func NewMCPArgs(ra *RootArgs) *MCPArgs {
	return &MCPArgs{RootArgs: ra}
}

func (ma *MCPArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ma.Root, "root", ".", "Directory that tool calls are confined to")
	cmd.Flags().StringVar(&ma.ConfigPath, "config", "", "Path to the configuration file")
	cmd.Flags().StringVar(&ma.Address, "address", "", "Serve streamable HTTP on this address instead of stdio")

	must(cmd.MarkFlagDirname("root"))
	must(cmd.MarkFlagFilename("config", "yaml", "yml"))
}

func NewMCPCmd(ma *MCPArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server exposing the check_rules tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd, ma)
		},
	}

	ma.AddFlags(cmd)
	bindEnvVars(cmd)

	return cmd
}

func runMCP(cmd *cobra.Command, ma *MCPArgs) error {
	ctx := cmd.Context()
	defer ma.Shutdown(ctx)

	cfg, _, err := config.Discover(ma.Root, ma.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	runner, err := command.NewRunner(ma.Root, command.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("create runner: %w", err)
	}
	defer func() {
		if err := runner.Close(); err != nil {
			slog.WarnContext(ctx, "close root", slog.Any("error", err))
		}
	}()

	server := mcp.NewServer(ma.Address, runner,
		mcp.WithRulesDir(cfg.RulesDir),
		mcp.WithMaxListedFiles(cfg.MaxListedFiles),
	)

	slog.InfoContext(ctx, "serving mcp",
		slog.String("root", runner.Root()),
		slog.String("address", ma.Address),
	)

	err = server.Serve(ctx)
	if err != nil {
		return fmt.Errorf("serve mcp: %w", err)
	}

	return nil
}
