package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/rulesdoctor/pkg/log"
	"github.com/macropower/rulesdoctor/pkg/telemetry"
	"github.com/macropower/rulesdoctor/pkg/version"
)

const (
	cmdName = "rulesdoctor"
	cmdDesc = `Find dead and malformed path rules in .claude/rules.`
)

type RootArgs struct {
	shutdown     telemetry.ShutdownFunc
	LogLevel     string
	LogFormat    string
	OTLPEndpoint string
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "warn", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))
	cmd.PersistentFlags().
		StringVar(&ra.OTLPEndpoint, "otlp-endpoint", "", "Export traces to this OTLP/gRPC endpoint")

	var err error

	err = cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

// Shutdown flushes pending telemetry. It is safe to call more than once.
func (ra *RootArgs) Shutdown(ctx context.Context) {
	if ra.shutdown == nil {
		return
	}

	err := ra.shutdown(ctx)
	if err != nil {
		slog.WarnContext(ctx, "shut down telemetry", slog.Any("error", err))
	}

	ra.shutdown = nil
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()
	checkArgs := NewCheckArgs(args)

	checkCmd := NewCheckCmd(checkArgs)
	cmd := &cobra.Command{
		Use:               cmdName,
		Short:             cmdDesc,
		Example:           cmdExamples,
		PersistentPreRunE: setup(args),
		Args:              checkCmd.Args,
		RunE:              checkCmd.RunE,
	}

	args.AddFlags(cmd)
	checkArgs.AddFlags(cmd)
	cmd.AddCommand(
		checkCmd,
		NewMCPCmd(NewMCPArgs(args)),
		NewSchemaCmd(),
	)

	bindEnvVars(cmd)

	return cmd
}

func setup(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logHandler, err := log.CreateHandlerWithStrings(cmd.ErrOrStderr(), ra.LogLevel, ra.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(logHandler))

		ctx := cmd.Context()

		ra.shutdown, err = telemetry.Setup(ctx, ra.OTLPEndpoint, version.GetVersion())
		if err != nil {
			return fmt.Errorf("set up telemetry: %w", err)
		}

		slog.DebugContext(ctx, "starting", slog.String("version", version.Summary()))

		return nil
	}
}
