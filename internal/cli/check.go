package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/macropower/rulesdoctor/pkg/command"
	"github.com/macropower/rulesdoctor/pkg/config"
	"github.com/macropower/rulesdoctor/pkg/report"
	"github.com/macropower/rulesdoctor/pkg/rule"
)

const cmdExamples = `  # Check the rules of the current project.
  rulesdoctor check

  # Check another project and fail when dead rules are found.
  rulesdoctor check --root ./web --ci

  # Show the files each rule matches.
  rulesdoctor check -v

  # Write the report as JSON.
  rulesdoctor check --json > report.json

  # Serve the check over MCP on stdio.
  rulesdoctor mcp`

var (
	// ErrDeadRules is returned in CI mode when at least one rule is dead.
	ErrDeadRules = errors.New("dead rules found")

	// ErrInvalidColorMode is returned for unknown --color values.
	ErrInvalidColorMode = errors.New("invalid color mode")

	colorModes = []string{"auto", "always", "never"}
)

type CheckArgs struct {
	*RootArgs

	Root        string
	ConfigPath  string
	Color       string
	Concurrency int
	CI          bool
	JSON        bool
	Verbose     bool
}

func NewCheckArgs(ra *RootArgs) *CheckArgs {
	return &CheckArgs{RootArgs: ra}
}

func (ca *CheckArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ca.Root, "root", ".", "Project root directory")
	cmd.Flags().StringVar(&ca.ConfigPath, "config", "", "Path to the configuration file")
	cmd.Flags().StringVar(&ca.Color, "color", "auto", fmt.Sprintf("Color output, one of: %s", colorModes))
	cmd.Flags().IntVar(&ca.Concurrency, "concurrency", 0, "Maximum number of rules to evaluate at once")
	cmd.Flags().BoolVar(&ca.CI, "ci", false, "Exit with an error when dead rules are found")
	cmd.Flags().BoolVar(&ca.JSON, "json", false, "Write the report as JSON")
	cmd.Flags().BoolVarP(&ca.Verbose, "verbose", "v", false, "Show matched files and suggestions")

	must(cmd.MarkFlagDirname("root"))
	must(cmd.MarkFlagFilename("config", "yaml", "yml"))
	must(cmd.RegisterFlagCompletionFunc("color",
		cobra.FixedCompletions(colorModes, cobra.ShellCompDirectiveNoFileComp),
	))
}

func NewCheckCmd(ca *CheckArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "check",
		Short:   "Check path rules for dead and invalid patterns",
		Example: cmdExamples,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, ca)
		},
	}

	ca.AddFlags(cmd)
	bindEnvVars(cmd)

	return cmd
}

func runCheck(cmd *cobra.Command, ca *CheckArgs) error {
	ctx := cmd.Context()
	defer ca.Shutdown(ctx)

	w := cmd.OutOrStdout()

	colorOpt, err := consoleColor(ca.Color, w)
	if err != nil {
		return err
	}

	cfg, cfgPath, err := config.Discover(ca.Root, ca.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfgPath != "" {
		slog.DebugContext(ctx, "loaded config", slog.String("path", cfgPath))
	}
	if ca.Concurrency > 0 {
		cfg.Concurrency = ca.Concurrency
	}

	runner, err := command.NewRunner(ca.Root, command.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("create runner: %w", err)
	}
	defer func() {
		if err := runner.Close(); err != nil {
			slog.WarnContext(ctx, "close root", slog.Any("error", err))
		}
	}()

	out := runner.Run(ctx, "")

	if errors.Is(out.Error, rule.ErrNoRulesDir) {
		return writeLine(w, "Directory %s/ does not exist", cfg.RulesDir)
	}
	if out.Error != nil {
		return out.Error
	}

	rep := out.Report
	if rep.TotalRules == 0 {
		return writeLine(w, "No rules found in %s/ (directory is empty)", cfg.RulesDir)
	}

	if ca.JSON {
		err = report.WriteJSON(w, rep)
	} else {
		err = report.NewConsole(w,
			report.WithVerbose(ca.Verbose),
			report.WithMaxListedFiles(cfg.MaxListedFiles),
			colorOpt,
		).Write(rep)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if ca.CI && rep.HasDead() {
		return fmt.Errorf("%w: found %d dead rule(s)", ErrDeadRules, rep.DeadCount)
	}

	return nil
}

// consoleColor maps a --color value to a console option. In auto mode color
// is only enabled when w is a terminal.
func consoleColor(mode string, w io.Writer) (report.ConsoleOpt, error) {
	switch mode {
	case "always":
		return report.WithColor(true), nil
	case "never":
		return report.WithColor(false), nil
	case "auto":
		f, ok := w.(*os.File)

		return report.WithColor(ok && term.IsTerminal(int(f.Fd())) && os.Getenv("NO_COLOR") == ""), nil
	}

	return nil, fmt.Errorf("%w %q, one of: %s", ErrInvalidColorMode, mode, colorModes)
}

func writeLine(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format+"\n", args...)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}
