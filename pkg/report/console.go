package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/termenv"

	"github.com/macropower/rulesdoctor/pkg/check"
	"github.com/macropower/rulesdoctor/pkg/yaml"
)

// DefaultMaxListedFiles is the number of matched files listed per rule in
// verbose output.
const DefaultMaxListedFiles = 10

const statusWidth = 7

var icons = map[check.Status]string{
	check.StatusOK:      "✅",
	check.StatusWarning: "⚠️",
	check.StatusDead:    "❌",
}

// Console renders a [Report] for humans.
type Console struct {
	w         io.Writer
	renderer  *lipgloss.Renderer
	styles    consoleStyles
	maxListed int
	verbose   bool
}

type consoleStyles struct {
	status map[check.Status]lipgloss.Style
	title  lipgloss.Style
	name   lipgloss.Style
	dim    lipgloss.Style
	footer lipgloss.Style
}

// ConsoleOpt configures a [Console].
type ConsoleOpt func(*Console)

// WithVerbose lists matched files, suggestions and source excerpts.
func WithVerbose(verbose bool) ConsoleOpt {
	return func(c *Console) {
		c.verbose = verbose
	}
}

// WithMaxListedFiles caps the matched files listed per rule.
func WithMaxListedFiles(n int) ConsoleOpt {
	return func(c *Console) {
		if n > 0 {
			c.maxListed = n
		}
	}
}

// WithColor enables or disables colors. By default colors are used when the
// writer is a terminal.
func WithColor(color bool) ConsoleOpt {
	return func(c *Console) {
		if color {
			c.renderer.SetColorProfile(termenv.ANSI256)
		} else {
			c.renderer.SetColorProfile(termenv.Ascii)
		}
	}
}

// WithColorProfile sets the color profile explicitly.
func WithColorProfile(p termenv.Profile) ConsoleOpt {
	return func(c *Console) {
		c.renderer.SetColorProfile(p)
	}
}

// NewConsole creates a new [Console] writing to w.
func NewConsole(w io.Writer, opts ...ConsoleOpt) *Console {
	c := &Console{
		w:         w,
		renderer:  lipgloss.NewRenderer(w),
		maxListed: DefaultMaxListedFiles,
	}
	for _, opt := range opts {
		opt(c)
	}

	r := c.renderer
	c.styles = consoleStyles{
		status: map[check.Status]lipgloss.Style{
			check.StatusOK:      r.NewStyle().Foreground(lipgloss.Color("2")),
			check.StatusWarning: r.NewStyle().Foreground(lipgloss.Color("3")),
			check.StatusDead:    r.NewStyle().Foreground(lipgloss.Color("1")),
		},
		title:  r.NewStyle().Bold(true),
		name:   r.NewStyle().Foreground(lipgloss.Color("8")),
		dim:    r.NewStyle().Faint(true),
		footer: r.NewStyle().Foreground(lipgloss.Color("3")),
	}

	return c
}

// Write renders rep.
func (c *Console) Write(rep *Report) error {
	var sb strings.Builder

	sb.WriteString("\n" + c.styles.title.Render("🔍 Rules Doctor - Check Results") + "\n\n")

	for _, res := range rep.Results {
		c.writeResult(&sb, res)
	}

	sb.WriteString(c.styles.title.Render("Summary:") + "\n")
	fmt.Fprintf(&sb, "  Total rules: %d\n", rep.TotalRules)

	labels := map[check.Status]string{
		check.StatusOK:      "✅ OK",
		check.StatusWarning: "⚠️  WARNING",
		check.StatusDead:    "❌ DEAD",
	}
	for _, s := range check.Statuses {
		fmt.Fprintf(&sb, "  %s: %d\n", c.styles.status[s].Render(labels[s]), rep.Count(s))
	}

	sb.WriteString("\n")

	if rep.HasDead() {
		msg := fmt.Sprintf("⚠️  Found %d dead rule(s). These rules won't apply to any files.", rep.DeadCount)
		sb.WriteString(c.styles.footer.Render(msg) + "\n\n")
	}

	_, err := io.WriteString(c.w, sb.String())
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func (c *Console) writeResult(sb *strings.Builder, res check.Result) {
	style := c.styles.status[res.Status]

	fmt.Fprintf(sb, "%s %s %s\n",
		style.Render(icons[res.Status]),
		style.Render(fmt.Sprintf("%-*s", statusWidth, res.Status)),
		c.styles.name.Render(res.Document.Name),
	)
	sb.WriteString(indent.String(c.styles.dim.Render(res.Message), 2) + "\n")

	if c.verbose {
		c.writeDetails(sb, res)
	}

	sb.WriteString("\n")
}

func (c *Console) writeDetails(sb *strings.Builder, res check.Result) {
	if n := len(res.MatchedFiles); n > 0 {
		sb.WriteString(c.dimLine(2, "Matched files (%s):", humanize.Comma(int64(n))))

		for _, f := range res.MatchedFiles[:min(n, c.maxListed)] {
			sb.WriteString(c.dimLine(4, "- %s", f))
		}

		if n > c.maxListed {
			sb.WriteString(c.dimLine(4, "... and %s more", humanize.Comma(int64(n-c.maxListed))))
		}
	}

	if len(res.Suggestions) > 0 {
		sb.WriteString(c.dimLine(2, "Similar files:"))

		for _, f := range res.Suggestions {
			sb.WriteString(c.dimLine(4, "- %s", f))
		}
	}

	var yerr *yaml.Error
	if res.Document.ParseError != nil && errors.As(res.Document.ParseError, &yerr) {
		if excerpt := yerr.Annotate(); excerpt != "" {
			for line := range strings.SplitSeq(excerpt, "\n") {
				sb.WriteString(c.dimLine(4, "%s", line))
			}
		}
	}
}

func (c *Console) dimLine(depth uint, format string, args ...any) string {
	return indent.String(c.styles.dim.Render(fmt.Sprintf(format, args...)), depth) + "\n"
}
