// Package command runs the rule check pipeline: it loads the rule documents
// below a directory, evaluates them and aggregates a [report.Report].
package command

import (
	"time"

	"github.com/macropower/rulesdoctor/pkg/report"
)

// Output is the outcome of one [Runner.Run].
type Output struct {
	Timestamp time.Time
	Error     error
	Report    *report.Report
	// Dir is the absolute directory that was checked.
	Dir string
}

// NewOutput creates a new [Output] timestamped with the current time.
func NewOutput(dir string, opts ...OutputOpt) Output {
	o := &Output{
		Dir:       dir,
		Timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return *o
}

type OutputOpt func(*Output)

// WithError sets the error for the output.
func WithError(err error) OutputOpt {
	return func(o *Output) {
		o.Error = err
	}
}

// WithReport sets the report for the output.
func WithReport(r *report.Report) OutputOpt {
	return func(o *Output) {
		o.Report = r
	}
}
