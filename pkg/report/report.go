// Package report aggregates [check.Result] values and renders them for the
// console or as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/macropower/rulesdoctor/pkg/check"
)

// Report summarizes one evaluation run.
type Report struct {
	TotalRules   int            `json:"totalRules"`
	OKCount      int            `json:"okCount"`
	WarningCount int            `json:"warningCount"`
	DeadCount    int            `json:"deadCount"`
	Results      []check.Result `json:"results"`
}

// New counts results by status. The results are kept in the given order.
func New(results []check.Result) *Report {
	if results == nil {
		results = []check.Result{}
	}

	r := &Report{
		TotalRules: len(results),
		Results:    results,
	}

	for _, res := range results {
		switch res.Status {
		case check.StatusOK:
			r.OKCount++
		case check.StatusWarning:
			r.WarningCount++
		case check.StatusDead:
			r.DeadCount++
		}
	}

	return r
}

// HasDead reports whether any result is [check.StatusDead].
func (r *Report) HasDead() bool {
	return r.DeadCount > 0
}

// Count returns the number of results with the given status.
func (r *Report) Count(s check.Status) int {
	switch s {
	case check.StatusOK:
		return r.OKCount
	case check.StatusWarning:
		return r.WarningCount
	case check.StatusDead:
		return r.DeadCount
	}

	return 0
}

// WriteJSON writes r to w as JSON indented by two spaces.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	err := enc.Encode(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	return nil
}
