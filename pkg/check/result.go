package check

import (
	"github.com/macropower/rulesdoctor/pkg/rule"
)

// Status classifies a [Result].
type Status string

const (
	// StatusOK means the rule applies to at least one file, or to all files.
	StatusOK Status = "OK"
	// StatusWarning means the rule header is malformed.
	StatusWarning Status = "WARNING"
	// StatusDead means the rule declares paths that match no files.
	StatusDead Status = "DEAD"
)

// Statuses lists every [Status] in report order.
var Statuses = []Status{StatusOK, StatusWarning, StatusDead}

func (s Status) String() string {
	return string(s)
}

// Result is the outcome of evaluating one [rule.Document].
type Result struct {
	Document *rule.Document `json:"rule"`
	Status   Status         `json:"status"`
	Message  string         `json:"message"`
	// MatchedFiles are root-relative, slash separated, sorted and unique.
	MatchedFiles []string `json:"matchedFiles"`
	// Suggestions holds similarly named files for dead rules.
	Suggestions []string `json:"suggestions,omitempty"`
}

func newResult(doc *rule.Document, status Status, msg string, matched []string) Result {
	if matched == nil {
		matched = []string{}
	}

	return Result{
		Document:     doc,
		Status:       status,
		Message:      msg,
		MatchedFiles: matched,
	}
}
