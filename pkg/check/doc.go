// Package check classifies rule documents by resolving their path patterns
// against a file tree.
//
// Each [rule.Document] yields exactly one [Result]. Malformed headers and
// patterns never surface as errors; they are reported as [StatusWarning]
// results. Rules whose patterns match nothing are [StatusDead].
package check
