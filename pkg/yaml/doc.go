// Package yaml wraps [github.com/goccy/go-yaml] with errors that carry source
// positions, and with JSON schema generation and validation for YAML documents.
package yaml
