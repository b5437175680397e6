package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"
)

func NewPathBuilder() *yaml.PathBuilder {
	return &yaml.PathBuilder{}
}

// ErrorWrapper applies a fixed set of [ErrorOpt]s to every [*Error] it wraps.
type ErrorWrapper struct {
	Opts []ErrorOpt
}

func NewErrorWrapper(opts ...ErrorOpt) *ErrorWrapper {
	return &ErrorWrapper{
		Opts: opts,
	}
}

// Wrap adds context to err if it is an [*Error]. Other errors are returned
// unmodified.
func (ew *ErrorWrapper) Wrap(err error, opts ...ErrorOpt) error {
	if err == nil {
		return nil
	}

	var yamlErr *Error
	if !errors.As(err, &yamlErr) {
		return err
	}

	for _, opt := range ew.Opts {
		opt(yamlErr)
	}

	for _, opt := range opts {
		opt(yamlErr)
	}

	return yamlErr
}

// Error is a YAML error located either by a [*token.Token] or by a
// [*yaml.Path] into Source.
type Error struct {
	Err    error
	Path   *yaml.Path
	Token  *token.Token
	Source []byte
	// LineOffset is added to reported line numbers. It is used when the
	// decoded YAML is embedded in a larger document.
	LineOffset int
	// SourceLines is the number of lines shown around the error by [Error.Annotate].
	SourceLines int
}

func NewError(err error, opts ...ErrorOpt) *Error {
	e := &Error{
		Err:         err,
		SourceLines: 2,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

type ErrorOpt func(e *Error)

func WithSourceLines(lines int) ErrorOpt {
	return func(e *Error) {
		e.SourceLines = lines
	}
}

func WithPath(path *yaml.Path) ErrorOpt {
	return func(e *Error) {
		e.Path = path
	}
}

func WithToken(tk *token.Token) ErrorOpt {
	return func(e *Error) {
		e.Token = tk
	}
}

func WithSource(source []byte) ErrorOpt {
	return func(e *Error) {
		e.Source = source
	}
}

func WithLineOffset(offset int) ErrorOpt {
	return func(e *Error) {
		e.LineOffset = offset
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	if e.Err == nil {
		return ""
	}

	line, col, ok := e.Position()
	if ok {
		return fmt.Sprintf("[%d:%d] %v", line, col, e.Err)
	}
	if e.Path != nil {
		return fmt.Sprintf("error at %s: %v", e.Path.String(), e.Err)
	}

	return e.Err.Error()
}

// Position returns the one-based line and column of the error, including
// [Error.LineOffset]. It reports false when the position is unknown.
func (e *Error) Position() (int, int, bool) {
	tk := e.token()
	if tk == nil || tk.Position == nil {
		return 0, 0, false
	}

	return tk.Position.Line + e.LineOffset, tk.Position.Column, true
}

// Annotate renders the source lines around the error with a marker under the
// offending column. It returns an empty string when there is no source or no
// known position.
func (e *Error) Annotate() string {
	tk := e.token()
	if tk == nil || tk.Position == nil || len(e.Source) == 0 {
		return ""
	}

	lines := strings.Split(string(bytes.TrimRight(e.Source, "\n")), "\n")

	errLine := tk.Position.Line // One-based, relative to Source.
	if errLine < 1 || errLine > len(lines) {
		return ""
	}

	first := max(1, errLine-e.SourceLines)
	last := min(len(lines), errLine+e.SourceLines)
	width := len(strconv.Itoa(last + e.LineOffset))

	var sb strings.Builder
	for n := first; n <= last; n++ {
		marker := " "
		if n == errLine {
			marker = ">"
		}

		fmt.Fprintf(&sb, "%s %*d | %s\n", marker, width, n+e.LineOffset, lines[n-1])

		if n == errLine {
			pad := strings.Repeat(" ", width+5+max(0, tk.Position.Column-1))
			fmt.Fprintf(&sb, "%s^\n", pad)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (e *Error) token() *token.Token {
	if e.Token != nil {
		return e.Token
	}
	if e.Path == nil || len(e.Source) == 0 {
		return nil
	}

	tk, err := getTokenFromPath(e.Source, e.Path)
	if err != nil {
		return nil
	}

	return tk
}

func getTokenFromPath(source []byte, path *yaml.Path) (*token.Token, error) {
	file, err := parser.ParseBytes(source, 0)
	if err != nil {
		return nil, fmt.Errorf("parse source bytes into ast.File: %w", err)
	}

	node, err := path.FilterFile(file)
	if err != nil {
		return nil, fmt.Errorf("filter from ast.File by YAMLPath: %w", err)
	}

	// FilterFile returns the value node; point at the key when there is one.
	if keyToken := findKeyToken(file, path); keyToken != nil {
		return keyToken, nil
	}

	return node.GetToken(), nil
}

func findKeyToken(file *ast.File, path *yaml.Path) *token.Token {
	pathStr := path.String()

	lastDot := strings.LastIndex(pathStr, ".")
	lastBracket := strings.LastIndex(pathStr, "[")

	// Root, or an array index: no key.
	if lastDot == -1 || lastDot <= lastBracket {
		return nil
	}

	parentPath, err := yaml.PathString(pathStr[:lastDot])
	if err != nil {
		return nil
	}

	parentNode, err := parentPath.FilterFile(file)
	if err != nil {
		return nil
	}

	var values []*ast.MappingValueNode

	switch n := parentNode.(type) {
	case *ast.MappingNode:
		values = n.Values
	case *ast.MappingValueNode:
		values = []*ast.MappingValueNode{n}
	default:
		return nil
	}

	key := pathStr[lastDot+1:]
	for _, val := range values {
		if val.Key.String() == key {
			return val.Key.GetToken()
		}
	}

	return nil
}
