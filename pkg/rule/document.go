package rule

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// PathsKey is the frontmatter key holding a rule's path patterns.
const PathsKey = "paths"

// HeaderState describes the frontmatter of a [Document].
type HeaderState int

const (
	// HeaderAbsent means the document has no frontmatter block.
	HeaderAbsent HeaderState = iota
	// HeaderPresent means the frontmatter block was parsed successfully.
	HeaderPresent
	// HeaderInvalid means a frontmatter block exists but could not be parsed.
	HeaderInvalid
)

func (s HeaderState) String() string {
	switch s {
	case HeaderAbsent:
		return "absent"
	case HeaderPresent:
		return "present"
	case HeaderInvalid:
		return "invalid"
	}

	return fmt.Sprintf("HeaderState(%d)", int(s))
}

// Frontmatter is the decoded frontmatter mapping. Keys other than [PathsKey]
// are kept as-is.
type Frontmatter map[string]any

// Paths returns the raw value of the paths key and whether the key exists.
func (f Frontmatter) Paths() (any, bool) {
	v, ok := f[PathsKey]

	return v, ok
}

// Document is a loaded rule document. It is not modified after loading.
type Document struct {
	// Frontmatter is nil unless State is [HeaderPresent].
	Frontmatter Frontmatter
	// ParseError is set when State is [HeaderInvalid].
	ParseError error
	// Path is the absolute path of the document.
	Path string
	// Name is the path relative to the evaluation root, slash separated.
	Name string
}

// State reports which of the three frontmatter states holds.
func (d *Document) State() HeaderState {
	switch {
	case d.ParseError != nil:
		return HeaderInvalid
	case d.Frontmatter != nil:
		return HeaderPresent
	}

	return HeaderAbsent
}

type documentJSON struct {
	Frontmatter Frontmatter `json:"frontmatter"`
	FilePath    string      `json:"filePath"`
	Name        string      `json:"name"`
	ParseError  string      `json:"parseError,omitempty"`
}

func (d *Document) MarshalJSON() ([]byte, error) {
	out := documentJSON{
		FilePath:    d.Path,
		Name:        d.Name,
		Frontmatter: d.Frontmatter,
	}
	if d.ParseError != nil {
		out.ParseError = d.ParseError.Error()
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal document %s: %w", d.Name, err)
	}

	return b, nil
}

// TypeName names the type of a decoded YAML value: "null", "string",
// "number", "boolean", "array" or "object".
func TypeName(v any) string {
	if v == nil {
		return "null"
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}
