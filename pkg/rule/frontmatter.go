package rule

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/macropower/rulesdoctor/pkg/yaml"
)

const delimiter = "---"

// ErrInvalidFrontmatter wraps every frontmatter parse failure.
var ErrInvalidFrontmatter = errors.New("YAML parse error")

// ExtractFrontmatter locates the frontmatter block of content. The opening
// delimiter must be the first non-blank line; the block ends at the next
// delimiter line. It returns the block body and the one-based line number of
// the opening delimiter. ok is false when there is no complete block.
func ExtractFrontmatter(content []byte) ([]byte, int, bool) {
	lines := bytes.SplitAfter(content, []byte("\n"))

	open := -1
	for i, line := range lines {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		if string(trimmed) != delimiter {
			return nil, 0, false
		}

		open = i

		break
	}

	if open == -1 {
		return nil, 0, false
	}

	for i := open + 1; i < len(lines); i++ {
		if string(bytes.TrimSpace(lines[i])) == delimiter {
			body := bytes.Join(lines[open+1:i], nil)

			return bytes.ReplaceAll(body, []byte("\r\n"), []byte("\n")), open + 1, true
		}
	}

	return nil, 0, false
}

// ParseFrontmatter decodes a frontmatter body. An empty body, or one that
// decodes to anything other than a mapping, yields a nil [Frontmatter] and no
// error: such a header declares no paths. lineOffset is added to the line
// numbers in error messages.
func ParseFrontmatter(body []byte, lineOffset int) (Frontmatter, error) {
	ew := yaml.NewErrorWrapper(
		yaml.WithSource(body),
		yaml.WithLineOffset(lineOffset),
	)

	var v any

	err := yaml.NewDecoder(bytes.NewReader(body)).Decode(&v)
	if errors.Is(err, yaml.ErrEmptyDocument) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFrontmatter, ew.Wrap(err))
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, nil
	}

	return Frontmatter(m), nil
}

// Parse builds a [Document] from the content of the file at path. It never
// fails: frontmatter errors are stored in [Document.ParseError].
func Parse(path, name string, content []byte) *Document {
	doc := &Document{
		Path: path,
		Name: name,
	}

	body, line, ok := ExtractFrontmatter(content)
	if !ok {
		return doc
	}

	doc.Frontmatter, doc.ParseError = ParseFrontmatter(body, line)

	return doc
}
