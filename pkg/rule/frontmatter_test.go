package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulesdoctor/pkg/rule"
	"github.com/macropower/rulesdoctor/pkg/yaml"
)

func TestExtractFrontmatter(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		content  string
		wantBody string
		wantLine int
		wantOK   bool
	}{
		"simple block": {
			content:  "---\npaths: [a]\n---\n# Body\n",
			wantBody: "paths: [a]\n",
			wantLine: 1,
			wantOK:   true,
		},
		"leading blank lines": {
			content:  "\n  \n\t\n---\npaths: [a]\n---\nbody",
			wantBody: "paths: [a]\n",
			wantLine: 4,
			wantOK:   true,
		},
		"delimiters with trailing spaces": {
			content:  "---  \nowner: me\n---\t\n",
			wantBody: "owner: me\n",
			wantLine: 1,
			wantOK:   true,
		},
		"crlf line endings": {
			content:  "---\r\npaths:\r\n  - a\r\n---\r\n",
			wantBody: "paths:\n  - a\n",
			wantLine: 1,
			wantOK:   true,
		},
		"multi line body": {
			content:  "---\na: 1\nb: 2\n---\n",
			wantBody: "a: 1\nb: 2\n",
			wantLine: 1,
			wantOK:   true,
		},
		"empty block": {
			content:  "---\n---\n",
			wantBody: "",
			wantLine: 1,
			wantOK:   true,
		},
		"no frontmatter": {
			content: "# Just a rule\n\nAlways do X.\n",
		},
		"text before delimiter": {
			content: "intro\n---\npaths: [a]\n---\n",
		},
		"unterminated block": {
			content: "---\npaths: [a]\n",
		},
		"empty document": {
			content: "",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			body, line, ok := rule.ExtractFrontmatter([]byte(tc.content))
			require.Equal(t, tc.wantOK, ok)

			if tc.wantOK {
				assert.Equal(t, tc.wantBody, string(body))
				assert.Equal(t, tc.wantLine, line)
			}
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		content   string
		wantState rule.HeaderState
		wantFM    rule.Frontmatter
		wantErr   string
	}{
		"global rule": {
			content:   "# Global\n",
			wantState: rule.HeaderAbsent,
		},
		"paths array": {
			content:   "---\npaths:\n  - src/index.ts\n---\n",
			wantState: rule.HeaderPresent,
			wantFM:    rule.Frontmatter{"paths": []any{"src/index.ts"}},
		},
		"opaque keys kept": {
			content:   "---\npaths: src/**\ndescription: Frontend rules\nmeta:\n  owner: web\n---\n",
			wantState: rule.HeaderPresent,
			wantFM: rule.Frontmatter{
				"paths":       "src/**",
				"description": "Frontend rules",
				"meta":        map[string]any{"owner": "web"},
			},
		},
		"empty block is global": {
			content:   "---\n\n---\nbody\n",
			wantState: rule.HeaderAbsent,
		},
		"null document is global": {
			content:   "---\nnull\n---\n",
			wantState: rule.HeaderAbsent,
		},
		"invalid yaml": {
			content:   "---\npaths: [unclosed\n---\n",
			wantState: rule.HeaderInvalid,
			wantErr:   "YAML parse error: [",
		},
		"scalar frontmatter is global": {
			content:   "---\njust some text\n---\n",
			wantState: rule.HeaderAbsent,
		},
		"sequence frontmatter is global": {
			content:   "---\n- a\n- b\n---\n",
			wantState: rule.HeaderAbsent,
		},
		"duplicate key": {
			content:   "---\npaths: a\npaths: b\n---\n",
			wantState: rule.HeaderInvalid,
			wantErr:   "YAML parse error:",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			doc := rule.Parse("/abs/"+name+".md", name+".md", []byte(tc.content))
			require.NotNil(t, doc)

			assert.Equal(t, tc.wantState, doc.State())
			assert.Equal(t, tc.wantFM, doc.Frontmatter)

			if tc.wantErr == "" {
				require.NoError(t, doc.ParseError)

				return
			}

			require.ErrorIs(t, doc.ParseError, rule.ErrInvalidFrontmatter)
			assert.Contains(t, doc.ParseError.Error(), tc.wantErr)
			assert.Nil(t, doc.Frontmatter)
		})
	}
}

func TestParse_ErrorLineIsDocumentLine(t *testing.T) {
	t.Parallel()

	content := "\n\n---\nowner: me\npaths: [a\n---\n"

	doc := rule.Parse("/x.md", "x.md", []byte(content))
	require.Equal(t, rule.HeaderInvalid, doc.State())

	var yamlErr *yaml.Error
	require.ErrorAs(t, doc.ParseError, &yamlErr)

	line, _, ok := yamlErr.Position()
	require.True(t, ok)
	// The body starts on document line 4.
	assert.GreaterOrEqual(t, line, 4)
}

func TestFrontmatter_Paths(t *testing.T) {
	t.Parallel()

	v, ok := rule.Frontmatter{"paths": nil}.Paths()
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = rule.Frontmatter{"other": 1}.Paths()
	assert.False(t, ok)
}

func TestTypeName(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		value any
		want  string
	}{
		"nil":     {value: nil, want: "null"},
		"string":  {value: "a", want: "string"},
		"uint":    {value: uint64(42), want: "number"},
		"int":     {value: int64(-1), want: "number"},
		"float":   {value: 1.5, want: "number"},
		"bool":    {value: true, want: "boolean"},
		"slice":   {value: []any{1}, want: "array"},
		"mapping": {value: map[string]any{"a": 1}, want: "object"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, rule.TypeName(tc.value))
		})
	}
}

func TestHeaderState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "absent", rule.HeaderAbsent.String())
	assert.Equal(t, "present", rule.HeaderPresent.String())
	assert.Equal(t, "invalid", rule.HeaderInvalid.String())
	assert.Equal(t, "HeaderState(9)", rule.HeaderState(9).String())
}
