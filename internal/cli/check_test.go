package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulesdoctor/internal/cli"
	"github.com/macropower/rulesdoctor/pkg/config"
)

const (
	tsRule     = "---\npaths:\n  - \"src/**/*.ts\"\n---\n# TypeScript\n"
	pyRule     = "---\npaths: \"**/*.py\"\n---\n# Python\n"
	globalRule = "# Always applies\n"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	cmd := cli.NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := cmd.ExecuteContext(t.Context())

	return out.String(), err
}

func TestCheck(t *testing.T) {
	t.Parallel()

	project := map[string]string{
		".claude/rules/typescript.md": tsRule,
		".claude/rules/python.md":     pyRule,
		".claude/rules/global.md":     globalRule,
		"src/app/index.ts":            "",
	}

	tcs := map[string]struct {
		files     map[string]string
		args      []string
		want      []string
		notWant   []string
		exact     string
		errTarget error
	}{
		"missing rules directory": {
			files: map[string]string{"src/main.go": ""},
			args:  []string{"check"},
			exact: "Directory .claude/rules/ does not exist\n",
		},
		"empty rules directory": {
			files: map[string]string{".claude/rules/notes.txt": ""},
			args:  []string{"check"},
			exact: "No rules found in .claude/rules/ (directory is empty)\n",
		},
		"console report": {
			files: project,
			args:  []string{"check", "--color", "never"},
			want: []string{
				"🔍 Rules Doctor - Check Results",
				"DEAD    .claude/rules/python.md",
				"OK      .claude/rules/global.md",
				"OK      .claude/rules/typescript.md",
				"  Total rules: 3\n",
				"Found 1 dead rule(s).",
			},
			notWant: []string{"\x1b["},
		},
		"default command": {
			files: project,
			args:  []string{"--color", "never"},
			want:  []string{"  Total rules: 3\n"},
		},
		"verbose lists matched files": {
			files: project,
			args:  []string{"check", "-v"},
			want: []string{
				"Matched files (1):",
				"- src/app/index.ts",
			},
		},
		"ci fails on dead rules": {
			files:     project,
			args:      []string{"check", "--ci"},
			want:      []string{"Total rules: 3"},
			errTarget: cli.ErrDeadRules,
		},
		"ci passes without dead rules": {
			files: map[string]string{
				".claude/rules/typescript.md": tsRule,
				"src/index.ts":                "",
			},
			args: []string{"check", "--ci"},
			want: []string{"Total rules: 1"},
		},
		"invalid color mode": {
			files:     project,
			args:      []string{"check", "--color", "rainbow"},
			errTarget: cli.ErrInvalidColorMode,
		},
		"config file sets the rules directory": {
			files: map[string]string{
				".rulesdoctor.yaml":    "rulesDir: docs/rules\n",
				"docs/rules/python.md": pyRule,
				"tools/build.py":       "",
			},
			args: []string{"check"},
			want: []string{"OK      docs/rules/python.md", "Total rules: 1"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := writeProject(t, tc.files)

			out, err := execute(t, append(tc.args, "--root", root)...)
			if tc.errTarget != nil {
				require.ErrorIs(t, err, tc.errTarget)
			} else {
				require.NoError(t, err)
			}

			if tc.exact != "" {
				assert.Equal(t, tc.exact, out)
			}
			for _, s := range tc.want {
				assert.Contains(t, out, s)
			}
			for _, s := range tc.notWant {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestCheck_JSON(t *testing.T) {
	t.Parallel()

	root := writeProject(t, map[string]string{
		".claude/rules/typescript.md": tsRule,
		".claude/rules/python.md":     pyRule,
		".claude/rules/broken.md":     "---\npaths: [unclosed\n---\n",
		"src/index.ts":                "",
	})

	out, err := execute(t, "check", "--json", "--root", root)
	require.NoError(t, err)

	var rep map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rep))

	assert.InDelta(t, 3, rep["totalRules"], 0)
	assert.InDelta(t, 1, rep["okCount"], 0)
	assert.InDelta(t, 1, rep["warningCount"], 0)
	assert.InDelta(t, 1, rep["deadCount"], 0)
	assert.Len(t, rep["results"], 3)
}

func TestCheck_InvalidConfig(t *testing.T) {
	t.Parallel()

	root := writeProject(t, map[string]string{
		".rulesdoctor.yaml": "concurrency: many\n",
	})

	_, err := execute(t, "check", "--root", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestCheck_MissingRoot(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "check", "--root", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestSchema(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "schema")
	require.NoError(t, err)

	want, err := config.Schema()
	require.NoError(t, err)

	assert.JSONEq(t, string(want), out)
	assert.Contains(t, out, "rulesDir")
}
