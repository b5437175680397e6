package rule_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulesdoctor/pkg/rule"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".claude/rules/b.md":             "# b",
		".claude/rules/a.md":             "# a",
		".claude/rules/nested/deep/c.md": "# c",
		".claude/rules/notes.txt":        "ignored",
		".claude/other.md":               "ignored",
	})

	got, err := rule.Find(root)
	require.NoError(t, err)

	dir := filepath.Join(root, ".claude", "rules")
	assert.Equal(t, []string{
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "b.md"),
		filepath.Join(dir, "nested", "deep", "c.md"),
	}, got)
}

func TestFind_HiddenEntries(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".claude/rules/a.md":          "# a",
		".claude/rules/.drafts/x.md":  "# draft",
		".claude/rules/.wip.md":       "# wip",
		".claude/rules/team/.old.md":  "# old",
		".claude/rules/team/style.md": "# style",
	})

	got, err := rule.Find(root)
	require.NoError(t, err)

	dir := filepath.Join(root, ".claude", "rules")
	assert.Equal(t, []string{
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "team", "style.md"),
	}, got)
}

func TestFind_Symlinks(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".claude/rules/a.md":      "# a",
		"shared/linked/nested.md": "# nested",
		"shared/file.md":          "# file",
	})

	dir := filepath.Join(root, ".claude", "rules")
	if err := os.Symlink(dir, filepath.Join(dir, "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(root, "shared", "linked"), filepath.Join(dir, "dir.md")))
	require.NoError(t, os.Symlink(filepath.Join(root, "shared", "file.md"), filepath.Join(dir, "file.md")))

	got, err := rule.Find(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "file.md"),
	}, got)
}

func TestFind_CustomDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"docs/rules/x.md": "# x",
	})

	got, err := rule.Find(root, rule.WithDir("docs/rules"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "docs", "rules", "x.md")}, got)
}

func TestFind_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()

		_, err := rule.Find(t.TempDir())
		require.ErrorIs(t, err, rule.ErrNoRulesDir)
	})

	t.Run("rules path is a file", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeFiles(t, root, map[string]string{".claude/rules": "not a dir"})

		_, err := rule.Find(root)
		require.ErrorIs(t, err, rule.ErrNoRulesDir)
	})

	t.Run("empty directory", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, ".claude", "rules"), 0o755))

		got, err := rule.Find(root)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestLoadAll(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".claude/rules/global.md":       "# Always\n",
		".claude/rules/valid.md":        "---\npaths:\n  - src/index.ts\n---\n# Valid\n",
		".claude/rules/invalid-yaml.md": "---\npaths: [\n---\n",
		".claude/rules/team/web.md":     "---\npaths: web/**\n---\n",
	})

	docs, err := rule.LoadAll(t.Context(), root, rule.WithConcurrency(2))
	require.NoError(t, err)
	require.Len(t, docs, 4)

	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Name)
		assert.True(t, filepath.IsAbs(d.Path))
	}

	assert.Equal(t, []string{
		".claude/rules/global.md",
		".claude/rules/invalid-yaml.md",
		".claude/rules/team/web.md",
		".claude/rules/valid.md",
	}, names)

	assert.Equal(t, rule.HeaderAbsent, docs[0].State())
	assert.Equal(t, rule.HeaderInvalid, docs[1].State())
	assert.Equal(t, rule.HeaderPresent, docs[2].State())
	assert.Equal(t, rule.HeaderPresent, docs[3].State())

	// Loading twice yields the same documents.
	again, err := rule.LoadAll(t.Context(), root)
	require.NoError(t, err)
	assert.Equal(t, docs, again)
}

func TestLoadAll_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := rule.LoadAll(t.Context(), t.TempDir())
	require.ErrorIs(t, err, rule.ErrNoRulesDir)
}

func TestLoad_ReadError(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	_, err := rule.Load(filepath.Join(root, "missing.md"), root)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDocument_MarshalJSON(t *testing.T) {
	t.Parallel()

	doc := rule.Parse("/repo/.claude/rules/a.md", ".claude/rules/a.md", []byte("---\npaths: [x]\n---\n"))

	b, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"filePath": "/repo/.claude/rules/a.md",
		"name": ".claude/rules/a.md",
		"frontmatter": {"paths": ["x"]}
	}`, string(b))

	bad := rule.Parse("/b.md", "b.md", []byte("---\npaths: [x\n---\n"))

	b, err = bad.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"parseError":"YAML parse error: [`)
	assert.Contains(t, string(b), `"frontmatter":null`)
}
