package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulesdoctor/pkg/config"
	"github.com/macropower/rulesdoctor/pkg/yaml"
)

func TestNew(t *testing.T) {
	t.Parallel()

	c := config.New()
	assert.Equal(t, ".claude/rules", c.RulesDir)
	assert.Equal(t, []string{"node_modules", ".git"}, c.Exclude)
	assert.Equal(t, 0, c.Concurrency)
	assert.Equal(t, 10, c.MaxListedFiles)
}

func TestSchema(t *testing.T) {
	t.Parallel()

	b, err := config.Schema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(b, &schema))

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "rulesDir")
	assert.Contains(t, props, "exclude")
	assert.Contains(t, props, "concurrency")
	assert.Contains(t, props, "maxListedFiles")
	assert.Equal(t, false, schema["additionalProperties"])
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		want     *config.Config
		input    string
		wantPath string
		wantErr  bool
	}{
		"empty file": {
			input: "",
			want:  config.New(),
		},
		"comments only": {
			input: "# nothing here\n",
			want:  config.New(),
		},
		"all fields": {
			input: "rulesDir: docs/rules\nexclude: [dist]\nconcurrency: 2\nmaxListedFiles: 3\n",
			want: &config.Config{
				RulesDir:       "docs/rules",
				Exclude:        []string{"dist"},
				Concurrency:    2,
				MaxListedFiles: 3,
			},
		},
		"unknown key": {
			input:    "rulesDir: x\nrulesdir: y\n",
			wantErr:  true,
			wantPath: "$",
		},
		"negative concurrency": {
			input:    "concurrency: -1\n",
			wantErr:  true,
			wantPath: "$.concurrency",
		},
		"zero max listed files": {
			input:    "maxListedFiles: 0\n",
			wantErr:  true,
			wantPath: "$.maxListedFiles",
		},
		"wrong exclude entry type": {
			input:    "exclude:\n  - dist\n  - 3\n",
			wantErr:  true,
			wantPath: "$.exclude[1]",
		},
		"syntax error": {
			input:   "rulesDir: [\n",
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := config.NewLoaderFromBytes([]byte(tc.input)).Load()
			if tc.wantErr {
				require.Error(t, err)

				var yamlErr *yaml.Error
				require.ErrorAs(t, err, &yamlErr)

				if tc.wantPath != "" {
					require.NotNil(t, yamlErr.Path)
					assert.Equal(t, tc.wantPath, yamlErr.Path.String())
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoader_ErrorSource(t *testing.T) {
	t.Parallel()

	input := "rulesDir: docs\nconcurrency: -4\n"

	_, err := config.NewLoaderFromBytes([]byte(input)).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[2:")

	var yamlErr *yaml.Error
	require.ErrorAs(t, err, &yamlErr)
	assert.Contains(t, yamlErr.Annotate(), "concurrency: -4")
}

type rejectAll struct{}

func (rejectAll) Validate(any) error {
	return assert.AnError
}

func TestLoader_WithValidator(t *testing.T) {
	t.Parallel()

	_, err := config.NewLoaderFromBytes([]byte("rulesDir: x\n"), config.WithValidator(rejectAll{})).Load()
	require.ErrorIs(t, err, assert.AnError)

	err = config.NewLoaderFromBytes([]byte("whatever: 1\n"), config.WithValidator(nil)).Validate()
	require.NoError(t, err)
}

func TestFind(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		setup func(t *testing.T) (string, string)
	}{
		"current directory": {
			setup: func(t *testing.T) (string, string) {
				t.Helper()

				dir := t.TempDir()
				p := filepath.Join(dir, ".rulesdoctor.yaml")
				require.NoError(t, os.WriteFile(p, nil, 0o600))

				return dir, p
			},
		},
		"parent directory": {
			setup: func(t *testing.T) (string, string) {
				t.Helper()

				dir := t.TempDir()
				p := filepath.Join(dir, "rulesdoctor.yaml")
				require.NoError(t, os.WriteFile(p, nil, 0o600))

				sub := filepath.Join(dir, "a", "b")
				require.NoError(t, os.MkdirAll(sub, 0o700))

				return sub, p
			},
		},
		"dotfile preferred": {
			setup: func(t *testing.T) (string, string) {
				t.Helper()

				dir := t.TempDir()
				p := filepath.Join(dir, ".rulesdoctor.yaml")
				require.NoError(t, os.WriteFile(p, nil, 0o600))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "rulesdoctor.yaml"), nil, 0o600))

				return dir, p
			},
		},
		"file path input": {
			setup: func(t *testing.T) (string, string) {
				t.Helper()

				dir := t.TempDir()
				p := filepath.Join(dir, ".rulesdoctor.yaml")
				require.NoError(t, os.WriteFile(p, nil, 0o600))

				f := filepath.Join(dir, "main.go")
				require.NoError(t, os.WriteFile(f, nil, 0o600))

				return f, p
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			start, want := tc.setup(t)

			got, err := config.Find(start)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()

		_, err := config.Find(filepath.Join(t.TempDir(), "missing"))
		require.Error(t, err)
	})
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	t.Run("explicit path", func(t *testing.T) {
		t.Parallel()

		p := filepath.Join(t.TempDir(), "custom.yaml")
		require.NoError(t, os.WriteFile(p, []byte("maxListedFiles: 5\n"), 0o600))

		c, got, err := config.Discover(t.TempDir(), p)
		require.NoError(t, err)
		assert.Equal(t, p, got)
		assert.Equal(t, 5, c.MaxListedFiles)
	})

	t.Run("invalid file", func(t *testing.T) {
		t.Parallel()

		p := filepath.Join(t.TempDir(), "custom.yaml")
		require.NoError(t, os.WriteFile(p, []byte("nope: true\n"), 0o600))

		_, _, err := config.Discover(t.TempDir(), p)
		require.ErrorContains(t, err, "load "+p)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		t.Parallel()

		_, _, err := config.Discover(t.TempDir(), filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
