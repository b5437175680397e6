package config

import (
	"slices"

	"github.com/macropower/rulesdoctor/pkg/files"
	"github.com/macropower/rulesdoctor/pkg/report"
	"github.com/macropower/rulesdoctor/pkg/rule"
	"github.com/macropower/rulesdoctor/pkg/yaml"
)

const schemaURL = "/rulesdoctor.schema.json"

var (
	// FileNames contains the valid names for configuration files, in lookup order.
	FileNames = []string{
		".rulesdoctor.yaml",
		"rulesdoctor.yaml",
	}

	// DefaultValidator validates configuration data against the schema of [Config].
	DefaultValidator = yaml.MustNewValidator(schemaURL, mustSchema())
)

// Config is the project configuration.
type Config struct {
	// RulesDir is the directory holding rule documents, relative to the root.
	RulesDir string `json:"rulesDir,omitempty" jsonschema:"title=Rules Directory,default=.claude/rules"`
	// Exclude lists directory names that are never matched, at any depth.
	Exclude []string `json:"exclude,omitempty" jsonschema:"title=Excluded Directories,uniqueItems=true"`
	// Concurrency limits parallel work. Zero uses one worker per CPU.
	Concurrency int `json:"concurrency,omitempty" jsonschema:"title=Concurrency,minimum=0"`
	// MaxListedFiles caps the matched files listed per rule in verbose output.
	MaxListedFiles int `json:"maxListedFiles,omitempty" jsonschema:"title=Max Listed Files,minimum=1,default=10"`
}

// New returns a [Config] with all defaults set.
func New() *Config {
	c := &Config{}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults fills unset fields.
func (c *Config) EnsureDefaults() {
	if c.RulesDir == "" {
		c.RulesDir = rule.DefaultDir
	}
	if c.Exclude == nil {
		c.Exclude = slices.Clone(files.DefaultExclude)
	}
	if c.MaxListedFiles == 0 {
		c.MaxListedFiles = report.DefaultMaxListedFiles
	}
}

// Schema returns the JSON schema of [Config].
func Schema() ([]byte, error) {
	return yaml.NewSchemaGenerator(&Config{}).Generate() //nolint:wrapcheck // Already wrapped.
}

func mustSchema() []byte {
	b, err := Schema()
	if err != nil {
		panic(err)
	}

	return b
}
