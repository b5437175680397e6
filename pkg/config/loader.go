package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/macropower/rulesdoctor/pkg/yaml"
)

// Validator validates configuration data against a schema.
type Validator interface {
	Validate(data any) error
}

// LoaderOpt configures a [Loader].
type LoaderOpt func(*Loader)

// WithValidator replaces [DefaultValidator].
func WithValidator(v Validator) LoaderOpt {
	return func(l *Loader) {
		l.validator = v
	}
}

// Loader validates and decodes configuration data. Errors are returned as
// [*yaml.Error] values that can annotate the offending source lines.
type Loader struct {
	validator Validator
	yamlError *yaml.ErrorWrapper
	data      []byte
}

// NewLoaderFromBytes creates a [Loader] for data.
func NewLoaderFromBytes(data []byte, opts ...LoaderOpt) *Loader {
	l := &Loader{
		data:      data,
		validator: DefaultValidator,
		yamlError: yaml.NewErrorWrapper(
			yaml.WithSource(data),
			yaml.WithSourceLines(4),
		),
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// NewLoaderFromFile creates a [Loader] for the file at path.
func NewLoaderFromFile(path string, opts ...LoaderOpt) (*Loader, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: User-provided config path.
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return NewLoaderFromBytes(data, opts...), nil
}

// Validate checks the data against the schema. An empty file is valid.
func (l *Loader) Validate() error {
	var anyConfig any

	err := yaml.NewDecoder(bytes.NewReader(l.data)).Decode(&anyConfig)
	if errors.Is(err, yaml.ErrEmptyDocument) {
		return nil
	}
	if err != nil {
		return l.yamlError.Wrap(err)
	}
	if anyConfig == nil {
		return nil
	}

	if l.validator != nil {
		err = l.validator.Validate(anyConfig)
		if err != nil {
			return l.yamlError.Wrap(err)
		}
	}

	return nil
}

// Load validates the data and returns the decoded [Config] with defaults set.
func (l *Loader) Load() (*Config, error) {
	err := l.Validate()
	if err != nil {
		return nil, err
	}

	c := &Config{}

	err = yaml.NewDecoder(bytes.NewReader(l.data)).Decode(c)
	if err != nil && !errors.Is(err, yaml.ErrEmptyDocument) {
		return nil, l.yamlError.Wrap(err)
	}

	c.EnsureDefaults()

	return c, nil
}

// Find searches for a configuration file starting at targetPath and walking
// up to the filesystem root. It returns an empty string if none is found.
func Find(targetPath string) (string, error) {
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("get absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("stat path: %w", err)
	}

	searchDir := absPath
	if !info.IsDir() {
		searchDir = filepath.Dir(absPath)
	}

	for {
		for _, name := range FileNames {
			configPath := filepath.Join(searchDir, name)

			info, err := os.Stat(configPath)
			if err == nil && !info.IsDir() {
				return configPath, nil
			}
		}

		parent := filepath.Dir(searchDir)
		if parent == searchDir {
			return "", nil
		}

		searchDir = parent
	}
}

// Discover loads the configuration for root. If path is empty, [Find] is
// used; when no file exists the defaults are returned with an empty path.
func Discover(root, path string) (*Config, string, error) {
	if path == "" {
		found, err := Find(root)
		if err != nil {
			return nil, "", err
		}
		if found == "" {
			return New(), "", nil
		}

		path = found
	}

	l, err := NewLoaderFromFile(path)
	if err != nil {
		return nil, path, err
	}

	c, err := l.Load()
	if err != nil {
		return nil, path, fmt.Errorf("load %s: %w", path, err)
	}

	return c, path, nil
}
