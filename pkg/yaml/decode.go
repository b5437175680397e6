package yaml

import (
	"errors"
	"io"

	"github.com/goccy/go-yaml"
)

// ErrEmptyDocument is returned by [Decoder.Decode] when the input holds no
// YAML document (it is empty or only contains comments).
var ErrEmptyDocument = errors.New("empty document")

type Decoder struct {
	d *yaml.Decoder
}

// NewDecoder returns a [Decoder] reading from r. Duplicate mapping keys are
// reported as errors.
func NewDecoder(r io.Reader, opts ...yaml.DecodeOption) *Decoder {
	return &Decoder{
		d: yaml.NewDecoder(r, opts...),
	}
}

// Decode decodes the next document into v. Syntax and type errors are
// returned as [*Error] so that callers can report the offending position.
func (d *Decoder) Decode(v any) error {
	err := d.d.Decode(v)
	if err == nil {
		return nil
	}

	if errors.Is(err, io.EOF) {
		return ErrEmptyDocument
	}

	var yamlErr yaml.Error
	if errors.As(err, &yamlErr) {
		return NewError(errors.New(yamlErr.GetMessage()), WithToken(yamlErr.GetToken()))
	}

	//nolint:wrapcheck // Not a yaml.Error, nothing to add.
	return err
}
