package params

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML (or JSON) parameter file on top of Defaults and
// validates the result.
func LoadFile(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, err
	}
	p, err := Parse(data)
	if err != nil {
		return Params{}, fmt.Errorf("load %s: %w", path, err)
	}
	return p, nil
}

// Parse reads YAML or JSON parameters over Defaults and validates them.
func Parse(data []byte) (Params, error) {
	p := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Params{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Marshal renders p as YAML in the same shape Parse accepts.
func Marshal(p Params) ([]byte, error) {
	return yaml.Marshal(p)
}
