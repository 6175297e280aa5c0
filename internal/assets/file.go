package assets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultOptionsFile is the option file read from the project root.
const DefaultOptionsFile = "assets.yaml"

// LoadOptions reads options from a YAML file on top of DefaultOptions. A
// missing file yields the defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return opts, nil
		}
		return Options{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil {
		if errors.Is(err, io.EOF) {
			return opts, nil
		}
		return Options{}, fmt.Errorf("%w: %s: %w", ErrInvalidOptions, path, err)
	}

	return opts, nil
}
