package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML form of one or more list schemas:
//
//	lists:
//	  Grants:
//	    - title: Fund
//	      internal: Fund_x002d_Name
//	      type: Text
type File struct {
	Lists map[string][]Entry `yaml:"lists"`
}

// LoadYAML reads list schemas from a YAML file.
func LoadYAML(path string) (Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return DecodeYAML(bytes.NewReader(data))
}

// DecodeYAML parses list schemas. Unknown keys are rejected so typos
// like "interal:" fail loudly instead of producing empty names.
func DecodeYAML(r io.Reader) (Static, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(f.Lists) == 0 {
		return nil, fmt.Errorf("catalog file defines no lists")
	}

	for list, entries := range f.Lists {
		for i, e := range entries {
			if e.InternalName == "" {
				return nil, fmt.Errorf("lists.%s[%d]: internal is required", list, i)
			}
			if e.Type == "" {
				return nil, fmt.Errorf("lists.%s[%d]: type is required", list, i)
			}
		}
		if _, err := New(entries...); err != nil {
			return nil, fmt.Errorf("lists.%s: %w", list, err)
		}
	}

	return Static(f.Lists), nil
}
