package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario compiles one declared query against the lists its specs
// declare and checks the CAML it produces.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists CUE spec files or directories to compile and load.
	// Paths are relative to the scenario file location.
	Specs []string `yaml:"specs"`

	// Catalogs lists YAML field catalogs (catalog.File format) seeded into
	// the store after the lists declared in Specs. A catalog replaces a
	// declared list of the same name.
	Catalogs []string `yaml:"catalogs,omitempty"`

	// Query names the query declared in Specs to compile.
	Query string `yaml:"query"`

	// Options override the execution options declared on the query.
	Options *Options `yaml:"options,omitempty"`

	// Expect holds the expected output. Only the fields present are checked.
	Expect *Expectation `yaml:"expect,omitempty"`
}

// Options are per-scenario overrides of a query's row_limit and recursive.
type Options struct {
	RowLimit  *uint32 `yaml:"row_limit,omitempty"`
	Recursive *bool   `yaml:"recursive,omitempty"`
}

// Expectation specifies expected compiler output.
// A nil field is not checked; an empty string expects an empty fragment.
type Expectation struct {
	View      *string `yaml:"view_fields,omitempty"`
	Filter    *string `yaml:"filter,omitempty"`
	OrderBy   *string `yaml:"order_by,omitempty"`
	QueryText *string `yaml:"query_text,omitempty"`
	Folder    *string `yaml:"folder,omitempty"`

	// ErrorCode expects compilation to fail with this caml error code.
	ErrorCode string `yaml:"error_code,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Spec and catalog paths are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving relative spec and catalog paths against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields so "expects:" is an error, not a silent no-op.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	resolve := func(paths []string) {
		for i, p := range paths {
			if !filepath.IsAbs(p) && basePath != "" {
				paths[i] = filepath.Join(basePath, p)
			}
		}
	}
	resolve(scenario.Specs)
	resolve(scenario.Catalogs)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}

	if s.Query == "" {
		return fmt.Errorf("query is required")
	}

	for _, p := range append(append([]string{}, s.Specs...), s.Catalogs...) {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}

	if e := s.Expect; e != nil && e.ErrorCode != "" {
		if e.View != nil || e.Filter != nil || e.OrderBy != nil || e.QueryText != nil || e.Folder != nil {
			return fmt.Errorf("expect: error_code cannot be combined with output fragments")
		}
	}

	return nil
}
