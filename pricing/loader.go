package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// LoadTables reads a YAML file and overlays it on DefaultTables. Keys missing
// from the file keep their default values; step tables and the parking list
// present in the file replace the defaults entirely.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pricing: read tables %q: %w", path, err)
	}
	return ParseTables(data)
}

// ParseTables is LoadTables for an in-memory document.
func ParseTables(data []byte) (*Tables, error) {
	// Unknown keys are caught against an empty value; the overlay itself is
	// decoded leniently so it merges into the default maps.
	if err := yaml.UnmarshalStrict(data, &Tables{}); err != nil {
		return nil, fmt.Errorf("pricing: parse tables: %w", err)
	}

	t := DefaultTables()
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("pricing: parse tables: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
