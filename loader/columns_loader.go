package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadColumnsFromYAML reads a table to column list mapping used to generate
// without a database:
//
//	vehicle: [id, year, model_name]
//	car: [id, doors]
func LoadColumnsFromYAML(filename string) (map[string][]string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading columns file: %w", err)
	}

	var columns map[string][]string
	if err := yaml.Unmarshal(data, &columns); err != nil {
		return nil, fmt.Errorf("parsing columns file: %w", err)
	}
	for table, cols := range columns {
		if len(cols) == 0 {
			return nil, fmt.Errorf("table %s lists no columns", table)
		}
	}
	return columns, nil
}
