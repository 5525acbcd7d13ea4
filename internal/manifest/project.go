package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectName reads the "name" field from the project's dbt_project.yml.
// The name scopes patch paths as "<name>://models/...".
func ProjectName(projectDir string) (string, error) {
	path := filepath.Join(projectDir, "dbt_project.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read project descriptor %s: %w", path, err)
	}

	var descriptor struct {
		Name string `yaml:"name"`
	}
	if err := yaml.Unmarshal(data, &descriptor); err != nil {
		return "", fmt.Errorf("project descriptor deserialization failed: %w", err)
	}
	if descriptor.Name == "" {
		return "", fmt.Errorf("project descriptor %s has no name", path)
	}
	return descriptor.Name, nil
}

// Catalog maps model names to their column names, as recorded by the host
// build tool in target/catalog.json.
type Catalog map[string][]string

// LoadCatalog reads and parses a catalog.json file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var raw struct {
		Nodes map[string]struct {
			Metadata struct {
				Name string `json:"name"`
			} `json:"metadata"`
			Columns map[string]json.RawMessage `json:"columns"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("catalog deserialization failed: %w", err)
	}

	catalog := make(Catalog, len(raw.Nodes))
	for _, node := range raw.Nodes {
		cols := make([]string, 0, len(node.Columns))
		for name := range node.Columns {
			cols = append(cols, name)
		}
		catalog[node.Metadata.Name] = cols
	}
	return catalog, nil
}
