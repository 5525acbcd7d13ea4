// Package manifest reads the compiled metadata artifacts of a dbt project:
// the node graph in target/manifest.json, the project descriptor in
// dbt_project.yml, and the column catalog in target/catalog.json.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Depends holds the upstream references of a node or column.
type Depends struct {
	// Nodes lists upstream node unique ids, in manifest order
	Nodes []string `json:"nodes"`
	// Macros is preserved but not used for documentation generation
	Macros []string `json:"macros"`
	// Columns lists upstream column names a column inherits from
	Columns []string `json:"columns"`
}

// Column is one column of a documentable node.
type Column struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	DependsOn   Depends `json:"depends_on"`
}

// Node is one documentable unit (model, source, seed, ...).
type Node struct {
	UniqueID         string             `json:"unique_id"`
	Name             string             `json:"name"`
	ResourceType     string             `json:"resource_type"`
	OriginalFilePath string             `json:"original_file_path"`
	PatchPath        string             `json:"patch_path"`
	RawCode          string             `json:"raw_code"`
	Description      string             `json:"description"`
	FQN              []string           `json:"fqn"`
	Columns          map[string]*Column `json:"columns"`
	DependsOn        Depends            `json:"depends_on"`
}

// IsDocumented reports whether the node already carries a description.
// An empty string means undocumented; anything else counts as documented.
func (n *Node) IsDocumented() bool {
	return n.Description != ""
}

// IsStaging reports whether the node's qualified name path contains a
// "staging" segment.
func (n *Node) IsStaging() bool {
	for _, segment := range n.FQN {
		if segment == "staging" {
			return true
		}
	}
	return false
}

// UndocumentedColumns returns the node's columns whose description is exactly
// empty, sorted by name for deterministic processing.
func (n *Node) UndocumentedColumns() []*Column {
	var cols []*Column
	for _, col := range n.Columns {
		if col.Description == "" {
			cols = append(cols, col)
		}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
	return cols
}

// Manifest is the compiled metadata graph.
type Manifest struct {
	Nodes map[string]*Node `json:"nodes"`
}

// NodeIDs returns all node ids sorted lexicographically.
func (m *Manifest) NodeIDs() []string {
	ids := make([]string, 0, len(m.Nodes))
	for id := range m.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DocumentedNodes returns a read-only snapshot of the nodes that already
// carry a description. The snapshot is computed once at startup and never
// mutated mid-run.
func (m *Manifest) DocumentedNodes() map[string]*Node {
	documented := make(map[string]*Node)
	for id, node := range m.Nodes {
		if node.IsDocumented() {
			documented[id] = node
		}
	}
	return documented
}

// Load reads and parses a manifest.json file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes manifest JSON content.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest deserialization failed: %w", err)
	}
	if m.Nodes == nil {
		m.Nodes = make(map[string]*Node)
	}
	// Backfill column names when the manifest keys them only by map key
	for _, node := range m.Nodes {
		for name, col := range node.Columns {
			if col.Name == "" {
				col.Name = name
			}
		}
	}
	return &m, nil
}

// DefaultPath returns the conventional manifest location under a project root.
func DefaultPath(projectDir string) string {
	return filepath.Join(projectDir, "target", "manifest.json")
}
