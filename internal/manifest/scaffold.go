package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ScaffoldDeclaration writes a minimal "version: 2" YAML declaration for a
// node that has no patch path, using the catalog to enumerate its columns.
// Returns the path of the written file.
func ScaffoldDeclaration(projectDir string, node *Node, catalog Catalog) (string, error) {
	cols := append([]string(nil), catalog[node.Name]...)
	sort.Strings(cols)

	columns := make([]map[string]string, 0, len(cols))
	for _, name := range cols {
		columns = append(columns, map[string]string{"name": name})
	}

	declaration := map[string]any{
		"version": 2,
		"models": []map[string]any{
			{
				"name":    node.Name,
				"columns": columns,
			},
		},
	}

	out, err := yaml.Marshal(declaration)
	if err != nil {
		return "", fmt.Errorf("failed to serialize declaration for %s: %w", node.Name, err)
	}

	path := filepath.Join(projectDir, filepath.Dir(node.OriginalFilePath), node.Name+".yml")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", fmt.Errorf("failed to write declaration %s: %w", path, err)
	}
	return path, nil
}
