// Package merge rewrites documentation references into YAML model
// declarations and writes the Markdown doc-block sidecars they point at.
// The merge is text-level and idempotent for a fixed input: only the
// "description" fields of matching entries change, everything else in the
// declaration file survives byte-for-byte through the yaml.Node round trip.
package merge

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapdoc/internal/generate"
)

const (
	docBlockPrefix   = "tql_generated_doc__"
	sidecarExtension = ".md"
)

// DocBlockName returns the deterministic doc-block name for a model.
func DocBlockName(nodeName string) string {
	return docBlockPrefix + nodeName
}

// ColumnDocBlockName returns the deterministic doc-block name for a column.
func ColumnDocBlockName(nodeName, columnName string) string {
	return docBlockPrefix + nodeName + "__" + columnName
}

// docRef renders the documentation-reference expression for a doc block.
func docRef(docName string) string {
	return fmt.Sprintf(`{{ doc("%s") }}`, docName)
}

// Merger performs the read-modify-write cycle on declaration files.
type Merger struct {
	baseDir     string
	projectName string
	dryRun      bool
	out         io.Writer
	logger      *slog.Logger
}

// New creates a Merger rooted at the project directory. In dry-run mode the
// would-be file contents are written to out instead of disk.
func New(baseDir, projectName string, dryRun bool, out io.Writer, logger *slog.Logger) *Merger {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Merger{
		baseDir:     baseDir,
		projectName: projectName,
		dryRun:      dryRun,
		out:         out,
		logger:      logger,
	}
}

// DeclarationPath resolves a patch path to a filesystem path, stripping the
// project-scoped URI prefix.
func (m *Merger) DeclarationPath(patchPath string) string {
	trimmed := strings.TrimPrefix(patchPath, m.projectName+"://")
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(m.baseDir, trimmed)
}

// InsertDocs merges all results destined for one declaration file in a
// single read-modify-write cycle. Entries whose name has no matching result
// are left untouched.
func (m *Merger) InsertDocs(patchPath string, results []*generate.Result) error {
	path := m.DeclarationPath(patchPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read declaration %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("declaration deserialization failed for %s: %w", path, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return fmt.Errorf("declaration %s is empty", path)
	}

	byName := make(map[string]*generate.Result, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}

	models := mapValue(doc.Content[0], "models")
	if models == nil || models.Kind != yaml.SequenceNode {
		return fmt.Errorf("declaration %s has no models sequence", path)
	}

	for _, model := range models.Content {
		if model.Kind != yaml.MappingNode {
			continue
		}
		name := scalarValue(model, "name")
		result, ok := byName[name]
		if !ok {
			continue
		}
		if err := m.applyResult(model, result); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("failed to serialize declaration %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to serialize declaration %s: %w", path, err)
	}

	m.logger.Info("adding descriptions", "models", len(results), "file", path)

	if m.dryRun {
		_, err := fmt.Fprintln(m.out, buf.String())
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write declaration %s: %w", path, err)
	}
	return nil
}

// applyResult rewrites one model entry's description, its matching columns'
// descriptions, and writes the corresponding sidecar files.
func (m *Merger) applyResult(model *yaml.Node, result *generate.Result) error {
	docName := DocBlockName(result.Name)
	if err := m.writeSidecar(result.OriginalFilePath, docName, result.Summary); err != nil {
		return err
	}
	setDescription(model, docRef(docName))

	columns := mapValue(model, "columns")
	if columns == nil || columns.Kind != yaml.SequenceNode {
		return nil
	}
	for _, col := range columns.Content {
		if col.Kind != yaml.MappingNode {
			continue
		}
		colName := scalarValue(col, "name")
		summary, ok := result.ColumnSummaries[colName]
		if !ok {
			continue
		}
		colDocName := ColumnDocBlockName(result.Name, colName)
		if err := m.writeSidecar(result.OriginalFilePath, colDocName, summary); err != nil {
			return err
		}
		setDescription(col, docRef(colDocName))
	}
	return nil
}

// writeSidecar emits one Markdown doc block next to the model's source file.
func (m *Merger) writeSidecar(originalFilePath, docName, body string) error {
	path := filepath.Join(m.baseDir, filepath.Dir(originalFilePath), docName+sidecarExtension)
	content := strings.Join([]string{
		"{% docs " + docName + " %}",
		body,
		"{% enddocs %}",
	}, "\n")

	m.logger.Info("writing doc block", "path", path)

	if m.dryRun {
		_, err := fmt.Fprintln(m.out, content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write doc block %s: %w", path, err)
	}
	return nil
}

// mapValue returns the value node for a key in a mapping, or nil.
func mapValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// scalarValue returns the string value for a key in a mapping, or "".
func scalarValue(mapping *yaml.Node, key string) string {
	if v := mapValue(mapping, key); v != nil && v.Kind == yaml.ScalarNode {
		return v.Value
	}
	return ""
}

// setDescription replaces the description value of a mapping entry, adding
// the key when absent. Only this field is ever mutated.
func setDescription(mapping *yaml.Node, value string) {
	if existing := mapValue(mapping, "description"); existing != nil {
		existing.SetString(value)
		return
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "description"},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}
