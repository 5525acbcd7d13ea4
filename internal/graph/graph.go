// Package graph builds an in-memory index over the manifest's dependency
// graph, including the derived reverse-dependency map.
package graph

import (
	"strings"

	"github.com/leapstack-labs/leapdoc/internal/manifest"
)

// ModelKind is the identifier kind that contributes reverse edges.
const ModelKind = "model"

// Index is a read-only view of the metadata graph. It owns the node mapping
// and a reverse-dependency map rebuilt in full at construction time.
type Index struct {
	nodes      map[string]*manifest.Node
	dependents map[string][]string // upstream id -> dependent ids, encounter order
}

// Build constructs an Index from a node mapping. Construction is
// deterministic: nodes are traversed in sorted id order, and only
// model-kind dependents contribute reverse edges. Dependents are appended
// in encounter order and never deduplicated.
func Build(m *manifest.Manifest) *Index {
	idx := &Index{
		nodes:      m.Nodes,
		dependents: make(map[string][]string),
	}

	for _, id := range m.NodeIDs() {
		if !IsModelID(id) {
			continue
		}
		for _, upstream := range m.Nodes[id].DependsOn.Nodes {
			idx.dependents[upstream] = append(idx.dependents[upstream], id)
		}
	}

	return idx
}

// IsModelID reports whether a node identifier is of kind "model".
// Identifiers are namespaced as "<kind>.<rest>".
func IsModelID(id string) bool {
	kind, _, _ := strings.Cut(id, ".")
	return kind == ModelKind
}

// Node returns the node for an id.
func (idx *Index) Node(id string) (*manifest.Node, bool) {
	node, ok := idx.nodes[id]
	return node, ok
}

// ReverseDependents returns the ids of the model-kind nodes that declare the
// given id as a dependency, or nil when nothing depends on it.
func (idx *Index) ReverseDependents(id string) []string {
	return idx.dependents[id]
}

// Dependencies returns the upstream node ids of the given node, or nil when
// the node is unknown or has none.
func (idx *Index) Dependencies(id string) []string {
	node, ok := idx.nodes[id]
	if !ok {
		return nil
	}
	return node.DependsOn.Nodes
}

// NodeCount returns the number of nodes in the index.
func (idx *Index) NodeCount() int {
	return len(idx.nodes)
}

// EdgeCount returns the number of reverse edges in the index.
func (idx *Index) EdgeCount() int {
	count := 0
	for _, deps := range idx.dependents {
		count += len(deps)
	}
	return count
}
