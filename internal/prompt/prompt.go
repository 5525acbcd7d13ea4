// Package prompt builds the instruction text sent to the completion backend.
// All functions are pure: no I/O, no network access.
package prompt

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapdoc/internal/manifest"
)

// Literals embedded in table prompts when graph context is absent.
const (
	NoDependencies = "(No dependencies)"
	NoDependents   = "Not used by any other models"
)

const stagingClause = "\nThis is a staging model. Be sure to mention that in the summary.\n"

// TableDoc builds the table-level documentation prompt for a node, embedding
// its raw SQL and both directions of its dependency context.
func TableDoc(node *manifest.Node, reverseDeps []string) string {
	deps := NoDependencies
	if len(node.DependsOn.Nodes) > 0 {
		deps = strings.Join(node.DependsOn.Nodes, ",")
	}

	rdeps := NoDependents
	if len(reverseDeps) > 0 {
		rdeps = strings.Join(reverseDeps, ",")
	}

	staging := ""
	if node.IsStaging() {
		staging = stagingClause
	}

	return fmt.Sprintf(`Write markdown documentation to explain the following DBT model. Be clear and informative, but also accurate. The only information available is the metadata below.
Explain the raw SQL, then explain the dependencies. Do not list the SQL code or column names themselves; an explanation is sufficient.

Model name: %s
Raw SQL code: %s
Depends on: %s
Depended on by: %s
%s
First, generate a human-readable name for the table as the title (i.e. fct_orders -> # Orders Fact Table).
Then, describe the dependencies (both model dependencies and the warehouse tables used by the SQL.) Do this under ## Dependencies.
Then, describe what other models reference this model in ## How it's used
Then summarize the model logic in ## Summary.
`, node.Name, node.RawCode, deps, rdeps, staging)
}

// ColumnDoc builds the column-level documentation prompt. When an upstream
// node in documentedNodes has a column whose inherited-dependency reference
// matches this column's name, its description is included as inherited
// documentation context.
func ColumnDoc(node *manifest.Node, col *manifest.Column, documentedNodes map[string]*manifest.Node) string {
	var inherited []string
	for _, dep := range node.DependsOn.Nodes {
		upstream, ok := documentedNodes[dep]
		if !ok {
			continue
		}
		for _, name := range sortedColumnNames(upstream) {
			depCol := upstream.Columns[name]
			if slices.Contains(depCol.DependsOn.Columns, col.Name) {
				inherited = append(inherited, depCol.Description)
			}
		}
	}

	inheritance := ""
	if len(inherited) > 0 {
		inheritance = fmt.Sprintf(`This column is inherited from another model. Use this column's documentation from the original model
as context for writing the requested one and be sure to mention it alongside the name of the original model.
Inherited documentation: %s`, strings.Join(inherited, "\n\n"))
	}

	return fmt.Sprintf(`Write markdown documentation to explain the following DBT column in the context of the parent model and SQL code. Be clear and informative, but also accurate. The only information available is the metadata below.
Do not list the SQL code or column names themselves; an explanation is sufficient.

Column Name: %s
Parent Model name: %s
Raw SQL code: %s
%s

First, explain the meaning of the column in plain, non-technical English. Then, explain how the column is extracted in code.
If the column is calculated from other columns, explain how the calculation works.
If the column is derived from other columns, explain how those columns are extracted.
If the column is a inherited from another model, mention the original model and use the provided Inherited documentation (If there is any).
`, col.Name, node.Name, node.RawCode, inheritance)
}

// sortedColumnNames keeps inherited documentation blocks deterministic
// regardless of map iteration order.
func sortedColumnNames(node *manifest.Node) []string {
	names := make([]string, 0, len(node.Columns))
	for name := range node.Columns {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
