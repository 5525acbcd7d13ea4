package generate_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdoc/internal/generate"
	"github.com/leapstack-labs/leapdoc/internal/manifest"
	"github.com/leapstack-labs/leapdoc/internal/merge"
	"github.com/leapstack-labs/leapdoc/internal/testutil"
	"github.com/leapstack-labs/leapdoc/internal/tokens"
)

// echoClient answers every prompt with the prompt itself, so generated files
// carry the graph context they were built from.
type echoClient struct{}

func (echoClient) Complete(_ context.Context, prompt string) (string, error) {
	return prompt, nil
}

type tenTokens struct{}

func (tenTokens) Count(string) (int, error) { return 10, nil }

const stagingDeclaration = `version: 2

models:
  - name: stg_orders
    description: ""
    columns:
      - name: order_id
        description: ""
`

func testManifest() *manifest.Manifest {
	return &manifest.Manifest{Nodes: map[string]*manifest.Node{
		"model.p.stg_orders": {
			UniqueID:         "model.p.stg_orders",
			Name:             "stg_orders",
			ResourceType:     "model",
			PatchPath:        "p://models/staging/schema.yml",
			OriginalFilePath: "models/staging/stg_orders.sql",
			RawCode:          "select * from raw.orders",
			FQN:              []string{"p", "staging", "stg_orders"},
			Columns: map[string]*manifest.Column{
				"order_id": {Name: "order_id"},
			},
		},
		"model.p.fct_orders": {
			UniqueID:         "model.p.fct_orders",
			Name:             "fct_orders",
			ResourceType:     "model",
			PatchPath:        "",
			OriginalFilePath: "models/marts/fct_orders.sql",
			RawCode:          "select * from {{ ref('stg_orders') }}",
			FQN:              []string{"p", "marts", "fct_orders"},
			DependsOn:        manifest.Depends{Nodes: []string{"model.p.stg_orders"}},
		},
	}}
}

func writeStagingProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models", "staging"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "models", "staging", "schema.yml"),
		[]byte(stagingDeclaration), 0o644))
	return dir
}

func TestPipeline_EndToEnd(t *testing.T) {
	dir := writeStagingProject(t)
	m := testManifest()

	orch := generate.NewOrchestrator(echoClient{}, tenTokens{}, tokens.DefaultBudget(), 2, testutil.NewTestLogger(t))
	p, err := generate.NewPipeline(generate.PipelineConfig{
		Manifest:     m,
		Orchestrator: orch,
		Merger:       merge.New(dir, "p", false, nil, testutil.NewTestLogger(t)),
		// fct_orders has no declaration yet; scaffold one under the project dir.
		Scaffold: func(node *manifest.Node) (string, error) {
			require.NoError(t, os.MkdirAll(filepath.Join(dir, "models", "marts"), 0o755))
			return manifest.ScaffoldDeclaration(dir, node, nil)
		},
	})
	require.NoError(t, err)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Selected)
	assert.Equal(t, 2, summary.Documented)
	assert.Zero(t, summary.Skipped)
	assert.Zero(t, summary.Failed)

	// The staging declaration now references its generated doc blocks.
	decl, err := os.ReadFile(filepath.Join(dir, "models", "staging", "schema.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(decl), `{{ doc("tql_generated_doc__stg_orders") }}`)
	assert.Contains(t, string(decl), `{{ doc("tql_generated_doc__stg_orders__order_id") }}`)

	// Table sidecar: disclaimer plus the echoed prompt, which carries both
	// directions of the dependency context.
	table, err := os.ReadFile(filepath.Join(dir, "models", "staging", "tql_generated_doc__stg_orders.md"))
	require.NoError(t, err)
	assert.Contains(t, string(table), generate.SummaryDisclaimer)
	assert.Contains(t, string(table), "Depended on by: model.p.fct_orders")
	assert.Contains(t, string(table), "This is a staging model.")

	col, err := os.ReadFile(filepath.Join(dir, "models", "staging", "tql_generated_doc__stg_orders__order_id.md"))
	require.NoError(t, err)
	assert.Contains(t, string(col), generate.ColumnPrefix)
	assert.Contains(t, string(col), "Column Name: order_id")

	// The scaffolded mart declaration was created and documented too.
	mart, err := os.ReadFile(filepath.Join(dir, "models", "marts", "fct_orders.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(mart), `{{ doc("tql_generated_doc__fct_orders") }}`)

	martDoc, err := os.ReadFile(filepath.Join(dir, "models", "marts", "tql_generated_doc__fct_orders.md"))
	require.NoError(t, err)
	assert.Contains(t, string(martDoc), "Depends on: model.p.stg_orders")
	assert.Contains(t, string(martDoc), "Depended on by: Not used by any other models")
}

func TestPipeline_DryRunWritesNothing(t *testing.T) {
	dir := writeStagingProject(t)
	declPath := filepath.Join(dir, "models", "staging", "schema.yml")
	before, err := os.ReadFile(declPath)
	require.NoError(t, err)

	m := testManifest()
	// Drop the undeclared model: dry runs never scaffold.
	delete(m.Nodes, "model.p.fct_orders")

	orch := generate.NewOrchestrator(echoClient{}, tenTokens{}, tokens.DefaultBudget(), 2, testutil.NewTestLogger(t))
	p, err := generate.NewPipeline(generate.PipelineConfig{
		Manifest:     m,
		Orchestrator: orch,
		Merger:       merge.New(dir, "p", true, io.Discard, testutil.NewTestLogger(t)),
	})
	require.NoError(t, err)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Documented)

	after, err := os.ReadFile(declPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	matches, err := filepath.Glob(filepath.Join(dir, "models", "staging", "*.md"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
