package merge

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdoc/internal/generate"
	"github.com/leapstack-labs/leapdoc/internal/testutil"
)

const sampleDeclaration = `version: 2

models:
  - name: fct_orders
    description: ""
    meta:
      owner: analytics
    columns:
      - name: order_id
        description: ""
      - name: status
        description: "Order status"
  - name: dim_customers
    description: "Customer dimension"
    columns:
      - name: customer_id
        description: "PK"
`

func writeProject(t *testing.T) (dir, declPath string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models", "marts"), 0o755))
	declPath = filepath.Join(dir, "models", "marts", "schema.yml")
	require.NoError(t, os.WriteFile(declPath, []byte(sampleDeclaration), 0o644))
	return dir, declPath
}

func sampleResult() *generate.Result {
	return &generate.Result{
		PatchPath:        "jaffle://models/marts/schema.yml",
		Name:             "fct_orders",
		OriginalFilePath: "models/marts/fct_orders.sql",
		Summary:          "This description is generated by an AI model. Take it with a grain of salt!\nOrders fact table.",
		ColumnSummaries: map[string]string{
			"order_id": "[ai-gen] Primary key of an order.",
		},
	}
}

func TestInsertDocs(t *testing.T) {
	dir, declPath := writeProject(t)
	m := New(dir, "jaffle", false, nil, testutil.NewTestLogger(t))

	require.NoError(t, m.InsertDocs("jaffle://models/marts/schema.yml", []*generate.Result{sampleResult()}))

	data, err := os.ReadFile(declPath)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, `{{ doc("tql_generated_doc__fct_orders") }}`)
	assert.Contains(t, content, `{{ doc("tql_generated_doc__fct_orders__order_id") }}`)

	// Fields other than description survive untouched
	assert.Contains(t, content, "owner: analytics")
	assert.Contains(t, content, "Order status")

	// Entries without a matching result are never altered
	assert.Contains(t, content, "Customer dimension")
	assert.NotContains(t, content, "tql_generated_doc__dim_customers")

	// Already-documented columns keep their description
	assert.NotContains(t, content, "tql_generated_doc__fct_orders__status")
}

func TestInsertDocs_Sidecars(t *testing.T) {
	dir, _ := writeProject(t)
	m := New(dir, "jaffle", false, nil, testutil.NewTestLogger(t))

	require.NoError(t, m.InsertDocs("jaffle://models/marts/schema.yml", []*generate.Result{sampleResult()}))

	table, err := os.ReadFile(filepath.Join(dir, "models", "marts", "tql_generated_doc__fct_orders.md"))
	require.NoError(t, err)
	assert.Contains(t, string(table), "{% docs tql_generated_doc__fct_orders %}")
	assert.Contains(t, string(table), "Take it with a grain of salt!")
	assert.Contains(t, string(table), "{% enddocs %}")

	col, err := os.ReadFile(filepath.Join(dir, "models", "marts", "tql_generated_doc__fct_orders__order_id.md"))
	require.NoError(t, err)
	assert.Contains(t, string(col), "{% docs tql_generated_doc__fct_orders__order_id %}")
	assert.Contains(t, string(col), "[ai-gen] Primary key of an order.")
}

func TestInsertDocs_Idempotent(t *testing.T) {
	m1dir, decl1 := writeProject(t)
	m1 := New(m1dir, "jaffle", false, nil, testutil.NewTestLogger(t))
	require.NoError(t, m1.InsertDocs("jaffle://models/marts/schema.yml", []*generate.Result{sampleResult()}))
	first, err := os.ReadFile(decl1)
	require.NoError(t, err)

	m2dir, decl2 := writeProject(t)
	m2 := New(m2dir, "jaffle", false, nil, testutil.NewTestLogger(t))
	require.NoError(t, m2.InsertDocs("jaffle://models/marts/schema.yml", []*generate.Result{sampleResult()}))
	second, err := os.ReadFile(decl2)
	require.NoError(t, err)

	assert.Equal(t, first, second, "serialization must be deterministic for a fixed input")
}

func TestInsertDocs_DryRun(t *testing.T) {
	dir, declPath := writeProject(t)
	before, err := os.ReadFile(declPath)
	require.NoError(t, err)

	var out bytes.Buffer
	m := New(dir, "jaffle", true, &out, testutil.NewTestLogger(t))

	require.NoError(t, m.InsertDocs("jaffle://models/marts/schema.yml", []*generate.Result{sampleResult()}))

	// No file on disk changed
	after, err := os.ReadFile(declPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = os.Stat(filepath.Join(dir, "models", "marts", "tql_generated_doc__fct_orders.md"))
	assert.True(t, os.IsNotExist(err))

	// The would-be content is surfaced for inspection
	assert.Contains(t, out.String(), `{{ doc("tql_generated_doc__fct_orders") }}`)
	assert.Contains(t, out.String(), "{% docs tql_generated_doc__fct_orders %}")
}

func TestInsertDocs_MissingFile(t *testing.T) {
	m := New(t.TempDir(), "jaffle", false, nil, nil)
	err := m.InsertDocs("jaffle://models/missing.yml", []*generate.Result{sampleResult()})
	require.Error(t, err)
}

func TestDeclarationPath(t *testing.T) {
	m := New("/project", "jaffle", false, nil, nil)

	assert.Equal(t, filepath.Join("/project", "models", "schema.yml"),
		m.DeclarationPath("jaffle://models/schema.yml"))

	// Scaffolded declarations carry absolute paths already
	assert.Equal(t, "/elsewhere/model.yml", m.DeclarationPath("/elsewhere/model.yml"))
}

func TestDocBlockNames(t *testing.T) {
	assert.Equal(t, "tql_generated_doc__fct_orders", DocBlockName("fct_orders"))
	assert.Equal(t, "tql_generated_doc__fct_orders__order_id", ColumnDocBlockName("fct_orders", "order_id"))
}
