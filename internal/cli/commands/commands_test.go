package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdoc/internal/cli/config"
)

const testManifestJSON = `{
  "nodes": {
    "model.jaffle.stg_orders": {
      "unique_id": "model.jaffle.stg_orders",
      "name": "stg_orders",
      "resource_type": "model",
      "original_file_path": "models/staging/stg_orders.sql",
      "patch_path": "jaffle://models/staging/schema.yml",
      "raw_code": "select * from raw.orders",
      "description": "",
      "fqn": ["jaffle", "staging", "stg_orders"],
      "columns": {"order_id": {"name": "order_id", "description": ""}},
      "depends_on": {"nodes": []}
    },
    "model.jaffle.fct_orders": {
      "unique_id": "model.jaffle.fct_orders",
      "name": "fct_orders",
      "resource_type": "model",
      "original_file_path": "models/marts/fct_orders.sql",
      "patch_path": "jaffle://models/marts/schema.yml",
      "raw_code": "select * from {{ ref('stg_orders') }}",
      "description": "Orders fact table",
      "fqn": ["jaffle", "marts", "fct_orders"],
      "columns": {},
      "depends_on": {"nodes": ["model.jaffle.stg_orders"]}
    },
    "source.jaffle.raw.orders": {
      "unique_id": "source.jaffle.raw.orders",
      "name": "orders",
      "resource_type": "source",
      "depends_on": {"nodes": []}
    }
  }
}`

// writeManifest stores a manifest fixture and points the environment fallback
// at it.
func writeManifest(t *testing.T) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(testManifestJSON), 0o644))
	t.Setenv("LEAPDOC_PROJECT_DIR", dir)
	t.Setenv("LEAPDOC_MANIFEST", path)
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, NewVersionCommand("1.2.3", "2026-08-29", "abc1234"))

	assert.Contains(t, out, "LeapDoc v1.2.3")
	assert.Contains(t, out, "Build date: 2026-08-29")
	assert.Contains(t, out, "Git commit: abc1234")
}

func TestListCommand(t *testing.T) {
	writeManifest(t)

	out := execute(t, NewListCommand())

	assert.Contains(t, out, "stg_orders")
	assert.Contains(t, out, "fct_orders")
	assert.NotContains(t, out, "source.jaffle", "non-model nodes are excluded")
	assert.Contains(t, out, "2 models")
}

func TestListCommand_UndocumentedOnly(t *testing.T) {
	writeManifest(t)

	out := execute(t, NewListCommand(), "--undocumented")

	assert.Contains(t, out, "stg_orders")
	assert.NotContains(t, out, "fct_orders")
	assert.Contains(t, out, "1 models")
}

func TestListCommand_MissingManifest(t *testing.T) {
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	t.Setenv("LEAPDOC_MANIFEST", filepath.Join(t.TempDir(), "missing.json"))

	cmd := NewListCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestDAGCommand(t *testing.T) {
	writeManifest(t)

	out := execute(t, NewDAGCommand())

	assert.Contains(t, out, "model.jaffle.fct_orders")
	assert.Contains(t, out, "depends on: model.jaffle.stg_orders")
	assert.Contains(t, out, "used by: model.jaffle.fct_orders")
	assert.Contains(t, out, "Total: 3 nodes, 1 dependency edges")
}
