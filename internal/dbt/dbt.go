// Package dbt invokes the host build tool to (re)generate the metadata
// artifacts. The invocation is a black box: it either succeeds or the
// caller logs a warning and carries on.
package dbt

import (
	"context"
	"fmt"
	"os/exec"
)

// DocsGenerate runs "dbt docs generate" in the project directory, refreshing
// target/manifest.json and target/catalog.json.
func DocsGenerate(ctx context.Context, projectDir string) error {
	cmd := exec.CommandContext(ctx, "dbt", "docs", "generate")
	cmd.Dir = projectDir

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("dbt docs generate failed: %w\n%s", err, out)
	}
	return nil
}
