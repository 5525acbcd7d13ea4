package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdoc/internal/cli/config"
	"github.com/leapstack-labs/leapdoc/internal/credentials"
	"github.com/leapstack-labs/leapdoc/internal/dbt"
	"github.com/leapstack-labs/leapdoc/internal/generate"
	"github.com/leapstack-labs/leapdoc/internal/manifest"
	"github.com/leapstack-labs/leapdoc/internal/merge"
	"github.com/leapstack-labs/leapdoc/internal/openai"
	"github.com/leapstack-labs/leapdoc/internal/selector"
	"github.com/leapstack-labs/leapdoc/internal/tokens"
)

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	var selectModels []string
	var all bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate AI documentation for models",
		Long: `Generate natural-language documentation for models and their columns.

By default an interactive picker offers every node in the manifest and only
undocumented models are processed. Use --select to document specific models
by name, or --all to skip the picker.`,
		Example: `  # Pick models interactively, documenting undocumented ones
  leapdoc generate

  # Document two specific models
  leapdoc generate --select fct_orders,dim_customers

  # Preview without touching any file
  leapdoc generate --all --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, selectModels, all)
		},
	}

	cmd.Flags().StringSliceVar(&selectModels, "select", nil, "Comma-separated model names to document")
	cmd.Flags().BoolVar(&all, "all", false, "Document every eligible model without the interactive picker")

	return cmd
}

func runGenerate(cmd *cobra.Command, selectModels []string, all bool) error {
	ctx := cmd.Context()
	cfg := getConfig()
	logger := config.GetLogger(ctx)

	if cfg.DryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "Dry run. Results will not be written.")
	}

	// Refresh the metadata artifacts before reading them. Failure here is a
	// warning: a stale manifest is still usable.
	if cfg.DocsGenerate {
		logger.Info("running dbt docs generate")
		if err := dbt.DocsGenerate(ctx, cfg.ProjectDir); err != nil {
			logger.Warn("could not generate dbt docs, using existing artifacts", "error", err)
		}
	}

	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return err
	}

	projectName, err := manifest.ProjectName(cfg.ProjectDir)
	if err != nil {
		return fmt.Errorf("reading dbt_project.yml failed, re-run from a dbt project root: %w", err)
	}

	creds, err := credentials.Resolve(os.LookupEnv, func() (string, error) {
		return credentials.PromptEmail(cmd.OutOrStdout())
	})
	if err != nil {
		return err
	}
	if creds.Delegated() {
		logger.Info("using delegated relay credentials", "email", creds.Email)
	}

	estimator, err := tokens.NewEstimator()
	if err != nil {
		return err
	}
	budget := tokens.Budget{
		ContextWindow:      cfg.OpenAI.ContextWindow,
		ReservedCompletion: cfg.OpenAI.MaxTokens,
	}

	client := openai.NewClient(openai.Config{
		BaseURL:     cfg.OpenAI.BaseURL,
		RelayURL:    cfg.OpenAI.RelayURL,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Timeout:     time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
	}, creds, logger)

	var sel selector.Selector
	switch {
	case len(selectModels) > 0:
		sel = selector.Fixed(selectModels...)
	case all:
		sel = selector.All()
	default:
		sel = selector.Interactive()
	}

	// Scaffolding writes a fresh declaration file, so it is disabled on dry
	// runs; affected models are skipped with a warning instead.
	var scaffold generate.Scaffolder
	if !cfg.DryRun {
		scaffold = func(node *manifest.Node) (string, error) {
			catalog, err := manifest.LoadCatalog(filepath.Join(cfg.ProjectDir, "target", "catalog.json"))
			if err != nil {
				return "", err
			}
			return manifest.ScaffoldDeclaration(cfg.ProjectDir, node, catalog)
		}
	}

	orchestrator := generate.NewOrchestrator(client, estimator, budget, cfg.Concurrency, logger)
	merger := merge.New(cfg.ProjectDir, projectName, cfg.DryRun, cmd.OutOrStdout(), logger)

	pipeline, err := generate.NewPipeline(generate.PipelineConfig{
		Manifest:         m,
		Orchestrator:     orchestrator,
		Merger:           merger,
		Select:           sel,
		Scaffold:         scaffold,
		OnlyUndocumented: len(selectModels) == 0,
		MaxAttempts:      cfg.Retry.MaxAttempts,
		InitialBackoff:   time.Duration(cfg.Retry.InitialBackoffMS) * time.Millisecond,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	summary, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	renderSummary(cmd, summary)

	if cfg.DocsGenerate && !cfg.DryRun && summary.Documented > 0 {
		logger.Info("refreshing dbt docs")
		if err := dbt.DocsGenerate(ctx, cfg.ProjectDir); err != nil {
			logger.Warn("could not refresh dbt docs", "error", err)
		}
	}

	return nil
}

// renderSummary prints the per-status counts after the batch completes.
func renderSummary(cmd *cobra.Command, summary *generate.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Selected", "Documented", "Skipped", "Failed"})
	t.AppendRow(table.Row{summary.RunID, summary.Selected, summary.Documented, summary.Skipped, summary.Failed})
	t.Render()
}
