// Package generate drives documentation generation: it fans out completion
// requests across selected nodes, enforces the token budget, tolerates
// partial failure, and composes the full manifest-to-merge pipeline.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapdoc/internal/graph"
	"github.com/leapstack-labs/leapdoc/internal/manifest"
	"github.com/leapstack-labs/leapdoc/internal/prompt"
	"github.com/leapstack-labs/leapdoc/internal/tokens"
)

// Prefixes applied to generated prose before it reaches the merge step.
const (
	SummaryDisclaimer = "This description is generated by an AI model. Take it with a grain of salt!\n"
	ColumnPrefix      = "[ai-gen] "
)

// DefaultConcurrency bounds the number of nodes documented at once. The
// work is I/O bound; this only caps in-flight backend requests.
const DefaultConcurrency = 8

// CompletionClient is the completion backend surface the orchestrator needs.
type CompletionClient interface {
	Complete(ctx context.Context, promptText string) (string, error)
}

// Status is the terminal state of one node's generation.
type Status int

const (
	// StatusDocumented means all sub-requests succeeded.
	StatusDocumented Status = iota
	// StatusSkippedTokens means a prompt exceeded the token budget; the
	// node's result is dropped without failing the batch.
	StatusSkippedTokens
	// StatusFailed means the backend returned an unexpected error.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusDocumented:
		return "documented"
	case StatusSkippedTokens:
		return "skipped (too many tokens)"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the immutable output of one successfully documented node.
type Result struct {
	PatchPath        string
	Name             string
	OriginalFilePath string
	Summary          string
	ColumnSummaries  map[string]string
}

// Outcome records a node's terminal state. Result is set only for
// StatusDocumented; Err is set only for StatusFailed.
type Outcome struct {
	NodeID string
	Status Status
	Result *Result
	Err    error
}

// Orchestrator fans completion requests out across nodes.
type Orchestrator struct {
	client      CompletionClient
	estimator   tokens.Estimator
	budget      tokens.Budget
	concurrency int
	logger      *slog.Logger
}

// NewOrchestrator creates an orchestrator. A zero concurrency falls back to
// DefaultConcurrency; a nil logger discards.
func NewOrchestrator(client CompletionClient, estimator tokens.Estimator, budget tokens.Budget, concurrency int, logger *slog.Logger) *Orchestrator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{
		client:      client,
		estimator:   estimator,
		budget:      budget,
		concurrency: concurrency,
		logger:      logger,
	}
}

// GenerateBatch documents every node concurrently and waits for all of them.
// A node's failure never cancels or discards its siblings: each node reaches
// its own terminal state and the full outcome set is always returned.
func (o *Orchestrator) GenerateBatch(ctx context.Context, nodes []*manifest.Node, index *graph.Index, documented map[string]*manifest.Node) []Outcome {
	outcomes := make([]Outcome, len(nodes))
	sem := make(chan struct{}, o.concurrency)

	var wg sync.WaitGroup
	for i, node := range nodes {
		i, node := i, node
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcomes[i] = o.documentNode(ctx, node, index, documented)
		}()
	}
	wg.Wait()

	return outcomes
}

// documentNode issues the table-level prompt and one column-level prompt per
// undocumented column, all concurrently, and assembles a Result when every
// sub-request succeeds.
func (o *Orchestrator) documentNode(ctx context.Context, node *manifest.Node, index *graph.Index, documented map[string]*manifest.Node) Outcome {
	o.logger.Info("generating docs", "model", node.Name)

	var (
		summary    string
		mu         sync.Mutex
		colResults = make(map[string]string)
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		text, err := o.complete(gctx, prompt.TableDoc(node, index.ReverseDependents(node.UniqueID)))
		if err != nil {
			return err
		}
		summary = SummaryDisclaimer + text
		return nil
	})

	for _, col := range node.UndocumentedColumns() {
		col := col
		g.Go(func() error {
			text, err := o.complete(gctx, prompt.ColumnDoc(node, col, documented))
			if err != nil {
				return err
			}
			mu.Lock()
			colResults[col.Name] = ColumnPrefix + text
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, tokens.ErrTooManyTokens) {
			o.logger.Warn("prompt too large, skipping model",
				"model", node.Name, "hint", "the SQL code or dependency map may be too large")
			return Outcome{NodeID: node.UniqueID, Status: StatusSkippedTokens}
		}
		o.logger.Error("completion request failed", "model", node.Name, "error", err)
		return Outcome{
			NodeID: node.UniqueID,
			Status: StatusFailed,
			Err:    fmt.Errorf("generation for %s failed: %w", node.Name, err),
		}
	}

	return Outcome{
		NodeID: node.UniqueID,
		Status: StatusDocumented,
		Result: &Result{
			PatchPath:        node.PatchPath,
			Name:             node.Name,
			OriginalFilePath: node.OriginalFilePath,
			Summary:          summary,
			ColumnSummaries:  colResults,
		},
	}
}

// complete applies the token budget, then calls the backend.
func (o *Orchestrator) complete(ctx context.Context, promptText string) (string, error) {
	if err := o.budget.CheckPrompt(o.estimator, promptText); err != nil {
		return "", err
	}
	return o.client.Complete(ctx, promptText)
}
