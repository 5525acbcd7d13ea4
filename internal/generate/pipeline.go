package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/leapstack-labs/leapdoc/internal/graph"
	"github.com/leapstack-labs/leapdoc/internal/manifest"
	"github.com/leapstack-labs/leapdoc/internal/selector"
)

// DocMerger consumes grouped results for one declaration file.
type DocMerger interface {
	InsertDocs(patchPath string, results []*Result) error
}

// Scaffolder creates a missing YAML declaration for a node and returns its
// path. Optional: a nil Scaffolder drops nodes without a declaration.
type Scaffolder func(node *manifest.Node) (string, error)

// Retry bounds for the whole-batch retry on unexpected backend errors.
// The batch is retried from scratch; merging only happens after the final
// attempt, so a retry never rewrites files.
const (
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = time.Second
)

// PipelineConfig wires the pipeline's collaborators.
type PipelineConfig struct {
	Manifest     *manifest.Manifest
	Orchestrator *Orchestrator
	Merger       DocMerger
	Select       selector.Selector
	Scaffold     Scaffolder

	// OnlyUndocumented keeps nodes whose description is empty. When false,
	// the selection alone decides.
	OnlyUndocumented bool

	MaxAttempts    int
	InitialBackoff time.Duration
	Logger         *slog.Logger
}

// Summary reports a completed run.
type Summary struct {
	RunID      string
	Selected   int
	Documented int
	Skipped    int
	Failed     int
	Outcomes   []Outcome
}

// Pipeline composes index construction, selection, generation, and merging.
type Pipeline struct {
	cfg    PipelineConfig
	logger *slog.Logger
}

// NewPipeline validates and creates a pipeline.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Manifest == nil {
		return nil, fmt.Errorf("pipeline requires a manifest")
	}
	if cfg.Orchestrator == nil {
		return nil, fmt.Errorf("pipeline requires an orchestrator")
	}
	if cfg.Merger == nil {
		return nil, fmt.Errorf("pipeline requires a merger")
	}
	if cfg.Select == nil {
		cfg.Select = selector.All()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{cfg: cfg, logger: logger}, nil
}

// Run executes the full flow: build index, select nodes, generate docs with
// the batch retry policy, then merge results grouped by destination file.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()
	p.logger.Info("starting documentation run", "run_id", runID)

	index := graph.Build(p.cfg.Manifest)
	documented := p.cfg.Manifest.DocumentedNodes()

	nodes, err := p.selectNodes()
	if err != nil {
		return nil, fmt.Errorf("model selection failed: %w", err)
	}
	if len(nodes) == 0 {
		p.logger.Info("nothing to document", "run_id", runID)
		return &Summary{RunID: runID}, nil
	}

	outcomes := p.generateWithRetry(ctx, nodes, index, documented)

	results := make([]*Result, 0, len(outcomes))
	summary := &Summary{RunID: runID, Selected: len(nodes), Outcomes: outcomes}
	for _, outcome := range outcomes {
		switch outcome.Status {
		case StatusDocumented:
			summary.Documented++
			results = append(results, outcome.Result)
		case StatusSkippedTokens:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
		}
	}

	// Sort and group by destination so the merge order is deterministic
	// regardless of completion order, one read-modify-write per file.
	sort.Slice(results, func(i, j int) bool { return results[i].PatchPath < results[j].PatchPath })
	for start := 0; start < len(results); {
		end := start
		for end < len(results) && results[end].PatchPath == results[start].PatchPath {
			end++
		}
		if err := p.cfg.Merger.InsertDocs(results[start].PatchPath, results[start:end]); err != nil {
			return summary, err
		}
		start = end
	}

	p.logger.Info("documentation run finished", "run_id", runID,
		"documented", summary.Documented, "skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}

// selectNodes offers all nodes to the selector, then applies the
// documentation-growth policy: model-kind nodes only, optionally only
// undocumented ones, and a declaration file to merge into.
func (p *Pipeline) selectNodes() ([]*manifest.Node, error) {
	candidates := make([]selector.Candidate, 0, len(p.cfg.Manifest.Nodes))
	for _, id := range p.cfg.Manifest.NodeIDs() {
		node := p.cfg.Manifest.Nodes[id]
		candidates = append(candidates, selector.Candidate{
			ID:         id,
			Name:       node.Name,
			Documented: node.IsDocumented(),
		})
	}

	chosen, err := p.cfg.Select(candidates)
	if err != nil {
		return nil, err
	}

	var nodes []*manifest.Node
	for _, id := range chosen {
		node, ok := p.cfg.Manifest.Nodes[id]
		if !ok || !graph.IsModelID(id) {
			continue
		}
		if p.cfg.OnlyUndocumented && node.IsDocumented() {
			continue
		}
		if node.PatchPath == "" {
			if p.cfg.Scaffold == nil {
				p.logger.Warn("model has no YAML declaration, skipping", "model", node.Name)
				continue
			}
			path, err := p.cfg.Scaffold(node)
			if err != nil {
				p.logger.Warn("failed to scaffold declaration, skipping", "model", node.Name, "error", err)
				continue
			}
			node.PatchPath = path
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// generateWithRetry runs the whole batch, retrying it from scratch on any
// unexpected (non-token-budget) failure with exponential backoff. The last
// attempt's outcomes are used even when failures remain, so already
// successful nodes are never discarded.
func (p *Pipeline) generateWithRetry(ctx context.Context, nodes []*manifest.Node, index *graph.Index, documented map[string]*manifest.Node) []Outcome {
	var outcomes []Outcome

	backoff := retry.WithMaxRetries(uint64(p.cfg.MaxAttempts-1), retry.NewExponential(p.cfg.InitialBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		outcomes = p.cfg.Orchestrator.GenerateBatch(ctx, nodes, index, documented)

		var errs []error
		for _, outcome := range outcomes {
			if outcome.Status == StatusFailed {
				errs = append(errs, outcome.Err)
			}
		}
		if len(errs) > 0 {
			return retry.RetryableError(errors.Join(errs...))
		}
		return nil
	})
	if err != nil {
		p.logger.Warn("batch completed with failures after retries", "error", err)
	}

	return outcomes
}
