package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/matzehuels/taintview/pkg/errors"
	"github.com/matzehuels/taintview/pkg/graph"
	"github.com/matzehuels/taintview/pkg/layout"
	"github.com/matzehuels/taintview/pkg/observability"
	"github.com/matzehuels/taintview/pkg/taint"
	"github.com/matzehuels/taintview/pkg/taint/transform"
)

// ComputeLayout places g with the configured strategy.
//
// With BreakCycles set, back edges are removed from a copy of g first, so
// Standard and Layered succeed on cyclic traces. Without it, Standard on a
// cyclic graph fails with GRAPH_HAS_CYCLE.
func ComputeLayout(ctx context.Context, g *taint.Graph, opts Options) (graph.Layout, error) {
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Strategy, g.NodeCount())
	start := time.Now()

	lay, err := computeLayout(g, opts)
	hooks.OnLayoutComplete(ctx, opts.Strategy, time.Since(start), err)
	return lay, err
}

func computeLayout(g *taint.Graph, opts Options) (graph.Layout, error) {
	work := g
	if opts.BreakCycles {
		work = g.Clone()
		if n := transform.BreakCycles(work); n > 0 {
			opts.Logger.Debug("removed back edges", "count", n)
		}
	}

	lo := opts.LayoutOptions()
	pos, err := layout.Compute(work, opts.Strategy, lo)
	if err != nil {
		return graph.Layout{}, classifyLayoutError(err)
	}
	// Edges come from the original graph so removed back edges still draw.
	return graph.NewLayout(g, opts.Strategy, lo, pos), nil
}

func classifyLayoutError(err error) error {
	switch {
	case errors.Is(err, taint.ErrGraphHasCycle):
		return apperrors.Wrap(apperrors.ErrCodeGraphHasCycle, err, "graph has a cycle; use --break-cycles or a geometric strategy")
	case errors.Is(err, layout.ErrUnsupportedStrategy):
		return apperrors.Wrap(apperrors.ErrCodeUnsupportedStrategy, err, "unsupported strategy")
	}
	return fmt.Errorf("layout: %w", err)
}
