package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/taintview/pkg/graph"
	"github.com/matzehuels/taintview/pkg/observability"
	"github.com/matzehuels/taintview/pkg/taint"
)

// BuildGraph folds a trace held in memory into a graph. Skipped lines are
// reported to the pipeline hooks and counted in the returned stats.
func BuildGraph(ctx context.Context, location string, data []byte, opts Options) (*taint.Graph, taint.Stats, error) {
	hooks := observability.Pipeline()
	hooks.OnIngestStart(ctx, location)
	start := time.Now()

	bopts := append([]taint.Option{
		taint.WithLogger(opts.Logger),
		taint.OnSkip(func(lineNo int, _ string, err error) {
			hooks.OnLineSkipped(ctx, location, lineNo, err)
		}),
	}, opts.BuildOptions()...)

	g, stats, err := taint.Build(ctx, bytes.NewReader(data), bopts...)
	hooks.OnIngestComplete(ctx, location, stats.Nodes, stats.Edges, stats.Skipped, time.Since(start), err)
	if err != nil {
		return nil, stats, err
	}
	return g, stats, nil
}

// builtGraph is the cached form of a build: the graph plus its stats.
type builtGraph struct {
	Stats taint.Stats `json:"stats"`
	Graph graph.Graph `json:"graph"`
}

func marshalBuilt(g *taint.Graph, stats taint.Stats) ([]byte, error) {
	return json.Marshal(builtGraph{Stats: stats, Graph: graph.FromTaint(g)})
}

func unmarshalBuilt(data []byte) (*taint.Graph, taint.Stats, error) {
	var b builtGraph
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, taint.Stats{}, err
	}
	g, err := graph.ToTaint(b.Graph)
	if err != nil {
		return nil, taint.Stats{}, err
	}
	return g, b.Stats, nil
}
