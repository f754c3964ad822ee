package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/taintview/pkg/graph"
	"github.com/matzehuels/taintview/pkg/observability"
	"github.com/matzehuels/taintview/pkg/render/nodelink"
	"github.com/matzehuels/taintview/pkg/taint"
)

// RenderFromLayout produces every requested format for g placed by lay.
func RenderFromLayout(ctx context.Context, lay graph.Layout, g *taint.Graph, opts Options) (map[string][]byte, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	out, err := renderFormats(ctx, lay, g, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return out, err
}

func renderFormats(ctx context.Context, lay graph.Layout, g *taint.Graph, opts Options) (map[string][]byte, error) {
	dopts := nodelink.Options{Detailed: opts.Detailed, EdgeLabels: opts.EdgeLabels}
	if opts.Pinned {
		dopts.Positions = lay.Points()
	}
	dot := nodelink.ToDOT(g, dopts)

	out := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot)
		case FormatJSON:
			data, err = graph.MarshalLayout(lay)
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		out[format] = data
	}
	return out, nil
}
