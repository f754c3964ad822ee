package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/taintview/pkg/layout"
	"github.com/matzehuels/taintview/pkg/taint"
)

// pointsPerInch converts canvas units to Graphviz inches for pinned nodes.
const pointsPerInch = 72.0

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the uuid and indices to node labels.
	// When false, only [taint.Node.Label] is shown.
	Detailed bool

	// Positions pins nodes to precomputed canvas coordinates. When empty,
	// Graphviz ranks the graph itself (top to bottom).
	Positions layout.Positions

	// EdgeLabels draws the edge type and annotation on each edge.
	EdgeLabels bool
}

// Pinned reports whether rendering must keep precomputed positions.
func (o Options) Pinned() bool { return len(o.Positions) > 0 }

// ToDOT converts a taint graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
//
// Nodes are filled with their class color. Placeholder nodes (referenced but
// never described by a record) are drawn dashed. Parallel edges are kept.
func ToDOT(g *taint.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if opts.Pinned() {
		buf.WriteString("  layout=neato;\n")
		buf.WriteString("  notranslate=true;\n")
		buf.WriteString("  splines=true;\n")
	} else {
		buf.WriteString("  rankdir=TB;\n")
		buf.WriteString("  ranksep=0.5;\n")
		buf.WriteString("  nodesep=0.3;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed))
		if pt, ok := opts.Positions[n.UUID]; ok {
			attrs = append(attrs, fmtPos(pt))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.UUID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		attrs := fmtEdgeAttrs(e, opts.EdgeLabels)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *taint.Node, detailed bool) string {
	if !detailed {
		return n.Label()
	}

	parts := []string{"uuid: " + n.UUID}
	if n.StartInd != "" {
		parts = append(parts, "start: "+n.StartInd)
	}
	if n.EndInd != "" {
		parts = append(parts, "end: "+n.EndInd)
	}
	return n.Label() + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *taint.Node, label string) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("fillcolor=%q", n.Class().Color()),
	}
	if n.Placeholder {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fontcolor=grey30")
	}
	return attrs
}

// fmtPos pins a node. Graphviz's y axis points up, the canvas's points down.
func fmtPos(pt layout.Point) string {
	return fmt.Sprintf("pos=\"%.2f,%.2f!\"", pt.X/pointsPerInch, -pt.Y/pointsPerInch)
}

func fmtEdgeAttrs(e taint.Edge, labels bool) []string {
	var attrs []string
	if e.Type == taint.EdgeD {
		attrs = append(attrs, "style=dashed")
	}
	if labels {
		label := e.Type
		if e.Anno != "" {
			label += " " + e.Anno
		}
		attrs = append(attrs, fmt.Sprintf("label=%q", label))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	if strings.Contains(dot, "layout=neato") {
		gv.SetLayout(graphviz.NEATO)
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
