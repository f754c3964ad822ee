// Package nodelink renders taint graphs as node-link diagrams.
//
// # Overview
//
// Nodes appear as rounded boxes filled with their class color (see
// [taint.Class]) and connected by arrows from parent to child. Edges of
// type d are dashed. Placeholder nodes, referenced by a child list but never
// described by a record, get a dashed outline.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// To keep the coordinates of a computed layout, pass them as Positions.
// The DOT then selects the neato engine and pins every node:
//
//	pos, _ := layout.Compute(g, layout.Branch, layout.Options{})
//	dot := nodelink.ToDOT(g, nodelink.Options{Positions: pos})
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering. No external Graphviz install is needed.
package nodelink
