// Package pkg provides the libraries behind taintview, a viewer for
// taint-propagation traces.
//
// # Overview
//
// A taint tracer records, line by line, which registers and memory cells
// received tainted data and from where. taintview folds those records into a
// directed multigraph, lays the graph out, renders it and maps every node
// back to the instruction address that produced it.
//
// # Architecture
//
// The data flow through taintview:
//
//	trace text (file, URL, stdin)
//	         ↓
//	    [trace] package (record extraction, column schema)
//	         ↓
//	    [taint] package (node registry + graph builder)
//	         ↓
//	    [layout] package (spring, circular, shell, spectral, standard, branch, layered)
//	         ↓
//	    [render/nodelink] package (DOT, SVG, PNG)
//
// Alongside the graph, [index] parses the address feed and [navigator]
// resolves nodes to addresses and expands the calls made from there.
//
// # Quick Start
//
//	g, stats, _ := taint.Build(ctx, strings.NewReader(text))
//	pos, _ := layout.Compute(g, layout.Standard, layout.Options{})
//	dot := nodelink.ToDOT(g, nodelink.Options{Positions: pos})
//	svg, _ := nodelink.RenderSVG(ctx, dot)
//
// # Main Packages
//
// [trace] - Record parsing: uuid extraction and positional column schemas
// (full, short and custom).
//
// [taint] - Node model, registry, multigraph and the ingesting builder.
// [taint/transform] assigns longest-path layers and breaks cycles.
//
// [layout] - Position computation for every strategy.
//
// [index] and [navigator] - Address index feed and node navigation.
//
// [graph] - JSON and YAML serialization of graphs and layouts.
//
// [pipeline] - build → layout → render with caching, shared by the CLI and
// the HTTP server.
//
// ## Infrastructure
//
// [cache] - File, Redis and null caches keyed by trace and graph
// fingerprints.
//
// [store] - Named graph snapshots in SQLite or MongoDB.
//
// [source] - Trace and index loading from local paths or object stores.
//
// [watch] - Debounced rebuilds of a trace that is still being written.
//
// [server] - HTTP API over a loaded graph.
//
// [config], [errors], [observability] and [buildinfo] carry the ambient
// settings, coded errors, hooks and version information.
package pkg
