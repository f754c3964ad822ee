// Package taint holds the in-memory taint graph built from a trace.
//
// # Overview
//
// Each trace record describes one tainted location: a register or a memory
// cell, with the instruction indices where the taint starts and ends and
// the ids of the records it propagates to. Records may reference children
// that are defined further down the trace, so ingestion creates placeholder
// nodes on first reference and fills them in when their record arrives.
//
// The package is split into three layers:
//
//   - [Node] and [Registry]: identity-keyed node storage with
//     get-or-create, absorb and first-writer-wins attribute semantics
//   - [Graph]: a directed multigraph over the registry. Edges are never
//     deduplicated and cycles are tolerated
//   - [Builder]: the line-at-a-time ingestion state machine
//
// # Usage
//
//	b := taint.NewBuilder()
//	b.Ingest("[1] reg eax 10:1 none none none")
//	b.Ingest("[2] mem ebx 20:1 none none 1 none")
//	g := b.Graph()
//	// g has edge 2 -> 1 with type "c"; node 1 has NodeAttr "c"
//
// Lines without a "[digits]" id are skipped and reported, never fatal.
//
// # Ordering
//
// Every listing ([Graph.NodeIDs], [Graph.Roots], [Graph.Edges]) follows
// first-seen order, so layouts computed from the same trace are identical
// across runs.
//
// # Concurrency
//
// Graph and Registry are not safe for concurrent mutation. Readers that
// share a graph with a live ingester must synchronize externally.
package taint
