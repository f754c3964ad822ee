// Package graph provides serialization types for taint graphs and layouts.
//
// This package defines the wire format used for graph files, API
// responses, snapshot storage and the layout cache.
//
// # Core Types
//
//   - [Graph]: node-link form of a [taint.Graph]
//   - [Layout]: computed positions plus the options that produced them
//   - [Node], [Edge], [Position]: shared structural types
//
// Use [FromTaint] and [ToTaint] to convert. Nodes are written in first-seen
// order so a round trip reproduces the same roots and topological order.
//
// # Formats
//
// JSON is the default. Files ending in .yaml or .yml are written and read
// as YAML. Every type also carries bson tags for the MongoDB store.
//
//	{
//	  "nodes": [{"uuid": "1", "type": "reg", "name": "eax", "startind": "10:1", "nodeattr": "c"}],
//	  "edges": [{"from": "2", "to": "1", "type": "c"}]
//	}
package graph
