// Package server exposes a loaded taint graph over HTTP.
//
// The API is read-only and JSON throughout:
//
//	GET /healthz                node and edge counts
//	GET /graph                  node-link form of the graph
//	GET /layout?strategy=&scale=&policy=
//	GET /nodes/{uuid}           one node with its class and label
//	GET /nodes/{uuid}/address   resolved instruction address
//	GET /nodes/{uuid}/calls     one-level call expansion of that address
//
// Errors are written as {"code": ..., "message": ...} using the codes of
// package errors. The served graph can be swapped at any time with
// [Server.SetGraph] or [Server.Reload]; requests already running keep the
// graph they started with.
package server
