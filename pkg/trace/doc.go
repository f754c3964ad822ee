// Package trace parses taint-trace record lines.
//
// A trace is a line-oriented text file written by an instrumentation tool.
// Each record line carries a bracketed decimal identifier followed by
// positional, whitespace-separated columns:
//
//	[uuid] type name startind endind edgeann child_c child_d
//
// Records that omit the edge annotation carry six columns after the id:
//
//	[uuid] type name startind endind child_c child_d
//
// Tokens before the bracketed identifier are a record tag and are ignored.
// The literal "none" (or "-") marks an absent value. A child column may list
// several identifiers joined with commas.
//
// # Usage
//
//	rec, err := trace.ParseRecord("[2] mem ebx 20:1 none 1 none")
//	// rec.UUID == "2", rec.ChildC == []string{"1"}
//
// Column offsets are described by a [Schema]; [DefaultSchema] and
// [ShortSchema] match the two layouts above. Lines without an identifier fail with [ErrNoUUID] and are
// skipped by ingestion rather than aborting it.
package trace
