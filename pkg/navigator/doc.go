// Package navigator links taint nodes to the code that produced them.
//
// [Navigator.Resolve] turns a node's instruction index into a code address
// through an [index.Index]. [Navigator.ExpandCallGraph] disassembles the
// function containing an address and lists its direct callees. Function
// bytes and symbol names come from a [CodeSource]: [ELFCode] reads them from
// an executable, [StaticCode] holds them in memory.
package navigator
