// Package layout assigns 2D coordinates to the nodes of a taint graph.
//
// # Strategies
//
// Geometric strategies ignore edge direction and return coordinates inside
// a Scale x Scale square:
//
//   - [Spring]: seeded force-directed placement (Fruchterman-Reingold)
//   - [Circular]: all nodes on one circle in trace order
//   - [Shell]: concentric circles, one per longest-path layer
//   - [Spectral]: the two smallest non-trivial Laplacian eigenvectors
//
// Hierarchical strategies follow edges from the roots:
//
//   - [Standard]: one swimlane per root along a topological order. Depth
//     comes from trace order, not from path length. Fails with
//     [taint.ErrGraphHasCycle] on cyclic graphs.
//   - [Branch]: one column per root, following child links down the chain.
//     Every branch is visited unless [Options].SingleBranch is set.
//   - [Layered]: true longest-path depth per node.
//
// Under [taint.PolicyTaintBranch], Standard resolves to Branch.
//
// # Determinism
//
// Every strategy returns identical output for identical input. Random
// initial placement in Spring is drawn from a PCG generator seeded with
// [Options].Seed, and all iteration follows trace order.
package layout
