// Package transform provides structural passes over a taint graph that
// prepare it for depth-based layouts.
//
// [BreakCycles] removes the back edges found by a depth-first search so that
// a cyclic trace can still be layered. [AssignLayers] computes the
// longest-path depth of every node from the roots.
//
// Both passes work on a [taint.Graph]; callers that must keep the original
// edges call BreakCycles on a [taint.Graph.Clone].
package transform
