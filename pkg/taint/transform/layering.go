package transform

import "github.com/matzehuels/taintview/pkg/taint"

// AssignLayers returns the longest-path depth of every node: roots are at
// layer 0 and each node sits one layer below its deepest parent.
//
// The traversal is Kahn's algorithm over edge multiplicities. Nodes on a
// cycle never reach in-degree zero and keep layer 0; run [BreakCycles] on a
// clone first when the graph may be cyclic.
//
// Time complexity is O(V + E).
func AssignLayers(g *taint.Graph) map[string]int {
	ids := g.NodeIDs()
	inDegree := make(map[string]int, len(ids))
	layers := make(map[string]int, len(ids))
	queue := make([]string, 0, len(ids))

	for _, id := range ids {
		layers[id] = 0
		d := g.InDegree(id)
		inDegree[id] = d
		if d == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, e := range g.OutEdges(curr) {
			if l := layers[curr] + 1; l > layers[e.To] {
				layers[e.To] = l
			}
			inDegree[e.To]--
			if inDegree[e.To] == 0 {
				queue = append(queue, e.To)
			}
		}
	}
	return layers
}

// Depth returns one more than the deepest layer, or 0 for an empty graph.
func Depth(layers map[string]int) int {
	if len(layers) == 0 {
		return 0
	}
	maxLayer := 0
	for _, l := range layers {
		maxLayer = max(maxLayer, l)
	}
	return maxLayer + 1
}
