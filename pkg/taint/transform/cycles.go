package transform

import "github.com/matzehuels/taintview/pkg/taint"

// BreakCycles removes every edge that closes a directed cycle and returns
// the number of edges removed. Parallel copies of a back edge are removed
// together. The DFS starts at the roots in trace order, then visits any
// node a root cannot reach, so the result is deterministic.
func BreakCycles(g *taint.Graph) int {
	const (
		white = iota
		gray
		black
	)
	type frame struct {
		id   string
		next int
	}

	color := make(map[string]int, g.NodeCount())
	var backEdges [][2]string

	walk := func(start string) {
		color[start] = gray
		stack := []frame{{id: start}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succ := g.Successors(top.id)
			if top.next < len(succ) {
				child := succ[top.next]
				top.next++
				switch color[child] {
				case white:
					color[child] = gray
					stack = append(stack, frame{id: child})
				case gray:
					backEdges = append(backEdges, [2]string{top.id, child})
				}
				continue
			}
			color[top.id] = black
			stack = stack[:len(stack)-1]
		}
	}

	for _, id := range g.Roots() {
		if color[id] == white {
			walk(id)
		}
	}
	for _, id := range g.NodeIDs() {
		if color[id] == white {
			walk(id)
		}
	}

	removed := 0
	for _, e := range backEdges {
		removed += g.RemoveEdges(e[0], e[1])
	}
	return removed
}
