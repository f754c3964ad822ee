package layout

import (
	"fmt"
	"slices"

	"github.com/hashicorp/go-set"

	"github.com/matzehuels/taintview/pkg/taint"
	"github.com/matzehuels/taintview/pkg/taint/transform"
)

// standard walks the topological order and opens a new column at every
// root. The first root is column 1.
func standard(g *taint.Graph, o Options) (Positions, error) {
	order, err := g.TopoOrder()
	if err != nil {
		return nil, fmt.Errorf("standard layout: %w", err)
	}
	roots := set.From(g.Roots())
	colWidth := o.Width / float64(roots.Size())
	rowStep := o.Height / float64(o.RowSlots)

	pos := make(Positions, len(order))
	column, row := 0, 0
	for _, id := range order {
		if roots.Contains(id) {
			column++
			row = 0
		}
		pos[id] = Point{X: float64(column) * colWidth, Y: rowStep * float64(row)}
		row++
	}
	return pos, nil
}

// branch gives each root a column and walks its child links depth-first,
// placing every newly reached node one row further down. A node reached
// from two roots stays in the first root's column. Nodes no root reaches
// go into a trailing column.
func branch(g *taint.Graph, o Options) (Positions, error) {
	roots := g.Roots()
	colWidth := o.Scale
	if len(roots) > 0 {
		colWidth = o.Scale / float64(len(roots))
	}

	pos := make(Positions, g.NodeCount())
	visited := set.New[string](g.NodeCount())

	walk := func(start string, x float64, chain int) int {
		stack := []string{start}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !visited.Insert(id) {
				continue
			}
			pos[id] = Point{X: x, Y: float64(chain) * o.RowHeight}
			chain++

			n, _ := g.Node(id)
			next := branchChildren(g, n, o.SingleBranch)
			for i := len(next) - 1; i >= 0; i-- {
				if !visited.Contains(next[i]) {
					stack = append(stack, next[i])
				}
			}
		}
		return chain
	}

	for i, root := range roots {
		walk(root, float64(i)*colWidth, 0)
	}

	orphanX := float64(len(roots)) * colWidth
	if len(roots) == 0 {
		orphanX = 0
	}
	chain := 0
	for _, id := range g.NodeIDs() {
		if !visited.Contains(id) {
			chain = walk(id, orphanX, chain)
		}
	}
	return pos, nil
}

func branchChildren(g *taint.Graph, n *taint.Node, single bool) []string {
	var ids []string
	if single {
		switch {
		case len(n.ChildC) > 0:
			ids = n.ChildC[:1]
		case len(n.ChildD) > 0:
			ids = n.ChildD[:1]
		}
	} else {
		ids = n.Children()
	}
	return slices.DeleteFunc(slices.Clone(ids), func(id string) bool {
		_, ok := g.Node(id)
		return !ok
	})
}

// layered places nodes by longest-path depth. Cycles are broken on a copy
// first so every node gets a finite layer.
func layered(g *taint.Graph, o Options) (Positions, error) {
	acyclic := g.Clone()
	transform.BreakCycles(acyclic)
	layers := transform.AssignLayers(acyclic)

	byLayer := make(map[int][]string)
	for _, id := range g.NodeIDs() {
		l := layers[id]
		byLayer[l] = append(byLayer[l], id)
	}

	pos := make(Positions, g.NodeCount())
	for l, ids := range byLayer {
		step := o.Width / float64(len(ids))
		for i, id := range ids {
			pos[id] = Point{X: (float64(i) + 0.5) * step, Y: float64(l) * o.RowHeight}
		}
	}
	return pos, nil
}
