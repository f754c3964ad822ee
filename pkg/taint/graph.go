package taint

import (
	"errors"
	"slices"

	"github.com/hashicorp/go-set"
)

var (
	// ErrGraphHasCycle is returned by [Graph.TopoOrder] and [Graph.Validate]
	// when the graph has a directed cycle.
	ErrGraphHasCycle = errors.New("graph contains a cycle")

	// ErrUnknownNode is returned by [Graph.AddEdge] when an endpoint is not
	// registered.
	ErrUnknownNode = errors.New("unknown node")
)

// Edge types. The edge type is also what the target's NodeAttr records.
const (
	EdgeC = "c"
	EdgeD = "d"
)

// Edge is a directed taint propagation from a parent record to a child.
type Edge struct {
	From string
	To   string
	Type string // EdgeC or EdgeD
	Anno string // the parent's edge annotation
}

// Graph is a directed multigraph over a Registry. Parallel edges are kept
// and cycles are allowed.
//
// The zero value is not usable; use [NewGraph].
type Graph struct {
	reg   *Registry
	edges []Edge
	out   map[string][]int // node -> indices into edges
	in    map[string][]int
}

// NewGraph returns an empty graph with its own registry.
func NewGraph() *Graph {
	return &Graph{
		reg: NewRegistry(),
		out: make(map[string][]int),
		in:  make(map[string][]int),
	}
}

// Registry exposes the node store backing g.
func (g *Graph) Registry() *Registry { return g.reg }

// Node returns the node with the given uuid.
func (g *Graph) Node(id string) (*Node, bool) { return g.reg.Get(id) }

// NodeIDs returns uuids in first-seen order. The slice must not be modified.
func (g *Graph) NodeIDs() []string { return g.reg.IDs() }

// Nodes returns nodes in first-seen order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, g.reg.Len())
	for _, id := range g.reg.IDs() {
		n, _ := g.reg.Get(id)
		nodes = append(nodes, n)
	}
	return nodes
}

// NodeCount returns the number of nodes, placeholders included.
func (g *Graph) NodeCount() int { return g.reg.Len() }

// EdgeCount returns the number of edges, parallel edges included.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// AddEdge appends e. Both endpoints must already be registered.
// Duplicate edges are not merged.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.reg.Get(e.From); !ok {
		return ErrUnknownNode
	}
	if _, ok := g.reg.Get(e.To); !ok {
		return ErrUnknownNode
	}
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.out[e.From] = append(g.out[e.From], idx)
	g.in[e.To] = append(g.in[e.To], idx)
	return nil
}

// RemoveEdges deletes every edge from->to and returns how many were removed.
func (g *Graph) RemoveEdges(from, to string) int {
	before := len(g.edges)
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.From == from && e.To == to })
	removed := before - len(g.edges)
	if removed > 0 {
		g.reindex()
	}
	return removed
}

func (g *Graph) reindex() {
	g.out = make(map[string][]int, len(g.out))
	g.in = make(map[string][]int, len(g.in))
	for i, e := range g.edges {
		g.out[e.From] = append(g.out[e.From], i)
		g.in[e.To] = append(g.in[e.To], i)
	}
}

// OutEdges returns the edges leaving id in insertion order.
func (g *Graph) OutEdges(id string) []Edge { return g.collect(g.out[id]) }

// InEdges returns the edges entering id in insertion order.
func (g *Graph) InEdges(id string) []Edge { return g.collect(g.in[id]) }

func (g *Graph) collect(idx []int) []Edge {
	if len(idx) == 0 {
		return nil
	}
	out := make([]Edge, len(idx))
	for i, j := range idx {
		out[i] = g.edges[j]
	}
	return out
}

// Successors returns the distinct targets of id's edges in edge order.
func (g *Graph) Successors(id string) []string {
	return g.distinct(g.out[id], func(e Edge) string { return e.To })
}

// Predecessors returns the distinct sources of id's incoming edges.
func (g *Graph) Predecessors(id string) []string {
	return g.distinct(g.in[id], func(e Edge) string { return e.From })
}

func (g *Graph) distinct(idx []int, end func(Edge) string) []string {
	if len(idx) == 0 {
		return nil
	}
	seen := set.New[string](len(idx))
	var ids []string
	for _, j := range idx {
		id := end(g.edges[j])
		if seen.Insert(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// InDegree counts incoming edges, parallel edges included.
func (g *Graph) InDegree(id string) int { return len(g.in[id]) }

// OutDegree counts outgoing edges, parallel edges included.
func (g *Graph) OutDegree(id string) int { return len(g.out[id]) }

// Roots returns nodes with no incoming edges in first-seen order.
func (g *Graph) Roots() []string {
	var roots []string
	for _, id := range g.reg.IDs() {
		if len(g.in[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Placeholders returns ids that were referenced as children but whose own
// record never appeared.
func (g *Graph) Placeholders() []string {
	var ids []string
	for _, n := range g.Nodes() {
		if n.Placeholder {
			ids = append(ids, n.UUID)
		}
	}
	return ids
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	for _, n := range g.Nodes() {
		cp, _ := c.reg.GetOrCreate(n.UUID)
		*cp = *n
		cp.ChildC = cloneIDs(n.ChildC)
		cp.ChildD = cloneIDs(n.ChildD)
	}
	c.edges = slices.Clone(g.edges)
	c.reindex()
	return c
}

// TopoOrder returns a topological order of all nodes, or ErrGraphHasCycle.
//
// The order is a depth-first reverse postorder seeded from the roots, so
// each root is followed by the nodes first reached from it and roots keep
// their trace order. The walk is iterative; deep chains do not grow the
// goroutine stack.
func (g *Graph) TopoOrder() ([]string, error) {
	const (
		white = iota
		gray
		black
	)
	type frame struct {
		id   string
		next int
	}

	state := make(map[string]uint8, g.reg.Len())
	post := make([]string, 0, g.reg.Len())
	roots := g.Roots()

	for i := len(roots) - 1; i >= 0; i-- {
		stack := []frame{{id: roots[i]}}
		state[roots[i]] = gray
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			out := g.out[top.id]
			if top.next < len(out) {
				child := g.edges[out[len(out)-1-top.next]].To
				top.next++
				switch state[child] {
				case white:
					state[child] = gray
					stack = append(stack, frame{id: child})
				case gray:
					return nil, ErrGraphHasCycle
				}
				continue
			}
			state[top.id] = black
			post = append(post, top.id)
			stack = stack[:len(stack)-1]
		}
	}

	// Anything a root cannot reach sits on or below a rootless cycle.
	if len(post) != g.reg.Len() {
		return nil, ErrGraphHasCycle
	}
	slices.Reverse(post)
	return post, nil
}

// Validate returns ErrGraphHasCycle if g is not acyclic.
func (g *Graph) Validate() error {
	_, err := g.TopoOrder()
	return err
}

// Reachable returns the ids reachable from id (id included) in BFS order.
func (g *Graph) Reachable(id string) []string {
	if _, ok := g.reg.Get(id); !ok {
		return nil
	}
	seen := set.From([]string{id})
	order := []string{id}
	for i := 0; i < len(order); i++ {
		for _, next := range g.Successors(order[i]) {
			if seen.Insert(next) {
				order = append(order, next)
			}
		}
	}
	return order
}
