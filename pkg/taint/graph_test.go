package taint

import (
	"errors"
	"reflect"
	"testing"
)

func chainGraph(t *testing.T) *Graph {
	t.Helper()
	// Two roots, three nodes each, interleaved in the trace.
	return build(t,
		"[1] reg a1 1:0 none 3 none",
		"[2] reg b1 2:0 none 4 none",
		"[3] reg a2 3:0 none 5 none",
		"[4] reg b2 4:0 none 6 none",
		"[5] reg a3 5:0",
		"[6] reg b3 6:0",
	)
}

func TestRoots(t *testing.T) {
	g := chainGraph(t)
	if got := g.Roots(); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("Roots() = %v, want [1 2]", got)
	}
}

func TestTopoOrder_Swimlanes(t *testing.T) {
	g := chainGraph(t)
	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("TopoOrder() error: %v", err)
	}
	want := []string{"1", "3", "5", "2", "4", "6"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("TopoOrder() = %v, want %v", order, want)
	}
}

func TestTopoOrder_RespectsEdges(t *testing.T) {
	g := build(t,
		"[1] reg r 1:0 none 2,3 none",
		"[2] reg x 2:0 none 4 none",
		"[3] reg y 3:0 none 4 none",
		"[4] mem z 4:0",
	)
	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("TopoOrder() error: %v", err)
	}
	pos := make(map[string]int)
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range g.Edges() {
		if pos[e.From] >= pos[e.To] {
			t.Errorf("edge %s->%s out of order in %v", e.From, e.To, order)
		}
	}
	if len(order) != g.NodeCount() {
		t.Errorf("len(order) = %d, want %d", len(order), g.NodeCount())
	}
}

func TestTopoOrder_RootlessCycle(t *testing.T) {
	g := build(t,
		"[1] reg a 1:0 none 2 none",
		"[2] reg b 2:0 none 1 none",
		"[3] reg c 3:0",
	)
	if _, err := g.TopoOrder(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("TopoOrder() error = %v, want ErrGraphHasCycle", err)
	}
}

func TestTopoOrder_LongChain(t *testing.T) {
	b := NewBuilder()
	const n = 50000
	for i := 1; i < n; i++ {
		_ = b.Ingest("[" + itoa(i) + "] reg r 0:0 none " + itoa(i+1) + " none")
	}
	order, err := b.Graph().TopoOrder()
	if err != nil {
		t.Fatalf("TopoOrder() error: %v", err)
	}
	if len(order) != n || order[0] != "1" || order[n-1] != itoa(n) {
		t.Errorf("TopoOrder() len=%d first=%s last=%s", len(order), order[0], order[len(order)-1])
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}

func TestAddEdge_UnknownNode(t *testing.T) {
	g := NewGraph()
	g.Registry().GetOrCreate("1")
	if err := g.AddEdge(Edge{From: "1", To: "2"}); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("AddEdge() error = %v, want ErrUnknownNode", err)
	}
	if err := g.AddEdge(Edge{From: "0", To: "1"}); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("AddEdge() error = %v, want ErrUnknownNode", err)
	}
}

func TestRemoveEdges(t *testing.T) {
	g := build(t,
		"[1] reg a 1:0 none 2 2",
		"[2] reg b 2:0 none 3 none",
	)
	if got := g.RemoveEdges("1", "2"); got != 2 {
		t.Errorf("RemoveEdges() = %d, want 2", got)
	}
	if g.InDegree("2") != 0 || g.OutDegree("2") != 1 {
		t.Errorf("degrees after removal: in=%d out=%d", g.InDegree("2"), g.OutDegree("2"))
	}
	if got := g.RemoveEdges("1", "3"); got != 0 {
		t.Errorf("RemoveEdges() = %d, want 0", got)
	}
}

func TestSuccessorsDistinct(t *testing.T) {
	g := build(t, "[1] reg a 1:0 none 2,3 2")
	if got := g.Successors("1"); !reflect.DeepEqual(got, []string{"2", "3"}) {
		t.Errorf("Successors() = %v", got)
	}
	if got := g.OutDegree("1"); got != 3 {
		t.Errorf("OutDegree() = %d, want 3", got)
	}
	if got := g.Predecessors("2"); !reflect.DeepEqual(got, []string{"1"}) {
		t.Errorf("Predecessors() = %v", got)
	}
}

func TestReachable(t *testing.T) {
	g := build(t,
		"[1] reg a 1:0 none 2 none",
		"[2] reg b 2:0 none 3 none",
		"[3] reg c 3:0 none 1 none",
		"[4] reg d 4:0",
	)
	if got := g.Reachable("2"); !reflect.DeepEqual(got, []string{"2", "3", "1"}) {
		t.Errorf("Reachable() = %v", got)
	}
	if got := g.Reachable("missing"); got != nil {
		t.Errorf("Reachable(missing) = %v, want nil", got)
	}
}

func TestClone(t *testing.T) {
	g := build(t, "[1] reg a 1:0 none 2 none")
	c := g.Clone()
	c.RemoveEdges("1", "2")
	n, _ := c.Node("1")
	n.ChildC[0] = "x"

	if g.EdgeCount() != 1 {
		t.Errorf("original EdgeCount() = %d, want 1", g.EdgeCount())
	}
	orig, _ := g.Node("1")
	if orig.ChildC[0] != "2" {
		t.Errorf("clone shares child slice")
	}
}
