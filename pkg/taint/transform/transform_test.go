package transform

import (
	"testing"

	"github.com/matzehuels/taintview/pkg/taint"
)

func graphOf(lines ...string) *taint.Graph {
	b := taint.NewBuilder()
	for _, l := range lines {
		_ = b.Ingest(l)
	}
	return b.Graph()
}

func TestBreakCycles_NoCycles(t *testing.T) {
	g := graphOf(
		"[1] reg a 1:0 none 2 none",
		"[2] reg b 2:0 none 3 none",
	)
	if removed := BreakCycles(g); removed != 0 {
		t.Errorf("BreakCycles() removed %d edges, want 0", removed)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
}

func TestBreakCycles_Triangle(t *testing.T) {
	g := graphOf(
		"[1] reg a 1:0 none 2 none",
		"[2] reg b 2:0 none 3 none",
		"[3] reg c 3:0 none 1 none",
	)
	if removed := BreakCycles(g); removed != 1 {
		t.Errorf("BreakCycles() removed %d edges, want 1", removed)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() after BreakCycles = %v", err)
	}
}

func TestBreakCycles_ParallelBackEdges(t *testing.T) {
	g := graphOf(
		"[1] reg a 1:0 none 2 none",
		"[2] reg b 2:0 none 1 1",
	)
	if removed := BreakCycles(g); removed != 2 {
		t.Errorf("BreakCycles() removed %d edges, want 2", removed)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}

func TestBreakCycles_SelfLoop(t *testing.T) {
	g := graphOf("[1] reg a 1:0 none 1 none")
	if removed := BreakCycles(g); removed != 1 {
		t.Errorf("BreakCycles() removed %d edges, want 1", removed)
	}
}

func TestAssignLayers(t *testing.T) {
	// 1 -> 2 -> 3 and a shortcut 1 -> 3: longest path puts 3 at layer 2.
	g := graphOf(
		"[1] reg a 1:0 none 2 3",
		"[2] reg b 2:0 none 3 none",
		"[3] reg c 3:0",
		"[4] reg d 4:0",
	)
	layers := AssignLayers(g)
	want := map[string]int{"1": 0, "2": 1, "3": 2, "4": 0}
	for id, l := range want {
		if layers[id] != l {
			t.Errorf("layer[%s] = %d, want %d", id, layers[id], l)
		}
	}
	if d := Depth(layers); d != 3 {
		t.Errorf("Depth() = %d, want 3", d)
	}
}

func TestAssignLayers_Empty(t *testing.T) {
	layers := AssignLayers(taint.NewGraph())
	if len(layers) != 0 || Depth(layers) != 0 {
		t.Errorf("AssignLayers(empty) = %v", layers)
	}
}
