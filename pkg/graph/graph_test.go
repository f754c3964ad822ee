package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/taintview/pkg/layout"
	"github.com/matzehuels/taintview/pkg/taint"
)

func buildGraph(lines ...string) *taint.Graph {
	b := taint.NewBuilder()
	for _, l := range lines {
		_ = b.Ingest(l)
	}
	return b.Graph()
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		build func() *taint.Graph
	}{
		{"Empty", taint.NewGraph},
		{"Simple", func() *taint.Graph {
			return buildGraph("[1] reg eax 10:1 none none none", "[2] mem ebx 20:1 none 1 none")
		}},
		{"Placeholders", func() *taint.Graph {
			return buildGraph("[5] reg eax 1:0 2:0 mov 7,8 9")
		}},
		{"Multigraph", func() *taint.Graph {
			return buildGraph("[1] reg a 1:0 none 2 2", "[1] reg a 1:0 none 2 2")
		}},
		{"Cycle", func() *taint.Graph {
			return buildGraph("[1] reg a 1:0 none 2 none", "[2] reg b 2:0 none 1 none")
		}},
	}

	for _, tt := range tests {
		for _, format := range []string{FormatJSON, FormatYAML} {
			t.Run(tt.name+"/"+format, func(t *testing.T) {
				g := tt.build()
				var buf bytes.Buffer
				if err := WriteGraph(g, &buf, format); err != nil {
					t.Fatalf("WriteGraph() error: %v", err)
				}
				back, err := ReadGraph(&buf, format)
				if err != nil {
					t.Fatalf("ReadGraph() error: %v", err)
				}
				if !reflect.DeepEqual(FromTaint(back), FromTaint(g)) {
					t.Errorf("round trip mismatch:\n got %+v\nwant %+v", FromTaint(back), FromTaint(g))
				}
				if !reflect.DeepEqual(back.Roots(), g.Roots()) {
					t.Errorf("Roots() = %v, want %v", back.Roots(), g.Roots())
				}
			})
		}
	}
}

func TestToTaint_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   Graph
		want string
	}{
		{"empty uuid", Graph{Nodes: []Node{{UUID: ""}}}, "empty uuid"},
		{"duplicate", Graph{Nodes: []Node{{UUID: "1"}, {UUID: "1"}}}, "duplicate node 1"},
		{"dangling edge", Graph{Nodes: []Node{{UUID: "1"}}, Edges: []Edge{{From: "1", To: "2", Type: "c"}}}, "add edge 1→2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToTaint(tt.in)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ToTaint() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestFileFormats(t *testing.T) {
	dir := t.TempDir()
	g := buildGraph("[1] reg eax 10:1 none none none", "[2] mem ebx 20:1 none 1 none")

	for _, name := range []string{"g.json", "g.yaml", "g.yml"} {
		path := filepath.Join(dir, name)
		if err := WriteGraphFile(g, path); err != nil {
			t.Fatalf("WriteGraphFile(%s) error: %v", name, err)
		}
		data, _ := os.ReadFile(path)
		isJSON := bytes.HasPrefix(data, []byte("{"))
		if isJSON != (FormatFor(path) == FormatJSON) {
			t.Errorf("%s written in wrong format: %q", name, data[:10])
		}
		back, err := ReadGraphFile(path)
		if err != nil {
			t.Fatalf("ReadGraphFile(%s) error: %v", name, err)
		}
		if back.EdgeCount() != 1 {
			t.Errorf("%s: EdgeCount() = %d, want 1", name, back.EdgeCount())
		}
	}

	if _, err := ReadGraphFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("ReadGraphFile(missing) = nil error")
	}
}

func TestNewLayout(t *testing.T) {
	g := buildGraph(
		"[1] reg a 1:0 none 2 none",
		"[2] reg b 2:0 none 3 none",
		"[3] mem c 3:0",
		"[10] reg d 4:0",
	)
	opts := layout.Options{Policy: taint.PolicyTaintBranch}
	pos, err := layout.Compute(g, layout.Standard, opts)
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	l := NewLayout(g, layout.Standard, opts, pos)

	if l.Strategy != layout.Branch {
		t.Errorf("Strategy = %q, want %q", l.Strategy, layout.Branch)
	}
	var ids []string
	for _, p := range l.Positions {
		ids = append(ids, p.ID)
	}
	if !reflect.DeepEqual(ids, []string{"1", "2", "3", "10"}) {
		t.Errorf("position order = %v", ids)
	}
	if l.Positions[0].Class != string(taint.ClassSink) {
		t.Errorf("root class = %q, want sink", l.Positions[0].Class)
	}
	if l.Height != 120 || l.Width != 400 {
		t.Errorf("bounds = %vx%v, want 400x120", l.Width, l.Height)
	}
	if !reflect.DeepEqual(l.Points(), pos) {
		t.Errorf("Points() = %v, want %v", l.Points(), pos)
	}
	if len(l.Edges) != 2 {
		t.Errorf("len(Edges) = %d, want 2", len(l.Edges))
	}
}

func TestLayoutFiles(t *testing.T) {
	dir := t.TempDir()
	l := Layout{Strategy: layout.Circular, Scale: 800, Positions: []Position{{ID: "1", X: 1, Y: 2}}}

	for _, name := range []string{"l.json", "l.yaml"} {
		path := filepath.Join(dir, name)
		if err := WriteLayoutFile(l, path); err != nil {
			t.Fatalf("WriteLayoutFile() error: %v", err)
		}
		back, err := ReadLayoutFile(path)
		if err != nil {
			t.Fatalf("ReadLayoutFile() error: %v", err)
		}
		if !reflect.DeepEqual(back, l) {
			t.Errorf("%s: got %+v, want %+v", name, back, l)
		}
	}

	if _, err := UnmarshalLayout([]byte(`{"positions": []}`)); err == nil {
		t.Error("UnmarshalLayout() without strategy = nil error")
	}
}
