package taint

import (
	"reflect"
	"testing"

	"github.com/matzehuels/taintview/pkg/trace"
)

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry()
	n, created := r.GetOrCreate("7")
	if !created || !n.Placeholder || n.UUID != "7" {
		t.Errorf("GetOrCreate() = %+v, %v", n, created)
	}
	again, created := r.GetOrCreate("7")
	if created || again != n {
		t.Errorf("second GetOrCreate() created a new node")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistry_AbsorbOverwrites(t *testing.T) {
	r := NewRegistry()
	r.Absorb(trace.Record{UUID: "1", Type: "reg", Name: "eax", EndInd: "5:0", ChildC: []string{"2"}})
	r.SetAttr("1", EdgeD)
	n := r.Absorb(trace.Record{UUID: "1", Type: "mem", Name: "0x10"})

	want := Node{UUID: "1", Type: "mem", Name: "0x10", NodeAttr: EdgeD}
	if !reflect.DeepEqual(*n, want) {
		t.Errorf("Absorb() = %+v, want %+v", *n, want)
	}
}

func TestRegistry_SetAttr(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("1")
	if !r.SetAttr("1", EdgeC) {
		t.Error("first SetAttr() = false, want true")
	}
	if r.SetAttr("1", EdgeD) {
		t.Error("second SetAttr() = true, want false")
	}
	if r.SetAttr("missing", EdgeC) {
		t.Error("SetAttr(missing) = true, want false")
	}
	n, _ := r.Get("1")
	if n.NodeAttr != EdgeC {
		t.Errorf("NodeAttr = %q, want %q", n.NodeAttr, EdgeC)
	}
}

func TestNode_Index(t *testing.T) {
	tests := []struct {
		start, end, want string
	}{
		{"10:1", "20:3", "20:3"},
		{"10:1", "", "10:1"},
		{"", "", ""},
	}
	for _, tt := range tests {
		n := Node{StartInd: tt.start, EndInd: tt.end}
		if got := n.Index(); got != tt.want {
			t.Errorf("Index(%q, %q) = %q, want %q", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestNode_Class(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want Class
	}{
		{"no attr", Node{Type: "reg", ChildC: []string{"1"}}, ClassSink},
		{"no children", Node{Type: "reg", NodeAttr: EdgeC}, ClassSource},
		{"reg", Node{Type: "reg", NodeAttr: EdgeC, ChildD: []string{"1"}}, ClassReg},
		{"mem", Node{Type: "mem", NodeAttr: EdgeD, ChildC: []string{"1"}}, ClassMem},
		{"unknown type", Node{Type: "flag", NodeAttr: EdgeD, ChildC: []string{"1"}}, ClassOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Class(); got != tt.want {
				t.Errorf("Class() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNode_Label(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{Node{UUID: "1", Type: "reg", Name: "eax", NodeAttr: EdgeC}, "[c] reg eax"},
		{Node{UUID: "2", Type: "mem", Name: "0x10", NodeAttr: EdgeD}, "mem 0x10"},
		{Node{UUID: "3", Placeholder: true}, "[3]"},
	}
	for _, tt := range tests {
		if got := tt.node.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}

func TestPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		cols    int
		wantErr bool
	}{
		{"", PolicyDefault, 8, false},
		{"default", PolicyDefault, 8, false},
		{"TAINT_BRANCH", PolicyTaintBranch, 6, false},
		{"branch", PolicyTaintBranch, 6, false},
		{"strict", "", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.wantErr && len(got.Columns()) != tt.cols {
			t.Errorf("%v.Columns() = %d columns, want %d", got, len(got.Columns()), tt.cols)
		}
	}
}
