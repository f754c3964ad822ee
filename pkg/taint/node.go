package taint

import "github.com/matzehuels/taintview/pkg/trace"

// Location kinds written in the type column.
const (
	TypeReg = "reg"
	TypeMem = "mem"
)

// Node is one tainted location. Empty string fields are unset.
type Node struct {
	UUID     string
	Type     string
	Name     string
	StartInd string
	EndInd   string
	EdgeAnn  string
	ChildC   []string
	ChildD   []string

	// NodeAttr is the type of the first edge that reached this node
	// ("c" or "d"). Empty for nodes nothing points to.
	NodeAttr string

	// Placeholder is true until the node's own record has been absorbed.
	Placeholder bool
}

// Absorb overwrites every field except UUID and NodeAttr from rec.
// Absorbing the same record twice leaves the node unchanged.
func (n *Node) Absorb(rec trace.Record) {
	n.Type = rec.Type
	n.Name = rec.Name
	n.StartInd = rec.StartInd
	n.EndInd = rec.EndInd
	n.EdgeAnn = rec.EdgeAnn
	n.ChildC = cloneIDs(rec.ChildC)
	n.ChildD = cloneIDs(rec.ChildD)
	n.Placeholder = false
}

// Children returns ChildC followed by ChildD.
func (n *Node) Children() []string {
	out := make([]string, 0, len(n.ChildC)+len(n.ChildD))
	out = append(out, n.ChildC...)
	return append(out, n.ChildD...)
}

// HasChildren reports whether the record named any child.
func (n *Node) HasChildren() bool {
	return len(n.ChildC) > 0 || len(n.ChildD) > 0
}

// Index returns the instruction index used for address lookups:
// EndInd when set, otherwise StartInd.
func (n *Node) Index() string {
	if n.EndInd != "" {
		return n.EndInd
	}
	return n.StartInd
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	return append([]string(nil), ids...)
}
