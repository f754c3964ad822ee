package taint

import (
	"fmt"
	"strings"
)

// Policy is the taint-tracking policy a trace was recorded under. It picks
// the table columns and the hierarchical layout family.
type Policy string

const (
	PolicyDefault     Policy = "default"
	PolicyTaintBranch Policy = "TAINT_BRANCH"
)

// ParsePolicy accepts "default", "TAINT_BRANCH" (any case) and "branch".
// The empty string selects PolicyDefault.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return PolicyDefault, nil
	case "taint_branch", "branch":
		return PolicyTaintBranch, nil
	}
	return "", fmt.Errorf("unknown policy %q (want default or TAINT_BRANCH)", s)
}

// Column is one column of the node table.
type Column struct {
	Title string
	Width int
	Value func(*Node) string
}

var baseColumns = []Column{
	{Title: "UUID", Width: 8, Value: func(n *Node) string { return n.UUID }},
	{Title: "Type", Width: 5, Value: func(n *Node) string { return n.Type }},
	{Title: "Name", Width: 16, Value: func(n *Node) string { return n.Name }},
	{Title: "StartInd", Width: 10, Value: func(n *Node) string { return n.StartInd }},
	{Title: "EndInd", Width: 10, Value: func(n *Node) string { return n.EndInd }},
	{Title: "Edge Anno", Width: 12, Value: func(n *Node) string { return n.EdgeAnn }},
}

var childColumns = []Column{
	{Title: "Child C", Width: 12, Value: func(n *Node) string { return strings.Join(n.ChildC, ",") }},
	{Title: "Child D", Width: 12, Value: func(n *Node) string { return strings.Join(n.ChildD, ",") }},
}

// Columns returns the node table columns shown under p.
func (p Policy) Columns() []Column {
	cols := append([]Column(nil), baseColumns...)
	if p == PolicyTaintBranch {
		return cols
	}
	return append(cols, childColumns...)
}
