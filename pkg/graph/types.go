package graph

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/taintview/pkg/taint"
)

// =============================================================================
// Graph
// =============================================================================

// Graph is the node-link serialization of a taint graph.
type Graph struct {
	Policy string `json:"policy,omitempty" yaml:"policy,omitempty" bson:"policy,omitempty"`
	Nodes  []Node `json:"nodes" yaml:"nodes" bson:"nodes"`
	Edges  []Edge `json:"edges" yaml:"edges" bson:"edges"`
}

// Node mirrors [taint.Node].
type Node struct {
	UUID        string   `json:"uuid" yaml:"uuid" bson:"uuid"`
	Type        string   `json:"type,omitempty" yaml:"type,omitempty" bson:"type,omitempty"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty" bson:"name,omitempty"`
	StartInd    string   `json:"startind,omitempty" yaml:"startind,omitempty" bson:"startind,omitempty"`
	EndInd      string   `json:"endind,omitempty" yaml:"endind,omitempty" bson:"endind,omitempty"`
	EdgeAnn     string   `json:"edgeann,omitempty" yaml:"edgeann,omitempty" bson:"edgeann,omitempty"`
	ChildC      []string `json:"child_c,omitempty" yaml:"child_c,omitempty" bson:"child_c,omitempty"`
	ChildD      []string `json:"child_d,omitempty" yaml:"child_d,omitempty" bson:"child_d,omitempty"`
	NodeAttr    string   `json:"nodeattr,omitempty" yaml:"nodeattr,omitempty" bson:"nodeattr,omitempty"`
	Placeholder bool     `json:"placeholder,omitempty" yaml:"placeholder,omitempty" bson:"placeholder,omitempty"`
}

// Edge mirrors [taint.Edge].
type Edge struct {
	From string `json:"from" yaml:"from" bson:"from"`
	To   string `json:"to" yaml:"to" bson:"to"`
	Type string `json:"type" yaml:"type" bson:"type"`
	Anno string `json:"anno,omitempty" yaml:"anno,omitempty" bson:"anno,omitempty"`
}

// =============================================================================
// taint.Graph <-> Graph Conversion
// =============================================================================

// FromTaint converts g to its serialization form. Nodes and edges keep
// insertion order.
func FromTaint(g *taint.Graph) Graph {
	out := Graph{
		Nodes: make([]Node, 0, g.NodeCount()),
		Edges: make([]Edge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, NodeOf(n))
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, Edge{From: e.From, To: e.To, Type: e.Type, Anno: e.Anno})
	}
	return out
}

// NodeOf returns the serialization form of n.
func NodeOf(n *taint.Node) Node {
	return Node{
		UUID:        n.UUID,
		Type:        n.Type,
		Name:        n.Name,
		StartInd:    n.StartInd,
		EndInd:      n.EndInd,
		EdgeAnn:     n.EdgeAnn,
		ChildC:      n.ChildC,
		ChildD:      n.ChildD,
		NodeAttr:    n.NodeAttr,
		Placeholder: n.Placeholder,
	}
}

// ToTaint rebuilds a taint graph. Duplicate node ids and edges to
// unknown nodes are errors.
func ToTaint(gj Graph) (*taint.Graph, error) {
	g := taint.NewGraph()
	reg := g.Registry()

	for _, nj := range gj.Nodes {
		if nj.UUID == "" {
			return nil, fmt.Errorf("node with empty uuid")
		}
		n, created := reg.GetOrCreate(nj.UUID)
		if !created {
			return nil, fmt.Errorf("duplicate node %s", nj.UUID)
		}
		*n = taint.Node{
			UUID:        nj.UUID,
			Type:        nj.Type,
			Name:        nj.Name,
			StartInd:    nj.StartInd,
			EndInd:      nj.EndInd,
			EdgeAnn:     nj.EdgeAnn,
			ChildC:      nj.ChildC,
			ChildD:      nj.ChildD,
			NodeAttr:    nj.NodeAttr,
			Placeholder: nj.Placeholder,
		}
	}

	for _, ej := range gj.Edges {
		e := taint.Edge{From: ej.From, To: ej.To, Type: ej.Type, Anno: ej.Anno}
		if err := g.AddEdge(e); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", ej.From, ej.To, err)
		}
	}
	return g, nil
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}
