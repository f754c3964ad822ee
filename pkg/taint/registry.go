package taint

import "github.com/matzehuels/taintview/pkg/trace"

// Registry maps uuids to nodes and remembers first-seen order.
type Registry struct {
	nodes map[string]*Node
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]*Node)}
}

// GetOrCreate returns the node for id, creating a placeholder if absent.
// The bool result is true when a node was created.
func (r *Registry) GetOrCreate(id string) (*Node, bool) {
	if n, ok := r.nodes[id]; ok {
		return n, false
	}
	n := &Node{UUID: id, Placeholder: true}
	r.nodes[id] = n
	r.order = append(r.order, id)
	return n, true
}

// Absorb fills the node for rec.UUID from rec, creating it if needed.
func (r *Registry) Absorb(rec trace.Record) *Node {
	n, _ := r.GetOrCreate(rec.UUID)
	n.Absorb(rec)
	return n
}

// SetAttr records attr on the node if it has none yet. The first edge type
// to reach a node wins; later calls are no-ops. Reports whether the
// attribute changed.
func (r *Registry) SetAttr(id, attr string) bool {
	n, ok := r.nodes[id]
	if !ok || n.NodeAttr != "" {
		return false
	}
	n.NodeAttr = attr
	return true
}

// Get returns the node for id.
func (r *Registry) Get(id string) (*Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// Len returns the number of nodes.
func (r *Registry) Len() int { return len(r.nodes) }

// IDs returns node ids in first-seen order. The slice must not be modified.
func (r *Registry) IDs() []string { return r.order }
