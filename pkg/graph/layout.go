package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/taintview/pkg/layout"
	"github.com/matzehuels/taintview/pkg/taint"
)

// =============================================================================
// Layout
// =============================================================================

// Layout is a computed placement of a graph together with what produced it.
type Layout struct {
	Strategy string  `json:"strategy" yaml:"strategy" bson:"strategy"`
	Policy   string  `json:"policy,omitempty" yaml:"policy,omitempty" bson:"policy,omitempty"`
	Width    float64 `json:"width" yaml:"width" bson:"width"`
	Height   float64 `json:"height" yaml:"height" bson:"height"`
	Scale    float64 `json:"scale" yaml:"scale" bson:"scale"`

	Positions []Position `json:"positions" yaml:"positions" bson:"positions"`
	Edges     []Edge     `json:"edges,omitempty" yaml:"edges,omitempty" bson:"edges,omitempty"`
}

// Position is one placed node with its display attributes.
type Position struct {
	ID    string  `json:"id" yaml:"id" bson:"id"`
	X     float64 `json:"x" yaml:"x" bson:"x"`
	Y     float64 `json:"y" yaml:"y" bson:"y"`
	Label string  `json:"label,omitempty" yaml:"label,omitempty" bson:"label,omitempty"`
	Class string  `json:"class,omitempty" yaml:"class,omitempty" bson:"class,omitempty"`
}

// NewLayout packages computed positions. Positions are ordered by uuid;
// Width and Height are the bounding box of the points.
func NewLayout(g *taint.Graph, strategy string, opts layout.Options, pos layout.Positions) Layout {
	opts = opts.WithDefaults()
	l := Layout{
		Strategy:  layout.Resolve(strategy, opts.Policy),
		Policy:    string(opts.Policy),
		Scale:     opts.Scale,
		Positions: make([]Position, 0, len(pos)),
	}
	for _, p := range pos.Sorted() {
		out := Position{ID: p.ID, X: p.X, Y: p.Y}
		if n, ok := g.Node(p.ID); ok {
			out.Label = n.Label()
			out.Class = string(n.Class())
		}
		l.Width = max(l.Width, p.X)
		l.Height = max(l.Height, p.Y)
		l.Positions = append(l.Positions, out)
	}
	for _, e := range g.Edges() {
		l.Edges = append(l.Edges, Edge{From: e.From, To: e.To, Type: e.Type, Anno: e.Anno})
	}
	return l
}

// Points returns the positions as a map.
func (l Layout) Points() layout.Positions {
	pos := make(layout.Positions, len(l.Positions))
	for _, p := range l.Positions {
		pos[p.ID] = layout.Point{X: p.X, Y: p.Y}
	}
	return pos
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to indented JSON.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON into a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Strategy == "" {
		return Layout{}, fmt.Errorf("layout has no strategy")
	}
	return l, nil
}

// WriteLayoutFile writes l to path as JSON or YAML by extension.
func WriteLayoutFile(l Layout, path string) error {
	var buf bytes.Buffer
	if err := encode(&buf, l, FormatFor(path)); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// ReadLayoutFile reads a layout file written by WriteLayoutFile.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	if FormatFor(path) == FormatYAML {
		var l Layout
		if err := decode(bytes.NewReader(data), &l, FormatYAML); err != nil {
			return Layout{}, err
		}
		return l, nil
	}
	return UnmarshalLayout(data)
}
