package layout

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/matzehuels/taintview/pkg/taint"
)

// Strategy names.
const (
	Spring   = "spring"
	Circular = "circular"
	Shell    = "shell"
	Spectral = "spectral"
	Standard = "standard"
	Branch   = "branch"
	Layered  = "layered"
)

// Defaults for [Options].
const (
	DefaultWidth      = 800.0
	DefaultHeight     = 600.0
	DefaultScale      = 800.0
	DefaultRowSlots   = 20
	DefaultRowHeight  = 60.0
	DefaultSeed       = 42
	DefaultIterations = 50
)

// ErrUnsupportedStrategy is returned by [Compute] for unknown names.
var ErrUnsupportedStrategy = errors.New("unsupported layout strategy")

// Point is a canvas position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Positions maps node uuids to points.
type Positions map[string]Point

// Placed is one entry of [Positions.Sorted].
type Placed struct {
	ID string
	Point
}

// Sorted returns the positions ordered by numeric uuid.
func (p Positions) Sorted() []Placed {
	out := make([]Placed, 0, len(p))
	for id, pt := range p {
		out = append(out, Placed{ID: id, Point: pt})
	}
	slices.SortFunc(out, func(a, b Placed) int { return CompareIDs(a.ID, b.ID) })
	return out
}

// CompareIDs orders decimal uuids numerically and anything else after them
// lexically.
func CompareIDs(a, b string) int {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(na, nb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return cmp.Compare(a, b)
}

// Options tunes the strategies. Zero fields take the Default* values.
type Options struct {
	Width      float64      // canvas width for Standard and Layered
	Height     float64      // canvas height for Standard
	Scale      float64      // side of the square for geometric strategies and Branch
	RowSlots   int          // Standard divides Height into this many rows
	RowHeight  float64      // Branch and Layered row spacing
	Seed       uint64       // Spring initial placement
	Iterations int          // Spring iterations
	Policy     taint.Policy // TAINT_BRANCH turns Standard into Branch

	// SingleBranch makes Branch follow only the first child of each node,
	// child_c before child_d.
	SingleBranch bool
}

// WithDefaults returns o with zero fields replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.RowSlots <= 0 {
		o.RowSlots = DefaultRowSlots
	}
	if o.RowHeight <= 0 {
		o.RowHeight = DefaultRowHeight
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Iterations <= 0 {
		o.Iterations = DefaultIterations
	}
	if o.Policy == "" {
		o.Policy = taint.PolicyDefault
	}
	return o
}

type strategyFunc func(*taint.Graph, Options) (Positions, error)

var strategies = map[string]strategyFunc{
	Spring:   spring,
	Circular: circular,
	Shell:    shell,
	Spectral: spectral,
	Standard: standard,
	Branch:   branch,
	Layered:  layered,
}

// Strategies returns the supported strategy names, sorted.
func Strategies() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsValid reports whether name is a supported strategy.
func IsValid(name string) bool {
	_, ok := strategies[name]
	return ok
}

// Resolve returns the strategy that name runs under policy.
func Resolve(name string, policy taint.Policy) string {
	if name == Standard && policy == taint.PolicyTaintBranch {
		return Branch
	}
	return name
}

// Compute lays out g with the named strategy.
//
// Returns ErrUnsupportedStrategy for unknown names, or an error wrapping
// taint.ErrGraphHasCycle when Standard runs on a cyclic graph.
func Compute(g *taint.Graph, name string, opts Options) (Positions, error) {
	opts = opts.WithDefaults()
	fn, ok := strategies[Resolve(name, opts.Policy)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStrategy, name)
	}
	if g.NodeCount() == 0 {
		return Positions{}, nil
	}
	return fn(g, opts)
}
