package layout

import (
	"math"
	"math/rand/v2"

	"github.com/matzehuels/taintview/pkg/taint"
	"github.com/matzehuels/taintview/pkg/taint/transform"
)

// circular spaces nodes evenly on one circle in trace order.
func circular(g *taint.Graph, o Options) (Positions, error) {
	ids := g.NodeIDs()
	c := o.Scale / 2
	if len(ids) == 1 {
		return Positions{ids[0]: {X: c, Y: c}}, nil
	}
	pos := make(Positions, len(ids))
	placeRing(pos, ids, c, c)
	return pos, nil
}

func placeRing(pos Positions, ids []string, center, radius float64) {
	step := 2 * math.Pi / float64(len(ids))
	for i, id := range ids {
		theta := step * float64(i)
		pos[id] = Point{
			X: center + radius*math.Cos(theta),
			Y: center + radius*math.Sin(theta),
		}
	}
}

// shell puts each longest-path layer on its own ring. A single-node first
// shell sits at the center.
func shell(g *taint.Graph, o Options) (Positions, error) {
	acyclic := g.Clone()
	transform.BreakCycles(acyclic)
	layers := transform.AssignLayers(acyclic)

	shells := make([][]string, transform.Depth(layers))
	for _, id := range g.NodeIDs() {
		shells[layers[id]] = append(shells[layers[id]], id)
	}

	c := o.Scale / 2
	bump := c / float64(len(shells))
	radius := bump
	if len(shells[0]) == 1 {
		radius = 0
		bump = c / float64(max(len(shells)-1, 1))
	}

	pos := make(Positions, g.NodeCount())
	for _, ring := range shells {
		if radius == 0 {
			pos[ring[0]] = Point{X: c, Y: c}
		} else {
			placeRing(pos, ring, c, radius)
		}
		radius += bump
	}
	return pos, nil
}

// spring is Fruchterman-Reingold on the undirected simple graph with
// optimal distance sqrt(1/n), a linearly cooling step and a seeded start.
func spring(g *taint.Graph, o Options) (Positions, error) {
	ids := g.NodeIDs()
	n := len(ids)
	if n == 1 {
		return Positions{ids[0]: {X: o.Scale / 2, Y: o.Scale / 2}}, nil
	}
	adj := adjacency(g, ids)

	rng := rand.New(rand.NewPCG(o.Seed, o.Seed))
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range ids {
		xs[i] = rng.Float64()
		ys[i] = rng.Float64()
	}

	k := math.Sqrt(1 / float64(n))
	temp := 0.1 * max(spread(xs), spread(ys))
	cool := temp / float64(o.Iterations+1)
	dx := make([]float64, n)
	dy := make([]float64, n)

	for iter := 0; iter < o.Iterations; iter++ {
		for i := 0; i < n; i++ {
			dx[i], dy[i] = 0, 0
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				ddx, ddy := xs[i]-xs[j], ys[i]-ys[j]
				dist := max(math.Hypot(ddx, ddy), 0.01)
				f := k*k/(dist*dist) - adj[i][j]*dist/k
				dx[i] += ddx * f
				dy[i] += ddy * f
			}
		}
		moved := 0.0
		for i := 0; i < n; i++ {
			length := math.Hypot(dx[i], dy[i])
			if length < 0.01 {
				length = 0.1
			}
			mx, my := dx[i]*temp/length, dy[i]*temp/length
			xs[i] += mx
			ys[i] += my
			moved += math.Hypot(mx, my)
		}
		temp -= cool
		if moved/float64(n) < 1e-4 {
			break
		}
	}
	return rescale(ids, xs, ys, o.Scale), nil
}

// adjacency is the symmetric 0/1 matrix of the undirected simple graph.
// Self loops are dropped.
func adjacency(g *taint.Graph, ids []string) [][]float64 {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	adj := make([][]float64, len(ids))
	for i := range adj {
		adj[i] = make([]float64, len(ids))
	}
	for _, e := range g.Edges() {
		i, j := index[e.From], index[e.To]
		if i != j {
			adj[i][j], adj[j][i] = 1, 1
		}
	}
	return adj
}

func spread(v []float64) float64 {
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		lo, hi = min(lo, x), max(hi, x)
	}
	return hi - lo
}

// rescale centers the coordinates on their mean, scales the largest
// absolute coordinate to 1 and maps [-1, 1] onto [0, scale].
func rescale(ids []string, xs, ys []float64, scale float64) Positions {
	n := float64(len(ids))
	var mx, my float64
	for i := range ids {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n

	lim := 0.0
	for i := range ids {
		xs[i] -= mx
		ys[i] -= my
		lim = max(lim, math.Abs(xs[i]), math.Abs(ys[i]))
	}
	if lim == 0 {
		lim = 1
	}

	pos := make(Positions, len(ids))
	for i, id := range ids {
		pos[id] = Point{
			X: (xs[i]/lim + 1) / 2 * scale,
			Y: (ys[i]/lim + 1) / 2 * scale,
		}
	}
	return pos
}
