package layout

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/taintview/pkg/taint"
)

// spectral uses the eigenvectors of the second and third smallest
// eigenvalues of the graph Laplacian as x and y. Graphs with fewer than
// three nodes have no second coordinate and fall back to circular.
func spectral(g *taint.Graph, o Options) (Positions, error) {
	ids := g.NodeIDs()
	n := len(ids)
	if n < 3 {
		return circular(g, o)
	}

	adj := adjacency(g, ids)
	lap := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		deg := 0.0
		for j := 0; j < n; j++ {
			if adj[i][j] != 0 {
				lap.SetSym(i, j, -adj[i][j])
				deg += adj[i][j]
			}
		}
		lap.SetSym(i, i, deg)
	}

	var es mat.EigenSym
	if !es.Factorize(lap, true) {
		return nil, errors.New("spectral layout: eigendecomposition did not converge")
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	xs := column(&vecs, 1)
	ys := column(&vecs, 2)
	return rescale(ids, xs, ys, o.Scale), nil
}

// column copies eigenvector j with its sign fixed so that the entry of
// largest magnitude is positive.
func column(m *mat.Dense, j int) []float64 {
	r, _ := m.Dims()
	out := make([]float64, r)
	big := 0
	for i := 0; i < r; i++ {
		out[i] = m.At(i, j)
		if math.Abs(out[i]) > math.Abs(out[big])+1e-12 {
			big = i
		}
	}
	if out[big] < 0 {
		for i := range out {
			out[i] = -out[i]
		}
	}
	return out
}
