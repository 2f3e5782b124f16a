// Package cluster partitions embedding vectors into density-based groups of
// near-duplicate articles. Points that are density-reachable from a core
// point share a cluster; everything else is an outlier.
package cluster

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Outlier marks a vector that joined no cluster.
const Outlier = -1

const (
	DefaultEps        = 0.3
	DefaultMinSamples = 2
)

// Grouper runs DBSCAN over pairwise cosine distances. A point is a core
// point when at least minSamples points (itself included) lie within eps;
// clusters connect mutually reachable core points and absorb border points
// reachable from them.
type Grouper struct {
	eps        float64
	minSamples int
	logger     zerolog.Logger
}

func NewGrouper(eps float64, minSamples int, logger zerolog.Logger) (*Grouper, error) {
	if eps <= 0 {
		return nil, fmt.Errorf("eps must be > 0, got %f", eps)
	}
	if minSamples < 1 {
		return nil, fmt.Errorf("min samples must be >= 1, got %d", minSamples)
	}
	return &Grouper{
		eps:        eps,
		minSamples: minSamples,
		logger:     logger,
	}, nil
}

// Cluster assigns each row of vectors to a non-negative cluster id or
// Outlier. Ids are issued in order of the first core point encountered, so
// identical input always yields identical assignments.
func (g *Grouper) Cluster(vectors mat.Matrix) ([]int, error) {
	if g == nil {
		return nil, fmt.Errorf("grouper is not initialized")
	}

	n, _ := vectors.Dims()
	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = Outlier
	}
	if n == 0 {
		return assignments, nil
	}

	distances := PairwiseDistances(vectors)

	neighbors := make([][]int, n)
	core := make([]bool, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if distances.At(i, j) <= g.eps {
				neighbors[i] = append(neighbors[i], j)
			}
		}
		core[i] = len(neighbors[i]) >= g.minSamples
	}

	nextID := 0
	for i := 0; i < n; i++ {
		if !core[i] || assignments[i] != Outlier {
			continue
		}

		id := nextID
		nextID++
		assignments[i] = id

		queue := append([]int(nil), neighbors[i]...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			if assignments[j] != Outlier {
				continue
			}
			assignments[j] = id
			if core[j] {
				queue = append(queue, neighbors[j]...)
			}
		}
	}

	outliers := 0
	for _, id := range assignments {
		if id == Outlier {
			outliers++
		}
	}
	g.logger.Info().
		Int("vectors", n).
		Int("clusters", nextID).
		Int("outliers", outliers).
		Float64("eps", g.eps).
		Int("min_samples", g.minSamples).
		Msg("clustered embeddings")

	return assignments, nil
}

// PairwiseDistances returns the symmetric n*n cosine distance matrix.
func PairwiseDistances(vectors mat.Matrix) *mat.Dense {
	n, _ := vectors.Dims()
	if n == 0 {
		return &mat.Dense{}
	}

	distances := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := cosineDistance(rowOf(vectors, i), rowOf(vectors, j))
			distances.Set(i, j, d)
			distances.Set(j, i, d)
		}
	}
	return distances
}

func rowOf(vectors mat.Matrix, i int) []float64 {
	_, cols := vectors.Dims()
	row := make([]float64, cols)
	for j := 0; j < cols; j++ {
		row[j] = vectors.At(i, j)
	}
	return row
}

func cosineDistance(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	switch {
	case similarity > 1:
		similarity = 1
	case similarity < -1:
		similarity = -1
	}
	return 1 - similarity
}
