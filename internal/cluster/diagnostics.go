package cluster

import "gonum.org/v1/gonum/mat"

// Info describes one cluster for inspection.
type Info struct {
	Size        int
	Indices     []int
	Centroid    []float64
	AvgDistance float64
}

// Pair is a pair of vectors closer than a threshold.
type Pair struct {
	I        int
	J        int
	Distance float64
}

// Infos computes per-cluster size, member indices, centroid, and average
// cosine distance to the centroid. Outliers are skipped.
func Infos(vectors mat.Matrix, assignments []int) map[int]Info {
	_, cols := vectors.Dims()

	members := make(map[int][]int)
	for i, id := range assignments {
		if id == Outlier {
			continue
		}
		members[id] = append(members[id], i)
	}

	infos := make(map[int]Info, len(members))
	for id, indices := range members {
		centroid := make([]float64, cols)
		for _, idx := range indices {
			for j := 0; j < cols; j++ {
				centroid[j] += vectors.At(idx, j)
			}
		}
		for j := range centroid {
			centroid[j] /= float64(len(indices))
		}

		total := 0.0
		for _, idx := range indices {
			total += cosineDistance(centroid, rowOf(vectors, idx))
		}

		infos[id] = Info{
			Size:        len(indices),
			Indices:     indices,
			Centroid:    centroid,
			AvgDistance: total / float64(len(indices)),
		}
	}
	return infos
}

// SimilarityMatrix returns the n*n cosine similarity matrix (1 = identical).
func SimilarityMatrix(vectors mat.Matrix) *mat.Dense {
	n, _ := vectors.Dims()
	if n == 0 {
		return &mat.Dense{}
	}

	distances := PairwiseDistances(vectors)
	similarities := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				similarities.Set(i, j, 1)
				continue
			}
			similarities.Set(i, j, 1-distances.At(i, j))
		}
	}
	return similarities
}

// SimilarPairs returns every (i, j) pair with cosine distance strictly below
// threshold, in index order.
func SimilarPairs(vectors mat.Matrix, threshold float64) []Pair {
	n, _ := vectors.Dims()
	if n < 2 {
		return nil
	}

	distances := PairwiseDistances(vectors)
	var pairs []Pair
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if d := distances.At(i, j); d < threshold {
				pairs = append(pairs, Pair{I: i, J: j, Distance: d})
			}
		}
	}
	return pairs
}
