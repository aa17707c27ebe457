// Package vector holds the dense float math the coverage engine needs.
package vector

import "math"

// Norm returns the Euclidean norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of a and b over their shared length, so a
// ragged row from a misbehaving provider degrades instead of panicking. For
// unit vectors of equal dimension this is the cosine similarity.
func Dot(a, b []float32) float32 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}

// Normalize scales each row of m to unit length in place. Zero rows are left
// as zero vectors instead of producing NaNs.
func Normalize(m [][]float32) {
	for _, row := range m {
		norm := Norm(row)
		if norm == 0 {
			continue
		}
		for i := range row {
			row[i] = float32(float64(row[i]) / norm)
		}
	}
}

// SimilarityMatrix computes a·bᵀ as a len(a)×len(b) matrix. Given
// unit-normalized inputs each cell is a cosine similarity in [-1, 1]; the
// caller decides whether to clamp. Either side empty yields nil.
func SimilarityMatrix(a, b [][]float32) [][]float32 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	out := make([][]float32, len(a))
	for i, ra := range a {
		row := make([]float32, len(b))
		for j, rb := range b {
			row[j] = Dot(ra, rb)
		}
		out[i] = row
	}
	return out
}
