// Package vector holds the float32 vector math shared by indexing and search.
// All stored vectors are L2-normalized, so cosine similarity is a dot product.
package vector

import "math"

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of v. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	n := Norm(v)
	out := make([]float32, len(v))
	if n == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}

// Dot returns the dot product of a and b. For unit vectors this equals
// cosine similarity. Mismatched lengths score the overlapping prefix only;
// dimension checks belong to the callers that construct the vectors.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// WeightedSum accumulates weight[i]*vecs[i] and renormalizes to unit length.
// Vectors must share a dimensionality; nil entries are skipped.
func WeightedSum(vecs [][]float32, weights []float64) []float32 {
	var dim int
	for _, v := range vecs {
		if len(v) > dim {
			dim = len(v)
		}
	}
	acc := make([]float64, dim)
	for i, v := range vecs {
		if v == nil || i >= len(weights) {
			continue
		}
		w := weights[i]
		for j, x := range v {
			acc[j] += w * float64(x)
		}
	}
	out := make([]float32, dim)
	for j, x := range acc {
		out[j] = float32(x)
	}
	return Normalize(out)
}
