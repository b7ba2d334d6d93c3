package loss

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const normEps = 1e-12

// normalizeRows returns a copy of m with each row scaled to unit L2 norm.
func normalizeRows(m *mat.Dense) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		norm := 0.0
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm < normEps {
			norm = normEps
		}
		for j := 0; j < cols; j++ {
			out.Set(i, j, m.At(i, j)/norm)
		}
	}
	return out
}

// logSumExp computes log(sum(exp(vals))) stably.
func logSumExp(vals []float64) float64 {
	if len(vals) == 0 {
		return math.Inf(-1)
	}
	max := vals[0]
	for _, v := range vals[1:] {
		if v > max {
			max = v
		}
	}
	if math.IsInf(max, -1) {
		return max
	}
	sum := 0.0
	for _, v := range vals {
		sum += math.Exp(v - max)
	}
	return max + math.Log(sum)
}

// rankingLoss applies the shared pairwise construction: among all ordered
// pairs (i, j) where gold[i] < gold[j], the score gap scores[i]-scores[j]
// contributes exp(gap); an explicit zero term makes the loss log(1 + sum).
// Pairs already in the right order with a wide margin contribute ~0;
// violations grow without bound.
func rankingLoss(gold, scores []float64) float64 {
	terms := []float64{0}
	for i := range gold {
		for j := range gold {
			if gold[i] < gold[j] {
				terms = append(terms, scores[i]-scores[j])
			}
		}
	}
	return logSumExp(terms)
}

// rowDot returns the dot product of rows a and b of m.
func rowDot(m *mat.Dense, a, b int) float64 {
	_, cols := m.Dims()
	sum := 0.0
	for j := 0; j < cols; j++ {
		sum += m.At(a, j) * m.At(b, j)
	}
	return sum
}
