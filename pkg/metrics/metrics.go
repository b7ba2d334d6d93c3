// Package metrics scores predicted pair similarities against gold labels:
// Spearman rank correlation for graded labels, and threshold accuracy for
// binary ones. Degenerate inputs yield NaN rather than panics.
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// epsilon keeps cosine scores strictly inside atanh's domain.
const epsilon = 1e-7

// SpearmanCorrelation returns the Spearman rank correlation between
// predicted and gold scores, with ties assigned average ranks. It returns
// NaN when the inputs are shorter than two entries, disagree in length, or
// either side has zero rank variance.
func SpearmanCorrelation(pred, gold []float64) float64 {
	if len(pred) != len(gold) || len(pred) < 2 {
		return math.NaN()
	}
	return stat.Correlation(averageRanks(pred), averageRanks(gold), nil)
}

// Accuracy returns the fraction of entries where (label > 0.5) agrees with
// (score > threshold).
func Accuracy(labels, scores []float64, threshold float64) float64 {
	if len(labels) == 0 || len(labels) != len(scores) {
		return math.NaN()
	}

	correct := 0
	for i := range labels {
		if (labels[i] > 0.5) == (scores[i] > threshold) {
			correct++
		}
	}
	return float64(correct) / float64(len(labels))
}

// OptimalThreshold searches for the decision threshold maximizing Accuracy.
// The search runs in atanh space over midpoints between adjacent distinct
// scores, which covers every achievable accuracy value exactly. It returns
// the threshold mapped back through tanh along with the accuracy it attains.
func OptimalThreshold(labels, scores []float64) (float64, float64) {
	if len(labels) == 0 || len(labels) != len(scores) {
		return math.NaN(), math.NaN()
	}

	zs := make([]float64, 0, len(scores))
	for _, s := range scores {
		zs = append(zs, math.Atanh(clamp(s)))
	}
	sort.Float64s(zs)
	zs = dedupe(zs)

	candidates := make([]float64, 0, len(zs)+1)
	candidates = append(candidates, zs[0]-1)
	for i := 1; i < len(zs); i++ {
		candidates = append(candidates, (zs[i-1]+zs[i])/2)
	}
	candidates = append(candidates, zs[len(zs)-1]+1)

	bestZ, bestAcc := candidates[0], -1.0
	for _, c := range candidates {
		if acc := Accuracy(labels, scores, math.Tanh(c)); acc > bestAcc {
			bestZ, bestAcc = c, acc
		}
	}
	return math.Tanh(bestZ), bestAcc
}

func clamp(s float64) float64 {
	return math.Max(-1+epsilon, math.Min(1-epsilon, s))
}

func dedupe(sorted []float64) []float64 {
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// averageRanks assigns 1-based ranks, splitting ties evenly.
func averageRanks(v []float64) []float64 {
	n := len(v)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && v[idx[j+1]] == v[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
