package loss

import (
	"gonum.org/v1/gonum/mat"
)

// selfMaskOffset pushes self-similarity out of the softmax.
const selfMaskOffset = 1e12

// InBatchNegative is the contrastive term: every row's softmax over its
// similarities to all other rows should put mass on its designated partner
// (even row i pairs with i+1, odd with i-1) when both rows carry a nonzero
// label. Rows holding token-identical text (simMask) count as additional
// positives. Purely-negative pairings can be pushed down further with
// negativeWeight.
func InBatchNegative(labels []float64, emb *mat.Dense, tau float64, simMask *mat.Dense, negativeWeight float64) float64 {
	n := len(labels)

	// Target matrix: row i's partner column is hot when both rows are
	// labeled positive. Built explicitly from pair semantics.
	target := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		p := partner(i)
		if labels[i] != 0 && labels[p] != 0 {
			target.Set(i, p, 1)
		}
	}
	if simMask != nil {
		target.Add(target, simMask)
	}

	// negMask marks pairings where both rows are labeled negative.
	var negMask *mat.Dense
	if negativeWeight > 0 {
		negMask = mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			p := partner(i)
			if labels[i] == 0 && labels[p] == 0 {
				negMask.Set(i, p, 1)
			}
		}
	}

	normed := normalizeRows(emb)
	sims := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s := rowDot(normed, i, j)
			if i == j {
				s -= selfMaskOffset
			}
			s *= tau
			if negMask != nil {
				s += negMask.At(i, j) * negativeWeight
			}
			sims.Set(i, j, s)
		}
	}

	// Mean per-row categorical cross-entropy with the (unnormalized
	// multi-hot) target as weights over the log-softmax of the logits.
	total := 0.0
	rowLogits := make([]float64, n)
	for i := 0; i < n; i++ {
		mat.Row(rowLogits, i, sims)
		lse := logSumExp(rowLogits)
		for j := 0; j < n; j++ {
			if w := target.At(i, j); w != 0 {
				total += w * (lse - sims.At(i, j))
			}
		}
	}

	return total / float64(n)
}

// partner returns the designated partner row under the interleaving rule.
func partner(i int) int {
	if i%2 == 0 {
		return i + 1
	}
	return i - 1
}
