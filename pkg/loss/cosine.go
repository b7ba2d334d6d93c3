package loss

import "gonum.org/v1/gonum/mat"

// Cosine is the cosine-ranking term: a margin-free pairwise ranking loss
// over the batch's gold scores. Pair embeddings are L2-normalized, each
// pair's cosine similarity is scaled by tau, and every ordered pair of
// pairs contributes exp(similarity gap) inside log(1 + sum), so correctly
// ordered pairs with a wide margin cost ~0 and violations grow unbounded.
func Cosine(labels []float64, emb *mat.Dense, tau float64) float64 {
	n := len(labels) / 2

	gold := make([]float64, n)
	for k := 0; k < n; k++ {
		gold[k] = labels[2*k]
	}

	normed := normalizeRows(emb)
	scores := make([]float64, n)
	for k := 0; k < n; k++ {
		scores[k] = rowDot(normed, 2*k, 2*k+1) * tau
	}

	return rankingLoss(gold, scores)
}
