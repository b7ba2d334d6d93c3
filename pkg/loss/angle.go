package loss

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Angle is the angle-difference term. Each embedding's two halves are read
// as the real and imaginary parts of a complex vector; for every pair the
// element-wise normalized quotient (a+bi)/(c+di) is computed, its real and
// imaginary parts are summed, and the absolute value scaled by tau becomes
// the pair's angle score. Scores then go through the same strict-order
// ranking construction as the cosine term.
func Angle(labels []float64, emb *mat.Dense, tau float64) float64 {
	n := len(labels) / 2
	_, dim := emb.Dims()
	half := dim / 2

	gold := make([]float64, n)
	for k := 0; k < n; k++ {
		gold[k] = labels[2*k]
	}

	scores := make([]float64, n)
	for k := 0; k < n; k++ {
		// Row 2k is z = a+bi, row 2k+1 is w = c+di.
		//   z/w = ((ac + bd) + i(bc - ad)) / (c^2 + d^2)
		var z, dz2, dw2 float64
		for l := 0; l < half; l++ {
			c := emb.At(2*k+1, l)
			d := emb.At(2*k+1, half+l)
			z += c*c + d*d
		}
		for l := 0; l < half; l++ {
			a := emb.At(2*k, l)
			b := emb.At(2*k, half+l)
			dz2 += a*a + b*b
		}
		dw2 = z

		sum := 0.0
		for l := 0; l < half; l++ {
			a := emb.At(2*k, l)
			b := emb.At(2*k, half+l)
			c := emb.At(2*k+1, l)
			d := emb.At(2*k+1, half+l)

			re := (a*c + b*d) / z
			im := (b*c - a*d) / z
			sum += re + im
		}

		// Scale by |w|/|z| to normalize the quotient's magnitude.
		ratio := math.Sqrt(dw2) / math.Sqrt(dz2)
		scores[k] = math.Abs(sum*ratio) * tau
	}

	return rankingLoss(gold, scores)
}
