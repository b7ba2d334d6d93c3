package loss_test

import (
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/papercomputeco/angler/pkg/loss"
)

func TestLoss(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Loss Suite")
}

// dense builds a row-major matrix.
func dense(rows, cols int, data ...float64) *mat.Dense {
	return mat.NewDense(rows, cols, data)
}

var _ = Describe("Cosine", func() {
	It("equals log(2) for one ordered pair with zero similarity gap", func() {
		// Two pairs with gold scores 0 and 1 and identical embeddings:
		// exactly one ordered pair-of-pairs, gap zero.
		labels := []float64{0, 0, 1, 1}
		emb := dense(4, 2,
			1, 0,
			1, 0,
			1, 0,
			1, 0,
		)

		got := loss.Cosine(labels, emb, 20)
		Expect(got).To(BeNumerically("~", math.Log(2), 1e-12))
	})

	It("is small when the gold order is respected with a wide margin", func() {
		// Pair 0 (gold 0) dissimilar, pair 1 (gold 1) identical.
		labels := []float64{0, 0, 1, 1}
		emb := dense(4, 2,
			1, 0,
			0, 1,
			1, 0,
			1, 0,
		)

		Expect(loss.Cosine(labels, emb, 20)).To(BeNumerically("<", 0.01))
	})

	It("grows when the gold order is violated", func() {
		// Pair 0 (gold 0) identical, pair 1 (gold 1) dissimilar.
		labels := []float64{0, 0, 1, 1}
		emb := dense(4, 2,
			1, 0,
			1, 0,
			1, 0,
			0, 1,
		)

		Expect(loss.Cosine(labels, emb, 20)).To(BeNumerically(">", math.Log(2)))
	})

	It("is log(1) when no ordered pairs exist", func() {
		labels := []float64{1, 1, 1, 1}
		emb := dense(4, 2,
			1, 0,
			1, 0,
			0, 1,
			0, 1,
		)

		Expect(loss.Cosine(labels, emb, 20)).To(BeNumerically("~", 0, 1e-12))
	})
})

var _ = Describe("Angle", func() {
	It("equals log(2) for one ordered pair with identical embeddings", func() {
		labels := []float64{0, 0, 1, 1}
		emb := dense(4, 4,
			1, 2, 3, 4,
			1, 2, 3, 4,
			1, 2, 3, 4,
			1, 2, 3, 4,
		)

		got := loss.Angle(labels, emb, 1)
		Expect(got).To(BeNumerically("~", math.Log(2), 1e-12))
	})

	It("responds to angular differences between pair halves", func() {
		labels := []float64{0, 0, 1, 1}
		aligned := dense(4, 4,
			1, 0, 0, 1,
			1, 0, 0, 1,
			1, 0, 0, 1,
			1, 0, 0, 1,
		)
		rotated := dense(4, 4,
			1, 0, 0, 1,
			0, 1, 1, 0,
			1, 0, 0, 1,
			1, 0, 0, 1,
		)

		Expect(loss.Angle(labels, aligned, 1)).NotTo(Equal(loss.Angle(labels, rotated, 1)))
	})
})

var _ = Describe("InBatchNegative", func() {
	It("is near zero when partners dominate all other rows", func() {
		labels := []float64{1, 1, 1, 1}
		emb := dense(4, 2,
			1, 0,
			1, 0,
			0, 1,
			0, 1,
		)

		Expect(loss.InBatchNegative(labels, emb, 20, nil, 0)).To(BeNumerically("<", 0.01))
	})

	It("is large when partners are dissimilar", func() {
		labels := []float64{1, 1, 1, 1}
		emb := dense(4, 2,
			1, 0,
			0, 1,
			0, 1,
			1, 0,
		)

		Expect(loss.InBatchNegative(labels, emb, 20, nil, 0)).To(BeNumerically(">", 1))
	})

	It("is zero when no row is labeled positive", func() {
		labels := []float64{0, 0, 0, 0}
		emb := dense(4, 2,
			1, 0,
			0, 1,
			0, 1,
			1, 0,
		)

		Expect(loss.InBatchNegative(labels, emb, 20, nil, 0)).To(Equal(0.0))
	})

	It("treats similarity-masked rows as additional positives", func() {
		labels := []float64{1, 1, 1, 1}
		emb := dense(4, 2,
			1, 0,
			1, 0,
			1, 0,
			1, 0,
		)

		simMask := mat.NewDense(4, 4, nil)
		simMask.Set(0, 2, 1)
		simMask.Set(2, 0, 1)

		with := loss.InBatchNegative(labels, emb, 20, simMask, 0)
		without := loss.InBatchNegative(labels, emb, 20, nil, 0)
		Expect(with).To(BeNumerically(">", without))
	})

	It("down-ranks purely negative pairings with negativeWeight", func() {
		labels := []float64{1, 1, 0, 0}
		emb := dense(4, 2,
			1, 0,
			1, 0,
			0.6, 0.8,
			0.6, 0.8,
		)

		// A similarity-mask positive on a negative row exposes the bonus
		// applied to that row's purely-negative partner logit.
		simMask := mat.NewDense(4, 4, nil)
		simMask.Set(2, 0, 1)
		simMask.Set(0, 2, 1)

		boosted := loss.InBatchNegative(labels, emb, 20, simMask, 10)
		plain := loss.InBatchNegative(labels, emb, 20, simMask, 0)
		Expect(boosted).NotTo(Equal(plain))
	})
})

var _ = Describe("Loss", func() {
	labels := []float64{0, 0, 1, 1}
	emb := dense(4, 4,
		1, 0, 0, 1,
		0, 1, 1, 0,
		1, 1, 0, 0,
		1, 1, 0.5, 0,
	)

	It("reduces to the cosine term alone when only w1 is set", func() {
		l := loss.New(loss.Config{W1: 1, CosineTau: 20})

		got, err := l.Compute(labels, emb, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(loss.Cosine(labels, emb, 20)))
	})

	It("sums the weighted terms", func() {
		cfg := loss.DefaultConfig()
		l := loss.New(cfg)

		got, err := l.Compute(labels, emb, nil)
		Expect(err).NotTo(HaveOccurred())

		want := loss.Cosine(labels, emb, cfg.CosineTau) +
			loss.InBatchNegative(labels, emb, cfg.IBNTau, nil, 0) +
			loss.Angle(labels, emb, cfg.AngleTau)
		Expect(got).To(BeNumerically("~", want, 1e-12))
	})

	It("rejects label/embedding shape mismatches", func() {
		l := loss.New(loss.DefaultConfig())
		_, err := l.Compute([]float64{1, 1}, emb, nil)
		Expect(err).To(MatchError(loss.ErrShapeMismatch))
	})

	It("rejects odd embedding dimensions when the angle term is active", func() {
		l := loss.New(loss.DefaultConfig())
		odd := dense(4, 3,
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
			1, 1, 0,
		)
		_, err := l.Compute(labels, odd, nil)
		Expect(err).To(MatchError(loss.ErrOddDimension))
	})

	It("accepts odd dimensions when the angle term is off", func() {
		l := loss.New(loss.Config{W1: 1, CosineTau: 20})
		odd := dense(4, 3,
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
			1, 1, 0,
		)
		_, err := l.Compute(labels, odd, nil)
		Expect(err).NotTo(HaveOccurred())
	})
})
