package sqlitevec_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/angler/pkg/vector"
	"github.com/papercomputeco/angler/pkg/vector/sqlitevec"
)

func TestSQLiteVec(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SQLiteVec Suite")
}

var _ = Describe("Driver", func() {
	var logger *zap.Logger

	BeforeEach(func() {
		logger = zap.NewNop()
	})

	newDriver := func() *sqlitevec.Driver {
		driver, err := sqlitevec.New(sqlitevec.Config{
			DBPath:     ":memory:",
			Dimensions: 4,
		}, logger)
		Expect(err).NotTo(HaveOccurred())
		return driver
	}

	Describe("New", func() {
		It("should return an error when DBPath is empty", func() {
			_, err := sqlitevec.New(sqlitevec.Config{DBPath: ""}, logger)
			Expect(err).To(MatchError(vector.ErrConnection))
		})

		It("should return an error when dimensions are not configured", func() {
			_, err := sqlitevec.New(sqlitevec.Config{DBPath: ":memory:"}, logger)
			Expect(err).To(MatchError(vector.ErrDimensions))
		})

		It("should create a driver with an in-memory database", func() {
			driver := newDriver()
			Expect(driver.Close()).To(Succeed())
		})
	})

	Describe("Add", func() {
		var driver *sqlitevec.Driver

		BeforeEach(func() {
			driver = newDriver()
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should do nothing when given empty docs", func() {
			Expect(driver.Add(context.Background(), nil)).To(Succeed())
		})

		It("should store a document's text alongside its embedding", func() {
			docs := []vector.Document{
				{ID: "doc-1", Text: "a plane is taking off", Embedding: []float32{1, 0, 0, 0}},
			}
			Expect(driver.Add(context.Background(), docs)).To(Succeed())

			retrieved, err := driver.Get(context.Background(), []string{"doc-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved).To(HaveLen(1))
			Expect(retrieved[0].Text).To(Equal("a plane is taking off"))
		})

		It("should reject embeddings of the wrong width", func() {
			docs := []vector.Document{
				{ID: "doc-1", Text: "too narrow", Embedding: []float32{1, 0}},
			}
			Expect(driver.Add(context.Background(), docs)).To(MatchError(vector.ErrDimensions))
		})

		It("should update an existing document", func() {
			docs := []vector.Document{
				{ID: "doc-1", Text: "before", Embedding: []float32{1, 0, 0, 0}},
			}
			Expect(driver.Add(context.Background(), docs)).To(Succeed())

			updated := []vector.Document{
				{ID: "doc-1", Text: "after", Embedding: []float32{0, 1, 0, 0}},
			}
			Expect(driver.Add(context.Background(), updated)).To(Succeed())

			retrieved, err := driver.Get(context.Background(), []string{"doc-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved).To(HaveLen(1))
			Expect(retrieved[0].Text).To(Equal("after"))
			Expect(retrieved[0].Embedding[1]).To(BeNumerically("~", 1, 0.001))
		})
	})

	Describe("Query", func() {
		var driver *sqlitevec.Driver

		BeforeEach(func() {
			driver = newDriver()

			// Distinct directions: cosine distance ignores magnitude.
			docs := []vector.Document{
				{ID: "doc-1", Text: "one", Embedding: []float32{1, 0, 0, 0}},
				{ID: "doc-2", Text: "two", Embedding: []float32{0.9, 0.1, 0, 0}},
				{ID: "doc-3", Text: "three", Embedding: []float32{0, 1, 0, 0}},
				{ID: "doc-4", Text: "four", Embedding: []float32{0, 0, 1, 0}},
			}
			Expect(driver.Add(context.Background(), docs)).To(Succeed())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should return the closest documents first", func() {
			results, err := driver.Query(context.Background(), []float32{1, 0, 0, 0}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal("doc-1"))
			Expect(results[1].ID).To(Equal("doc-2"))
		})

		It("should score an exact match near 1", func() {
			results, err := driver.Query(context.Background(), []float32{0, 1, 0, 0}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Score).To(BeNumerically("~", 1, 0.001))
		})

		It("should return scores in descending order", func() {
			results, err := driver.Query(context.Background(), []float32{1, 0, 0, 0}, 4)
			Expect(err).NotTo(HaveOccurred())
			for i := 1; i < len(results); i++ {
				Expect(results[i-1].Score).To(BeNumerically(">=", results[i].Score))
			}
		})

		It("should default topK to 10 when zero or negative", func() {
			results, err := driver.Query(context.Background(), []float32{1, 0, 0, 0}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(4))
		})

		It("should reject query vectors of the wrong width", func() {
			_, err := driver.Query(context.Background(), []float32{1, 0}, 1)
			Expect(err).To(MatchError(vector.ErrDimensions))
		})
	})

	Describe("Get", func() {
		var driver *sqlitevec.Driver

		BeforeEach(func() {
			driver = newDriver()

			docs := []vector.Document{
				{ID: "doc-1", Text: "one", Embedding: []float32{0.1, 0.2, 0.3, 0.4}},
				{ID: "doc-2", Text: "two", Embedding: []float32{0.5, 0.6, 0.7, 0.8}},
			}
			Expect(driver.Add(context.Background(), docs)).To(Succeed())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should return nil for empty IDs", func() {
			docs, err := driver.Get(context.Background(), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(BeNil())
		})

		It("should return embeddings with retrieved documents", func() {
			docs, err := driver.Get(context.Background(), []string{"doc-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].Embedding).To(HaveLen(4))
			Expect(docs[0].Embedding[0]).To(BeNumerically("~", 0.1, 0.001))
		})

		It("should skip non-existent IDs", func() {
			docs, err := driver.Get(context.Background(), []string{"doc-1", "nonexistent"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].ID).To(Equal("doc-1"))
		})
	})

	Describe("Delete", func() {
		var driver *sqlitevec.Driver

		BeforeEach(func() {
			driver = newDriver()

			docs := []vector.Document{
				{ID: "doc-1", Text: "one", Embedding: []float32{1, 0, 0, 0}},
				{ID: "doc-2", Text: "two", Embedding: []float32{0, 1, 0, 0}},
				{ID: "doc-3", Text: "three", Embedding: []float32{0, 0, 1, 0}},
			}
			Expect(driver.Add(context.Background(), docs)).To(Succeed())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should do nothing when given empty IDs", func() {
			Expect(driver.Delete(context.Background(), nil)).To(Succeed())
		})

		It("should delete documents and leave the rest intact", func() {
			Expect(driver.Delete(context.Background(), []string{"doc-1", "doc-2"})).To(Succeed())

			docs, err := driver.Get(context.Background(), []string{"doc-1", "doc-2", "doc-3"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].ID).To(Equal("doc-3"))
		})

		It("should not error when deleting non-existent IDs", func() {
			Expect(driver.Delete(context.Background(), []string{"nonexistent"})).To(Succeed())
		})

		It("should remove documents from query results after deletion", func() {
			Expect(driver.Delete(context.Background(), []string{"doc-3"})).To(Succeed())

			results, err := driver.Query(context.Background(), []float32{0, 0, 1, 0}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			for _, result := range results {
				Expect(result.ID).NotTo(Equal("doc-3"))
			}
		})
	})
})
