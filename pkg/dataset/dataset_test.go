package dataset_test

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/angler/pkg/dataset"
)

func TestDataset(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dataset Suite")
}

var _ = Describe("Read", func() {
	It("parses pair records with labels", func() {
		input := `{"text1": "a cat", "text2": "a feline", "label": 1}
{"text1": "a cat", "text2": "a bridge", "label": 0}`

		records, err := dataset.Read(strings.NewReader(input))
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))
		Expect(records[0].Text1).To(Equal("a cat"))
		Expect(records[0].Text2).To(Equal("a feline"))
		Expect(records[0].Label).To(Equal(1.0))
		Expect(records[1].Label).To(Equal(0.0))
	})

	It("collects unknown string fields as extras", func() {
		input := `{"text1": "q", "text2": "d", "label": 1, "condition": "retrieval"}`

		records, err := dataset.Read(strings.NewReader(input))
		Expect(err).NotTo(HaveOccurred())
		Expect(records[0].Extras).To(HaveKeyWithValue("condition", "retrieval"))
	})

	It("skips blank lines", func() {
		input := "{\"text1\": \"a\", \"text2\": \"b\", \"label\": 0.5}\n\n\n"

		records, err := dataset.Read(strings.NewReader(input))
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].Label).To(Equal(0.5))
	})

	It("fails with the line number on malformed JSON", func() {
		input := "{\"text1\": \"a\", \"text2\": \"b\", \"label\": 1}\nnot json"

		_, err := dataset.Read(strings.NewReader(input))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("line 2"))
	})

	It("fails on records missing a text field", func() {
		input := `{"text1": "only one", "label": 1}`

		_, err := dataset.Read(strings.NewReader(input))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Chunk", func() {
	It("splits records into batches preserving order", func() {
		records := []dataset.Record{
			{Text1: "a", Text2: "b"},
			{Text1: "c", Text2: "d"},
			{Text1: "e", Text2: "f"},
		}

		chunks := dataset.Chunk(records, 2)
		Expect(chunks).To(HaveLen(2))
		Expect(chunks[0]).To(HaveLen(2))
		Expect(chunks[1]).To(HaveLen(1))
		Expect(chunks[0][0].Text1).To(Equal("a"))
		Expect(chunks[1][0].Text1).To(Equal("e"))
	})

	It("returns nil for empty input or zero size", func() {
		Expect(dataset.Chunk(nil, 4)).To(BeNil())
		Expect(dataset.Chunk([]dataset.Record{{Text1: "a", Text2: "b"}}, 0)).To(BeNil())
	})
})
