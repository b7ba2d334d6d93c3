package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Truncate", func() {
	It("returns the string unchanged when within the limit", func() {
		Expect(Truncate("brief", 10)).To(Equal("brief"))
	})

	It("returns the string unchanged when exactly at the limit", func() {
		Expect(Truncate("12345", 5)).To(Equal("12345"))
	})

	It("appends an ellipsis when over the limit", func() {
		Expect(Truncate("a man is playing a guitar", 10)).To(Equal("a man is p..."))
	})

	It("handles a zero limit", func() {
		Expect(Truncate("text", 0)).To(Equal("..."))
	})
})
