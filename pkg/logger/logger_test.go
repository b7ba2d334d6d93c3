package logger_test

import (
	"bytes"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/angler/pkg/logger"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("Logger", func() {
	Describe("NewLoggerWithWriters", func() {
		It("writes info logs to the given writer", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(false, &buf)
			l.Info("hello")
			l.Sync()

			Expect(buf.String()).To(ContainSubstring("hello"))
		})

		It("respects debug level", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(true, &buf)
			l.Debug("debug msg")
			l.Sync()

			Expect(buf.String()).To(ContainSubstring("debug msg"))
		})

		It("filters debug when not enabled", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(false, &buf)
			l.Debug("hidden")
			l.Sync()

			Expect(buf.String()).To(BeEmpty())
		})

		It("supports multiple writers", func() {
			var buf1, buf2 bytes.Buffer
			l := logger.NewLoggerWithWriters(false, &buf1, &buf2)
			l.Info("multi")
			l.Sync()

			Expect(buf1.String()).To(ContainSubstring("multi"))
			Expect(buf2.String()).To(ContainSubstring("multi"))
		})
	})

	Describe("Nop", func() {
		It("does not panic on any method", func() {
			l := logger.Nop()
			Expect(func() {
				l.Debug("msg")
				l.Info("msg")
				l.Warn("msg")
				l.Error("msg")
			}).NotTo(Panic())
		})
	})
})
