package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/codeer/pkg/logger"
)

// failingWriter rejects every write.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func decodeJSONLine(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	Expect(json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("creates a default text logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Info("hello", "key", "value")

			Expect(buf.String()).To(ContainSubstring("hello"))
			Expect(buf.String()).To(ContainSubstring("key=value"))
		})

		It("filters debug unless enabled", func() {
			var buf bytes.Buffer
			logger.New(logger.WithWriter(&buf)).Debug("hidden")
			Expect(buf.String()).To(BeEmpty())

			logger.New(logger.WithWriter(&buf), logger.WithDebug(true)).Debug("shown")
			Expect(buf.String()).To(ContainSubstring("shown"))
		})

		It("creates a JSON logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.Info("structured", "history_id", 42)

			parsed := decodeJSONLine(&buf)
			Expect(parsed["msg"]).To(Equal("structured"))
			Expect(parsed["history_id"]).To(BeNumerically("==", 42))
		})

		It("prefers JSON over pretty output", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true), logger.WithJSON(true))
			l.Info("structured")

			Expect(decodeJSONLine(&buf)["msg"]).To(Equal("structured"))
		})

		It("creates a pretty logger with a prefix", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true), logger.WithPrefix("mock-server"))
			l.Info("pretty output")

			Expect(buf.String()).To(ContainSubstring("pretty output"))
			Expect(buf.String()).To(ContainSubstring("mock-server"))
		})

		It("turns the prefix into a component attribute for structured output", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithPrefix("chat"))
			l.Info("started")

			Expect(decodeJSONLine(&buf)["component"]).To(Equal("chat"))
		})

		It("filters debug in the pretty logger when not enabled", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
			l.Debug("hidden")

			Expect(buf.String()).To(BeEmpty())
		})
	})

	Describe("Nop", func() {
		It("discards all output", func() {
			l := logger.Nop()
			Expect(func() {
				l.With("key", "value").WithGroup("group").Error("msg")
			}).NotTo(Panic())
			Expect(l.Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
		})
	})

	Describe("Multi", func() {
		It("dispatches to all loggers", func() {
			var buf1, buf2 bytes.Buffer
			multi := logger.Multi(logger.New(logger.WithWriter(&buf1)), logger.New(logger.WithWriter(&buf2)))

			multi.Info("broadcast", "key", "val")

			Expect(buf1.String()).To(ContainSubstring("broadcast"))
			Expect(buf2.String()).To(ContainSubstring("broadcast"))
		})

		It("respects each logger's level", func() {
			var terse, verbose bytes.Buffer
			multi := logger.Multi(
				logger.New(logger.WithWriter(&terse)),
				logger.New(logger.WithWriter(&verbose), logger.WithDebug(true)),
			)

			multi.Debug("details")

			Expect(terse.String()).To(BeEmpty())
			Expect(verbose.String()).To(ContainSubstring("details"))
		})

		It("keeps writing to the other sinks when one fails", func() {
			var buf bytes.Buffer
			multi := logger.Multi(
				logger.New(logger.WithWriter(failingWriter{}), logger.WithJSON(true)),
				logger.New(logger.WithWriter(&buf)),
			)

			multi.Info("still here")

			Expect(buf.String()).To(ContainSubstring("still here"))
		})

		It("skips nil loggers", func() {
			var buf bytes.Buffer
			multi := logger.Multi(nil, logger.New(logger.WithWriter(&buf)))
			multi.Info("ok")
			Expect(buf.String()).To(ContainSubstring("ok"))
		})

		It("supports With and WithGroup", func() {
			var buf bytes.Buffer
			multi := logger.Multi(logger.New(logger.WithWriter(&buf), logger.WithJSON(true)))

			multi.With("component", "test").WithGroup("request").Info("processed", "method", "POST")

			parsed := decodeJSONLine(&buf)
			Expect(parsed["component"]).To(Equal("test"))
			group, ok := parsed["request"].(map[string]any)
			Expect(ok).To(BeTrue(), "expected 'request' group in JSON output")
			Expect(group["method"]).To(Equal("POST"))
		})
	})

	Describe("OpenFile", func() {
		It("appends JSON debug records to the file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "codeer.log")

			l, closer, err := logger.OpenFile(path)
			Expect(err).NotTo(HaveOccurred())
			l.Debug("first")
			Expect(closer.Close()).To(Succeed())

			l, closer, err = logger.OpenFile(path)
			Expect(err).NotTo(HaveOccurred())
			l.Debug("second")
			Expect(closer.Close()).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			Expect(lines).To(HaveLen(2))
			Expect(lines[0]).To(ContainSubstring(`"msg":"first"`))
		})

		It("fails for a missing directory", func() {
			_, _, err := logger.OpenFile(filepath.Join(GinkgoT().TempDir(), "missing", "codeer.log"))
			Expect(err).To(MatchError(ContainSubstring("opening log file")))
		})
	})
})
