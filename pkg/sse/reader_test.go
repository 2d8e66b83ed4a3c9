package sse

import (
	"bytes"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// failingReader returns its payload, then err.
type failingReader struct {
	payload []byte
	err     error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if len(f.payload) > 0 {
		n := copy(p, f.payload)
		f.payload = f.payload[n:]
		return n, nil
	}
	return 0, f.err
}

var _ = Describe("Reader", func() {
	var dst *bytes.Buffer

	BeforeEach(func() {
		dst = &bytes.Buffer{}
	})

	Describe("Next", func() {
		Context("with standard SSE frames", func() {
			It("parses a single frame", func() {
				r := NewReader(strings.NewReader("data: hello world\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Data).To(Equal([]string{"hello world"}))
				Expect(f.Event).To(BeEmpty())

				f, err = r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f).To(BeNil())
			})

			It("parses multiple frames", func() {
				r := NewReader(strings.NewReader("data: first\n\ndata: second\n\n"))

				f1, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f1.Payload()).To(Equal("first"))

				f2, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f2.Payload()).To(Equal("second"))

				f3, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f3).To(BeNil())
			})

			It("parses and trims the event name", func() {
				r := NewReader(strings.NewReader("event:   error  \ndata: {\"message\":\"x\"}\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Event).To(Equal("error"))
				Expect(f.Payload()).To(Equal(`{"message":"x"}`))
			})

			It("keeps only the last event name before a boundary", func() {
				r := NewReader(strings.NewReader("event: first\nevent: second\ndata: x\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Event).To(Equal("second"))
			})

			It("yields a frame carrying only an event name", func() {
				r := NewReader(strings.NewReader("event: ping\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Event).To(Equal("ping"))
				Expect(f.Data).To(BeEmpty())
			})

			It("joins multiple data lines with newline", func() {
				r := NewReader(strings.NewReader("data: line one\ndata: line two\ndata: line three\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Data).To(HaveLen(3))
				Expect(f.Payload()).To(Equal("line one\nline two\nline three"))
			})

			It("appends bare continuation lines once data has started", func() {
				r := NewReader(strings.NewReader("data: first\nsecond\n  third\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Data).To(Equal([]string{"first", "second", "  third"}))
			})

			It("ignores bare lines before any data", func() {
				r := NewReader(strings.NewReader("retry: 3000\nfoo: bar\ndata: hello\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Data).To(Equal([]string{"hello"}))
			})
		})

		Context("with Responses-style SSE", func() {
			It("parses output text delta frames", func() {
				input := "event: response.output_text.delta\n" +
					"data: {\"type\":\"response.output_text.delta\",\"delta\":\"Hel\"}\n\n" +
					"event: response.output_text.delta\n" +
					"data: {\"type\":\"response.output_text.delta\",\"delta\":\"lo\"}\n\n"
				r := NewReader(strings.NewReader(input))

				f1, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f1.Event).To(Equal("response.output_text.delta"))
				Expect(f1.Payload()).To(ContainSubstring(`"delta":"Hel"`))

				f2, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f2.Payload()).To(ContainSubstring(`"delta":"lo"`))
			})
		})

		Context("with SSE comments", func() {
			It("ignores comment lines in parsed frames", func() {
				r := NewReader(strings.NewReader(": this is a comment\ndata: hello\n: another\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Data).To(Equal([]string{"hello"}))
			})

			It("never yields a frame for comment-only input", func() {
				r := NewReader(strings.NewReader(": keep-alive\n\n: keep-alive\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f).To(BeNil())
			})

			It("does not treat comments as continuation lines", func() {
				r := NewReader(strings.NewReader("data: a\n:comment\ndata: b\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Payload()).To(Equal("a\nb"))
			})
		})

		Context("with data field variations", func() {
			It("handles data field with no space after colon", func() {
				r := NewReader(strings.NewReader("data:no-space\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Data).To(Equal([]string{"no-space"}))
			})

			It("strips at most one space after the colon", func() {
				r := NewReader(strings.NewReader("data:   indented\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Data).To(Equal([]string{"  indented"}))
			})

			It("keeps an empty data line in the frame", func() {
				r := NewReader(strings.NewReader("data:\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Data).To(Equal([]string{""}))
				Expect(f.Payload()).To(BeEmpty())
			})

			It("replaces invalid UTF-8 sequences", func() {
				r := NewReader(strings.NewReader("data: caf\xe9\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Data).To(Equal([]string{"caf\uFFFD"}))
			})

			It("strips carriage returns from CRLF streams", func() {
				r := NewReader(strings.NewReader("data: hello\r\n\r\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Data).To(Equal([]string{"hello"}))
			})
		})

		Context("with the [DONE] sentinel", func() {
			It("returns ErrDone for a bare sentinel data line", func() {
				r := NewReader(strings.NewReader("data: first\n\ndata: [DONE]\n\ndata: never\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Payload()).To(Equal("first"))

				f, err = r.Next()
				Expect(err).To(MatchError(ErrDone))
				Expect(f).To(BeNil())
			})

			It("keeps returning ErrDone after the sentinel", func() {
				r := NewReader(strings.NewReader("data: [DONE]\ndata: never\n\n"))

				_, err := r.Next()
				Expect(err).To(MatchError(ErrDone))

				_, err = r.Next()
				Expect(err).To(MatchError(ErrDone))
			})

			It("recognises the sentinel without a space or with padding", func() {
				_, err := NewReader(strings.NewReader("data:[DONE]\n")).Next()
				Expect(err).To(MatchError(ErrDone))

				_, err = NewReader(strings.NewReader("data:  [DONE]  \n")).Next()
				Expect(err).To(MatchError(ErrDone))
			})

			It("discards a partially accumulated frame", func() {
				r := NewReader(strings.NewReader("data: partial\ndata: [DONE]\n"))

				f, err := r.Next()
				Expect(err).To(MatchError(ErrDone))
				Expect(f).To(BeNil())
			})

			It("stops reading further lines", func() {
				input := "data: [DONE]\n\ndata: after\n\n"
				r := NewTeeReader(strings.NewReader(input), dst)

				_, err := r.Next()
				Expect(err).To(MatchError(ErrDone))
				Expect(dst.String()).To(Equal("data: [DONE]\n"))
			})
		})

		Context("verbatim line forwarding", func() {
			It("forwards all lines including blank delimiters to dst", func() {
				input := "data: first\n\ndata: second\n\n"
				r := NewTeeReader(strings.NewReader(input), dst)

				_, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				_, err = r.Next()
				Expect(err).NotTo(HaveOccurred())

				Expect(dst.String()).To(Equal(input))
			})

			It("preserves comment lines in dst output", func() {
				input := ": comment\ndata: hello\n\n"
				r := NewTeeReader(strings.NewReader(input), dst)

				_, err := r.Next()
				Expect(err).NotTo(HaveOccurred())

				Expect(dst.String()).To(Equal(input))
			})
		})

		Context("edge cases", func() {
			It("returns nil on empty input", func() {
				f, err := NewReader(strings.NewReader("")).Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f).To(BeNil())
			})

			It("returns nil on input with only blank lines", func() {
				f, err := NewReader(strings.NewReader("\n\n\n")).Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f).To(BeNil())
			})

			It("flushes a frame when the stream ends without a trailing blank line", func() {
				r := NewReader(strings.NewReader("data: unterminated"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Payload()).To(Equal("unterminated"))

				f, err = r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f).To(BeNil())
			})

			It("skips leading blank lines before the first frame", func() {
				f, err := NewReader(strings.NewReader("\n\ndata: hello\n\n")).Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Payload()).To(Equal("hello"))
			})

			It("surfaces source read errors", func() {
				src := &failingReader{payload: []byte("data: partial\n"), err: errors.New("connection reset")}
				r := NewReader(src)

				f, err := r.Next()
				Expect(err).To(MatchError("connection reset"))
				Expect(f).To(BeNil())
			})
		})
	})
})
