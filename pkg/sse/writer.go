package sse

import (
	"fmt"
	"io"
	"strings"
)

// WriteFrame encodes f in wire format: an optional event line, one data line
// per line of data and a terminating blank line.
func WriteFrame(w io.Writer, f *Frame) error {
	var b strings.Builder
	if f.Event != "" {
		b.WriteString("event: ")
		b.WriteString(f.Event)
		b.WriteByte('\n')
	}
	for _, d := range f.Data {
		for line := range strings.SplitSeq(d, "\n") {
			b.WriteString("data: ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// WriteDone writes the terminating sentinel frame.
func WriteDone(w io.Writer) error {
	return WriteFrame(w, &Frame{Data: []string{Sentinel}})
}
