package chatcmder

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/papercomputeco/codeer/pkg/cliui"
)

// replyRenderer is the sse.Handler for one reply. Plain mode writes each
// fragment as it arrives; markdown mode buffers the reply and renders it
// once the stream is done.
type replyRenderer struct {
	out      io.Writer
	markdown bool
	logger   *slog.Logger

	text       strings.Builder
	errMessage string
	done       bool
}

func newReplyRenderer(out io.Writer, markdown bool, logger *slog.Logger) *replyRenderer {
	return &replyRenderer{out: out, markdown: markdown, logger: logger}
}

func (r *replyRenderer) OnMessage(text string) error {
	r.text.WriteString(text)
	if r.markdown {
		return nil
	}

	_, err := io.WriteString(r.out, text)
	return err
}

func (r *replyRenderer) OnError(message string) {
	r.errMessage = message
}

func (r *replyRenderer) OnDone() {
	r.done = true

	if r.markdown && r.text.Len() > 0 {
		rendered, err := cliui.RenderMarkdown(r.text.String())
		if err != nil {
			r.logger.Debug("rendering markdown failed, printing raw reply", "error", err)
		}
		fmt.Fprint(r.out, "\n"+rendered)
		return
	}

	fmt.Fprint(r.out, "\n\n")
}

// started reports whether the stream reached the handler.
func (r *replyRenderer) started() bool {
	return r.done || r.text.Len() > 0 || r.errMessage != ""
}

// Text returns everything received so far.
func (r *replyRenderer) Text() string {
	return r.text.String()
}
