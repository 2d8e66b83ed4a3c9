package codeer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/codeer/pkg/codeer"
	testutils "github.com/papercomputeco/codeer/pkg/utils/test"
)

// capturedRequest is what the fake API saw for one request.
type capturedRequest struct {
	Method  string
	Path    string
	Header  http.Header
	Payload map[string]any
}

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		handler  http.HandlerFunc
		captured []capturedRequest
		client   *codeer.Client
		ctx      context.Context
	)

	BeforeEach(func() {
		captured = nil
		ctx = context.Background()
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := capturedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone()}
			body, _ := io.ReadAll(r.Body)
			if len(body) > 0 {
				Expect(json.Unmarshal(body, &c.Payload)).To(Succeed())
			}
			captured = append(captured, c)
			handler(w, r)
		}))
		DeferCleanup(server.Close)

		client = codeer.NewClient(server.URL+"/", "ck-test")
	})

	Describe("NewClient", func() {
		It("trims the trailing slash of the API root", func() {
			Expect(client.Root()).To(Equal(server.URL))
		})
	})

	Describe("CreateChat", func() {
		It("posts the chat name and unwraps the data envelope", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"data":{"id":42,"name":"hello"}}`)
			}

			chat, err := client.CreateChat(ctx, "hello")
			Expect(err).NotTo(HaveOccurred())
			Expect(chat.ID).To(Equal(int64(42)))
			Expect(chat.Name).To(Equal("hello"))

			Expect(captured).To(HaveLen(1))
			Expect(captured[0].Method).To(Equal(http.MethodPost))
			Expect(captured[0].Path).To(Equal("/api/v1/chats"))
			Expect(captured[0].Payload).To(HaveKeyWithValue("name", "hello"))
			Expect(captured[0].Header.Get("x-api-key")).To(Equal("ck-test"))
			Expect(captured[0].Header.Get("Content-Type")).To(Equal("application/json"))
		})

		It("attaches a request id", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"data":{"id":1}}`)
			}

			_, err := client.CreateChat(ctx, "x")
			Expect(err).NotTo(HaveOccurred())

			_, err = uuid.Parse(captured[0].Header.Get("X-Request-Id"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("cuts long names to 256 runes", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"data":{"id":1}}`)
			}

			_, err := client.CreateChat(ctx, strings.Repeat("é", 300))
			Expect(err).NotTo(HaveOccurred())

			name, ok := captured[0].Payload["name"].(string)
			Expect(ok).To(BeTrue())
			Expect(utf8.RuneCountInString(name)).To(Equal(codeer.MaxChatNameRunes))
		})

		It("returns an APIError with the server message", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"error":"Invalid API key"}`)
			}

			_, err := client.CreateChat(ctx, "x")
			Expect(err).To(MatchError(ContainSubstring("API error: Invalid API key (401)")))

			apiErr, ok := codeer.IsAPIError(err)
			Expect(ok).To(BeTrue())
			Expect(apiErr.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("falls back to a generic message for non-JSON errors", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = io.WriteString(w, "<html>bad gateway</html>")
			}

			_, err := client.CreateChat(ctx, "x")
			apiErr, ok := codeer.IsAPIError(err)
			Expect(ok).To(BeTrue())
			Expect(apiErr.Message).To(Equal("Failed to create chat"))
			Expect(apiErr.StatusCode).To(Equal(http.StatusBadGateway))
		})
	})

	Describe("ListAgents", func() {
		It("returns the agents of the workspace", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"data":[{"id":1,"name":"Support"},{"id":2,"name":"Sales","description":"Pre-sales"}]}`)
			}

			agents, err := client.ListAgents(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(agents).To(Equal([]codeer.Agent{
				{ID: 1, Name: "Support"},
				{ID: 2, Name: "Sales", Description: "Pre-sales"},
			}))
			Expect(captured[0].Method).To(Equal(http.MethodGet))
			Expect(captured[0].Path).To(Equal("/api/v1/agents"))
			Expect(captured[0].Payload).To(BeNil())
		})

		It("uses the status line when the body carries no message", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}

			_, err := client.ListAgents(ctx)
			Expect(err).To(MatchError(ContainSubstring("HTTP 500 Internal Server Error")))
		})
	})

	Describe("SendQuestion", func() {
		var rec *testutils.RecordingHandler

		BeforeEach(func() {
			rec = testutils.NewRecordingHandler()
		})

		streamReply := func(body string) {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				_, _ = io.WriteString(w, body)
			}
		}

		It("posts the question with streaming enabled", func() {
			streamReply(testutils.DoneFrame())
			agentID := int64(9)

			err := client.SendQuestion(ctx, 42, codeer.QuestionRequest{Message: "hi", AgentID: &agentID}, rec)
			Expect(err).NotTo(HaveOccurred())

			req := captured[0]
			Expect(req.Path).To(Equal("/api/v1/chats/42/messages"))
			Expect(req.Header.Get("Content-Type")).To(Equal("application/json; charset=utf-8"))
			Expect(req.Header.Get("Accept")).To(Equal("text/event-stream"))
			Expect(req.Header.Get("x-api-key")).To(Equal("ck-test"))
			Expect(req.Payload).To(HaveKeyWithValue("message", "hi"))
			Expect(req.Payload).To(HaveKeyWithValue("stream", true))
			Expect(req.Payload).To(HaveKeyWithValue("agent_id", BeNumerically("==", 9)))
		})

		It("omits the agent id when none is selected", func() {
			streamReply(testutils.DoneFrame())

			Expect(client.SendQuestion(ctx, 1, codeer.QuestionRequest{Message: "hi"}, rec)).To(Succeed())
			Expect(captured[0].Payload).NotTo(HaveKey("agent_id"))
		})

		It("streams deltas to the handler", func() {
			streamReply(testutils.Stream(
				testutils.DeltaFrame("Hel"),
				testutils.DeltaFrame("lo"),
				testutils.CompletedFrame("Hello"),
				testutils.DoneFrame(),
			))

			Expect(client.SendQuestion(ctx, 1, codeer.QuestionRequest{Message: "hi"}, rec)).To(Succeed())
			Expect(rec.Messages).To(Equal([]string{"Hel", "lo"}))
			Expect(rec.Dones).To(Equal(1))
			Expect(rec.Errors).To(BeEmpty())
		})

		It("reports stream errors through the handler", func() {
			streamReply(testutils.Stream(
				testutils.DeltaFrame("partial"),
				testutils.ErrorFrame("model overloaded"),
			))

			Expect(client.SendQuestion(ctx, 1, codeer.QuestionRequest{Message: "hi"}, rec)).To(Succeed())
			Expect(rec.Calls).To(Equal([]string{"message", "error", "done"}))
			Expect(rec.Errors).To(Equal([]string{"model overloaded"}))
		})

		It("returns an APIError without invoking the handler", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"error":"Chat not found"}`)
			}

			err := client.SendQuestion(ctx, 404, codeer.QuestionRequest{Message: "hi"}, rec)
			Expect(err).To(MatchError(ContainSubstring("Chat not found")))
			Expect(rec.Calls).To(BeEmpty())
		})

		It("returns transport errors without invoking the handler", func() {
			server.Close()

			err := client.SendQuestion(ctx, 1, codeer.QuestionRequest{Message: "hi"}, rec)
			Expect(err).To(HaveOccurred())
			Expect(rec.Calls).To(BeEmpty())
		})

		It("tees the raw stream and logs with the request id", func() {
			var raw, logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
			client = codeer.NewClient(server.URL, "ck-test", codeer.WithStreamTee(&raw), codeer.WithLogger(logger))

			streamReply(testutils.Stream(testutils.DeltaFrame("x"), testutils.DoneFrame()))

			Expect(client.SendQuestion(ctx, 1, codeer.QuestionRequest{Message: "hi"}, rec)).To(Succeed())
			Expect(raw.String()).To(ContainSubstring(`"delta":"x"`))
			Expect(raw.String()).To(ContainSubstring("data: [DONE]"))
			Expect(logs.String()).To(ContainSubstring("request_id=" + captured[0].Header.Get("X-Request-Id")))
		})
	})
})
