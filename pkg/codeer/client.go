// Package codeer is a client for the Codeer chat API. Replies to questions
// are streamed as server-sent events and handed to an sse.Handler.
package codeer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/codeer/pkg/sse"
	"github.com/papercomputeco/codeer/pkg/utils"
)

const (
	// MaxChatNameRunes is the longest chat name the API accepts.
	MaxChatNameRunes = 256

	// DefaultTimeout bounds a request including its streamed reply.
	DefaultTimeout = 5 * time.Minute

	headerAPIKey    = "x-api-key"
	headerRequestID = "X-Request-Id"

	createChatFallback = "Failed to create chat"
)

// Client talks to a single Codeer API root with a workspace API key.
type Client struct {
	root       string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	tee        io.Writer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the timeout of the underlying HTTP client. Zero disables it.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger sets the logger for request diagnostics and stream warnings.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithStreamTee copies every raw SSE line of a reply to w.
func WithStreamTee(w io.Writer) ClientOption {
	return func(c *Client) {
		c.tee = w
	}
}

// NewClient creates a client for the API at root, e.g. "http://localhost:8000".
func NewClient(root, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		root:       strings.TrimRight(root, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the API root the client talks to.
func (c *Client) Root() string {
	return c.root
}

// CreateChat creates a chat named name, cut to MaxChatNameRunes.
func (c *Client) CreateChat(ctx context.Context, name string) (*Chat, error) {
	body := createChatRequest{Name: utils.TruncateRunes(name, MaxChatNameRunes)}

	var out envelope[Chat]
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/chats", body, &out, createChatFallback); err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}

	c.logger.Debug("chat created", "history_id", out.Data.ID, "name", out.Data.Name)
	return &out.Data, nil
}

// ListAgents returns the agents of the workspace the API key belongs to.
func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	var out envelope[[]Agent]
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/agents", nil, &out, ""); err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	return out.Data, nil
}

// SendQuestion posts req to the chat historyID and streams the reply into h.
//
// Errors raised before the stream starts (network failures, non-2xx
// statuses) are returned without invoking h. Once the stream starts, h
// receives exactly one OnDone, and a stream read failure is reported to
// OnError as well as returned.
func (c *Client) SendQuestion(ctx context.Context, historyID int64, req QuestionRequest, h sse.Handler) error {
	req.Stream = true

	path := "/api/v1/chats/" + strconv.FormatInt(historyID, 10) + "/messages"
	httpReq, requestID, err := c.newRequest(ctx, http.MethodPost, path, req)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	httpReq.Header.Set("Accept", "text/event-stream")

	logger := c.logger.With("request_id", requestID, "history_id", historyID)
	logger.Debug("sending question", "agent_id", req.AgentID, "message_len", len(req.Message))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending question: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp, "")
	}

	opts := []sse.Option{sse.WithLogger(logger)}
	if c.tee != nil {
		opts = append(opts, sse.WithTee(c.tee))
	}

	start := time.Now()
	err = sse.Consume(resp.Body, h, opts...)
	logger.Debug("stream finished", "duration", time.Since(start), "error", err)
	return err
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, fallback string) error {
	req, requestID, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("api request", "method", method, "path", path, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp, fallback)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// newRequest builds a request carrying the API key and a fresh request id.
// A nil body sends no payload.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, string, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.root+path, reader)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set(headerRequestID, requestID)

	return req, requestID, nil
}
