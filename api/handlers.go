package api

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/codeer/pkg/codeer"
	"github.com/papercomputeco/codeer/pkg/eventstream"
	"github.com/papercomputeco/codeer/pkg/sse"
	"github.com/papercomputeco/codeer/pkg/storage"
)

// publishTimeout bounds publishing the event of one reply.
const publishTimeout = 10 * time.Second

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

type dataResponse struct {
	Data any `json:"data"`
}

type createdEvent struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type deltaEvent struct {
	Type  string `json:"type"`
	Delta string `json:"delta"`
}

type completedEvent struct {
	Type      string `json:"type"`
	FinalText string `json:"finalText"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// requireAPIKey rejects requests whose x-api-key does not match the
// configured key.
func (s *Server) requireAPIKey(c *fiber.Ctx) error {
	if s.config.APIKey != "" && c.Get("x-api-key") != s.config.APIKey {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "Invalid API key"})
	}
	return c.Next()
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListAgents returns the configured agents.
func (s *Server) handleListAgents(c *fiber.Ctx) error {
	return c.JSON(dataResponse{Data: s.config.Agents})
}

// handleCreateChat stores a new chat and returns it.
func (s *Server) handleCreateChat(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Untitled"
	}
	if utf8.RuneCountInString(name) > codeer.MaxChatNameRunes {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "name is too long"})
	}

	chat, err := s.store.CreateChat(c.UserContext(), name)
	if err != nil {
		s.logger.Error("creating chat", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Failed to create chat"})
	}
	s.metrics.chatsCreated.Inc()

	s.logger.Debug("chat created", "history_id", chat.ID, "name", name)

	return c.Status(fiber.StatusCreated).JSON(dataResponse{Data: chat})
}

// handleSendMessage records a question and streams the reply as SSE.
func (s *Server) handleSendMessage(c *fiber.Ctx) error {
	historyID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid chat id"})
	}

	var req codeer.QuestionRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "message is required"})
	}

	var agent *codeer.Agent
	if req.AgentID != nil {
		agent = s.findAgent(*req.AgentID)
		if agent == nil {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "Agent not found"})
		}
	}

	if err := s.store.AddQuestion(c.UserContext(), historyID, req.Message); err != nil {
		if storage.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "Chat not found"})
		}
		s.logger.Error("storing question", "history_id", historyID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Failed to store message"})
	}
	s.metrics.questions.Inc()

	reply, replyErr := s.config.Responder(req.Message, agent)

	s.logger.Debug("streaming reply",
		"history_id", historyID,
		"stream", req.Stream,
		"reply_len", len(reply),
	)

	c.Set(fiber.HeaderContentType, "text/event-stream; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache")

	// io.Pipe gives per-chunk flushing: fasthttp writes each chunk to the
	// socket as soon as the pipe reader returns it.
	event := eventstream.NewReplyEvent(historyID, req.Message)
	event.AgentID = req.AgentID
	event.Stream = req.Stream

	pr, pw := io.Pipe()
	go s.streamReply(pw, reply, replyErr, event)

	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// streamReply writes the reply frames to pw and publishes event once the
// stream ends. Non-streaming requests only receive the completed text.
func (s *Server) streamReply(pw *io.PipeWriter, reply string, replyErr error, event *eventstream.ReplyEvent) {
	start := time.Now()
	defer func() {
		pw.Close()
		event.DurationMs = time.Since(start).Milliseconds()
		s.publish(event)
	}()

	if err := s.writeEvent(pw, "response.created", createdEvent{Type: "response.created", ID: strconv.FormatInt(time.Now().UnixNano(), 36)}); err != nil {
		return
	}

	if replyErr != nil {
		s.metrics.streamErrors.Inc()
		event.Error = replyErr.Error()
		_ = s.writeEvent(pw, sse.TypeError, errorEvent{Type: sse.TypeError, Message: replyErr.Error()})
		return
	}

	event.Reply = reply
	if event.Stream {
		for _, chunk := range chunkReply(reply) {
			if err := s.writeEvent(pw, sse.TypeOutputTextDelta, deltaEvent{Type: sse.TypeOutputTextDelta, Delta: chunk}); err != nil {
				return
			}
			s.metrics.deltas.Inc()
			event.Deltas++
			if s.config.ChunkDelay > 0 {
				time.Sleep(s.config.ChunkDelay)
			}
		}
	}

	if err := s.writeEvent(pw, sse.TypeOutputTextCompleted, completedEvent{Type: sse.TypeOutputTextCompleted, FinalText: reply}); err != nil {
		return
	}

	if err := sse.WriteDone(pw); err != nil {
		s.logger.Debug("client went away before the sentinel", "error", err)
	}
}

// publish hands event to the configured publisher. Failures are logged and
// never reach the client.
func (s *Server) publish(event *eventstream.ReplyEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.publisher.PublishReply(ctx, event); err != nil {
		s.logger.Warn("publishing reply event", "history_id", event.HistoryID, "error", err)
	}
}

func (s *Server) writeEvent(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshaling stream event", "error", err)
		return err
	}

	if err := sse.WriteFrame(w, &sse.Frame{Event: event, Data: []string{string(data)}}); err != nil {
		s.logger.Debug("client went away", "error", err)
		return err
	}
	return nil
}

func (s *Server) findAgent(id int64) *codeer.Agent {
	for i := range s.config.Agents {
		if s.config.Agents[i].ID == id {
			return &s.config.Agents[i]
		}
	}
	return nil
}

// chunkReply splits reply into word sized deltas that concatenate back to
// reply.
func chunkReply(reply string) []string {
	if reply == "" {
		return nil
	}
	return strings.SplitAfter(reply, " ")
}
