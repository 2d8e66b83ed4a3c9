package api

import (
	"context"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/codeer/pkg/eventstream"
	"github.com/papercomputeco/codeer/pkg/eventstream/nop"
	"github.com/papercomputeco/codeer/pkg/storage"
	"github.com/papercomputeco/codeer/pkg/storage/inmemory"
)

// Server is the mock Codeer API server.
type Server struct {
	config    Config
	store     storage.Driver
	publisher eventstream.Publisher
	logger    *slog.Logger
	app       *fiber.App
	metrics   *metrics
}

// NewServer creates a new mock API server.
func NewServer(config Config, logger *slog.Logger) *Server {
	if len(config.Agents) == 0 {
		config.Agents = DefaultAgents
	}
	if config.Responder == nil {
		config.Responder = EchoResponder
	}
	if config.Store == nil {
		config.Store = inmemory.NewDriver()
	}
	if config.Publisher == nil {
		config.Publisher = nop.NewPublisher(logger)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		store:     config.Store,
		publisher: config.Publisher,
		logger:    logger,
		app:       app,
		metrics:   newMetrics(),
	}

	app.Get("/ping", s.handlePing)
	app.Get("/metrics", s.metrics.handler())

	v1 := app.Group("/api/v1", s.requireAPIKey)
	v1.Get("/agents", s.handleListAgents)
	v1.Post("/chats", s.handleCreateChat)
	v1.Post("/chats/:id/messages", s.handleSendMessage)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting mock API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the API server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting mock API server", "listen", listener.Addr().String())
	return s.app.Listener(listener)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Questions returns the questions received by the chat with the given id,
// or nil when the chat does not exist.
func (s *Server) Questions(historyID int64) []string {
	qs, err := s.store.Questions(context.Background(), historyID)
	if err != nil {
		return nil
	}
	return qs
}
