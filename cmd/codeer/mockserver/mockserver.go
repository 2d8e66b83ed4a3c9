// Package mockservercmder provides the mock-server command, a local stand-in
// for the Codeer chat API.
package mockservercmder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/codeer/api"
	"github.com/papercomputeco/codeer/pkg/config"
	"github.com/papercomputeco/codeer/pkg/eventstream"
	"github.com/papercomputeco/codeer/pkg/eventstream/kafka"
	"github.com/papercomputeco/codeer/pkg/eventstream/nop"
	"github.com/papercomputeco/codeer/pkg/logger"
	"github.com/papercomputeco/codeer/pkg/storage"
	"github.com/papercomputeco/codeer/pkg/storage/inmemory"
	"github.com/papercomputeco/codeer/pkg/storage/postgres"
	"github.com/papercomputeco/codeer/pkg/storage/sqlite"
)

type mockServerCommander struct {
	listen      string
	apiKey      string
	delay       time.Duration
	sqlitePath  string
	postgresDSN string
	kafkaBroker []string
	kafkaTopic  string
	debug       bool
	logger      *slog.Logger
}

const mockServerLongDesc string = `Run a local stand-in for the Codeer chat API.

The server stores chats, lists a fixed set of agents and streams an echo of
every question as server-sent events. Point "codeer chat" at it to try
the client without a backend:

  codeer mock-server --api-key ck-local
  codeer chat --api-root http://localhost:8000 --api-key ck-local

Chats are kept in memory unless --sqlite or --postgres is given. Prometheus
counters are served at /metrics. With --kafka-brokers every streamed reply is
also published as a JSON event to --kafka-topic.`

const mockServerShortDesc string = "Run a local mock of the Codeer API"

var mockServerFlags = []string{
	config.FlagMockListen,
}

func NewMockServerCmd() *cobra.Command {
	cmder := &mockServerCommander{}

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: mockServerShortDesc,
		Long:  mockServerLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, mockServerFlags)
			cmder.listen = v.GetString("mock.listen")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagMockListen, &cmder.listen)
	cmd.Flags().StringVar(&cmder.apiKey, "api-key", "", "Require this x-api-key on every request")
	cmd.Flags().DurationVar(&cmder.delay, "delay", 50*time.Millisecond, "Pause between streamed reply chunks")
	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to SQLite database (default: in-memory)")
	cmd.Flags().StringVar(&cmder.postgresDSN, "postgres", "", "PostgreSQL connection string")
	cmd.MarkFlagsMutuallyExclusive("sqlite", "postgres")
	cmd.Flags().StringSliceVar(&cmder.kafkaBroker, "kafka-brokers", nil, "Kafka brokers to publish reply events to")
	cmd.Flags().StringVar(&cmder.kafkaTopic, "kafka-topic", kafka.DefaultTopic, "Kafka topic for reply events")

	return cmd
}

func (c *mockServerCommander) run(ctx context.Context) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithPrefix("mock-server"))

	driver, err := c.newStorageDriver(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	server := api.NewServer(api.Config{
		ListenAddr: c.listen,
		APIKey:     c.apiKey,
		ChunkDelay: c.delay,
		Store:      driver,
		Publisher:  publisher,
	}, c.logger)

	go func() {
		<-ctx.Done()
		if err := server.Shutdown(); err != nil {
			c.logger.Error("shutting down mock API server", "error", err)
		}
	}()

	return server.Run()
}

func (c *mockServerCommander) newStorageDriver(ctx context.Context) (storage.Driver, error) {
	switch {
	case c.postgresDSN != "":
		driver, err := postgres.NewDriver(ctx, c.postgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL storer: %w", err)
		}
		c.logger.Info("using PostgreSQL storage")
		return driver, nil

	case c.sqlitePath != "":
		driver, err := sqlite.NewDriver(c.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		c.logger.Info("using SQLite storage", "path", c.sqlitePath)
		return driver, nil
	}

	c.logger.Info("using in-memory storage")
	return inmemory.NewDriver(), nil
}

func (c *mockServerCommander) newPublisher() (eventstream.Publisher, error) {
	if len(c.kafkaBroker) == 0 {
		return nop.NewPublisher(c.logger), nil
	}

	publisher, err := kafka.NewPublisher(kafka.Config{Brokers: c.kafkaBroker, Topic: c.kafkaTopic})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}
	c.logger.Info("publishing reply events", "brokers", c.kafkaBroker, "topic", publisher.Topic())
	return publisher, nil
}
