// Package chatcmder provides the chat command for interactive chat with a
// Codeer agent.
package chatcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/codeer/pkg/cliui"
	"github.com/papercomputeco/codeer/pkg/codeer"
	"github.com/papercomputeco/codeer/pkg/config"
	"github.com/papercomputeco/codeer/pkg/credentials"
	"github.com/papercomputeco/codeer/pkg/dotdir"
	"github.com/papercomputeco/codeer/pkg/logger"
)

type chatCommander struct {
	apiRoot    string
	apiKey     string
	agentID    string
	timeout    string
	markdown   bool
	resume     bool
	noColor    bool
	dumpStream string
	logFile    string
	configDir  string
	debug      bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	logger *slog.Logger
	client *codeer.Client
	ddm    *dotdir.Manager

	// historyID is the chat questions are posted to. Zero means the next
	// message creates a chat.
	historyID int64
	chatName  string
	agent     *int64
}

const chatLongDesc string = `Start an interactive chat session with a Codeer agent.

Replies are streamed as they are generated. The first message of a session
creates a new chat named after that message.

Commands:
  /new          Start a new chat session
  /agents       List the agents of the workspace
  /agent <id>   Address following questions to an agent (no id clears it)
  /quit, /exit  Leave the chat (Ctrl+D works too)

The API key is read from --api-key, then CODEER_API_KEY, then the key stored
for the API root with "codeer auth".

Examples:
  codeer chat
  codeer chat --api-root https://codeer.example.com --agent 3
  codeer chat --resume --markdown`

const chatShortDesc string = "Interactive chat with a Codeer agent"

var chatFlags = []string{
	config.FlagAPIRoot,
	config.FlagAPITimeout,
	config.FlagAgent,
	config.FlagMarkdown,
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, chatFlags)
			cmder.apiRoot = v.GetString("api.root")
			cmder.timeout = v.GetString("api.timeout")
			cmder.agentID = v.GetString("chat.agent_id")
			cmder.markdown = v.GetBool("chat.markdown")

			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIRoot, &cmder.apiRoot)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagAgent, &cmder.agentID)
	config.AddBoolFlag(cmd, config.Flags, config.FlagMarkdown, &cmder.markdown)
	cmd.Flags().StringVar(&cmder.apiKey, "api-key", "", "Workspace API key (overrides "+credentials.EnvVar+" and stored credentials)")
	cmd.Flags().BoolVar(&cmder.resume, "resume", false, "Resume the last chat session")
	cmd.Flags().BoolVar(&cmder.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&cmder.dumpStream, "dump-stream", "", "Append the raw SSE stream of every reply to a file")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to a file")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	if c.noColor || os.Getenv("NO_COLOR") != "" {
		cliui.DisableColor()
	}

	closeLogger, err := c.setupLogger()
	if err != nil {
		return err
	}
	defer closeLogger()

	if err := c.setupAgent(); err != nil {
		return err
	}

	opts, closeOpts, err := c.clientOptions()
	if err != nil {
		return err
	}
	defer closeOpts()

	creds, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	apiKey, err := creds.Resolve(c.apiRoot, c.apiKey)
	if err != nil {
		return fmt.Errorf("resolving API key: %w", err)
	}
	if apiKey == "" {
		c.logger.Warn("no API key configured", "api_root", c.apiRoot)
	}

	c.client = codeer.NewClient(c.apiRoot, apiKey, opts...)
	c.ddm = dotdir.NewManager()

	if c.resume {
		if err := c.resumeSession(); err != nil {
			return err
		}
	}

	return c.repl(ctx)
}

// setupLogger builds the logger and returns a func closing any log file.
func (c *chatCommander) setupLogger() (func(), error) {
	cli := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithPrefix("codeer"),
		logger.WithWriter(c.errOut),
	)
	if c.logFile == "" {
		c.logger = cli
		return func() {}, nil
	}

	file, closer, err := logger.OpenFile(c.logFile)
	if err != nil {
		return nil, err
	}

	c.logger = logger.Multi(cli, file)
	return func() { _ = closer.Close() }, nil
}

func (c *chatCommander) setupAgent() error {
	if c.agentID == "" {
		return nil
	}

	id, err := strconv.ParseInt(c.agentID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid agent id %q: %w", c.agentID, err)
	}
	c.agent = &id
	return nil
}

// clientOptions returns the client options and a func closing the stream
// dump file, if any.
func (c *chatCommander) clientOptions() ([]codeer.ClientOption, func(), error) {
	timeout, err := config.ParseTimeout(c.timeout)
	if err != nil {
		return nil, nil, err
	}

	opts := []codeer.ClientOption{
		codeer.WithTimeout(timeout),
		codeer.WithLogger(c.logger),
	}

	if c.dumpStream == "" {
		return opts, func() {}, nil
	}

	f, err := os.OpenFile(c.dumpStream, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening stream dump: %w", err)
	}
	opts = append(opts, codeer.WithStreamTee(f))

	return opts, func() { _ = f.Close() }, nil
}
