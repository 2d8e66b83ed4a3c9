package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/codeer/pkg/cliui"
	"github.com/papercomputeco/codeer/pkg/codeer"
)

var errQuit = errors.New("quit")

// maxDescriptionWidth caps agent descriptions in /agents, in terminal cells.
const maxDescriptionWidth = 60

// troubleshooting is printed after any failed exchange with the backend.
var troubleshooting = []string{
	"API key is valid",
	"Backend server is running",
	"CORS is properly configured",
}

// repl reads input lines until /quit, /exit, end of input or ctx is done.
func (c *chatCommander) repl(ctx context.Context) error {
	c.printWelcome()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(c.out, cliui.UserPrompt.Render("you> "))

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			c.goodbye()
			return nil
		case line, ok = <-lines:
		}

		if !ok {
			c.goodbye()
			select {
			case err := <-scanErr:
				if err != nil {
					return fmt.Errorf("reading input: %w", err)
				}
			default:
			}
			return nil
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if err := c.handleCommand(ctx, input); errors.Is(err, errQuit) {
				c.goodbye()
				return nil
			}
			continue
		}

		c.send(ctx, input)
	}
}

func (c *chatCommander) printWelcome() {
	fmt.Fprintf(c.out, "\n  %s\n", cliui.HeaderStyle.Render("Codeer Chat"))
	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("API:"), cliui.NameStyle.Render(c.client.Root()))
	if c.agent != nil {
		fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Agent:"), cliui.NameStyle.Render(c.agentString()))
	}
	fmt.Fprintf(c.out, "\n  %s\n", cliui.DimStyle.Render("Commands: /new, /agents, /agent <id>, /quit"))
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. Ctrl+D to quit."))
}

func (c *chatCommander) goodbye() {
	fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render("Goodbye!"))
}

// handleCommand runs a slash command. It returns errQuit to leave the chat.
func (c *chatCommander) handleCommand(ctx context.Context, input string) error {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return errQuit

	case "/new":
		c.historyID = 0
		c.chatName = ""
		c.clearSession()
		fmt.Fprintf(c.out, "\n  %s Starting a new chat session\n\n", cliui.SuccessMark)

	case "/agents":
		c.listAgents(ctx)

	case "/agent":
		if arg == "" {
			c.agent = nil
			c.saveSession()
			fmt.Fprintf(c.out, "\n  %s Agent cleared\n\n", cliui.SuccessMark)
			return nil
		}
		if err := c.selectAgent(arg); err != nil {
			fmt.Fprintf(c.out, "\n  %s %v\n\n", cliui.FailMark, err)
			return nil
		}
		c.saveSession()
		fmt.Fprintf(c.out, "\n  %s Using agent %s\n\n", cliui.SuccessMark, cliui.NameStyle.Render(arg))

	default:
		fmt.Fprintf(c.out, "\n  %s Unknown command %s\n", cliui.FailMark, cliui.NameStyle.Render(name))
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Commands: /new, /agents, /agent <id>, /quit"))
	}

	return nil
}

func (c *chatCommander) listAgents(ctx context.Context) {
	var agents []codeer.Agent
	err := cliui.Step(c.out, "Loading agents", func() error {
		var err error
		agents, err = c.client.ListAgents(ctx)
		return err
	})
	if err != nil {
		c.printFailure(err.Error())
		return
	}

	if len(agents) == 0 {
		fmt.Fprintf(c.out, "\n  %s No agents in this workspace\n\n", cliui.DimStyle.Render("●"))
		return
	}

	fmt.Fprintln(c.out)
	for _, a := range agents {
		marker := " "
		if c.agent != nil && *c.agent == a.ID {
			marker = cliui.SuccessMark
		}
		line := fmt.Sprintf("  %s %s  %s", marker, cliui.KeyStyle.Render(strconv.FormatInt(a.ID, 10)), cliui.NameStyle.Render(a.Name))
		if a.Description != "" {
			line += "  " + cliui.DimStyle.Render(ansi.Truncate(a.Description, maxDescriptionWidth, "…"))
		}
		fmt.Fprintln(c.out, line)
	}
	fmt.Fprintln(c.out)
}

func (c *chatCommander) selectAgent(arg string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid agent id %q", arg)
	}
	c.agent = &id
	return nil
}

func (c *chatCommander) agentString() string {
	if c.agent == nil {
		return ""
	}
	return strconv.FormatInt(*c.agent, 10)
}

// send posts input to the current chat, creating the chat first when needed,
// and renders the streamed reply.
func (c *chatCommander) send(ctx context.Context, input string) {
	if c.historyID == 0 {
		chat, err := c.client.CreateChat(ctx, input)
		if err != nil {
			c.printFailure(err.Error())
			return
		}
		c.historyID = chat.ID
		c.chatName = chat.Name
		c.saveSession()
		fmt.Fprintf(c.out, "  %s %s\n",
			cliui.DimStyle.Render("New chat"),
			cliui.NameStyle.Render(fmt.Sprintf("#%d", chat.ID)),
		)
	}

	fmt.Fprintf(c.out, "\n%s", cliui.AssistantPrompt.Render("assistant> "))

	r := newReplyRenderer(c.out, c.markdown, c.logger)
	req := codeer.QuestionRequest{Message: input, AgentID: c.agent}
	err := c.client.SendQuestion(ctx, c.historyID, req, r)

	switch {
	case err != nil && !r.started():
		c.printFailure(err.Error())
	case r.errMessage != "":
		c.printFailure(r.errMessage)
	case err != nil:
		c.printFailure(err.Error())
	}
}

// printFailure prints an error and the troubleshooting checklist.
func (c *chatCommander) printFailure(msg string) {
	fmt.Fprintf(c.out, "\n  %s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(msg))
	fmt.Fprintf(c.out, "\n  %s\n", cliui.KeyStyle.Render("Please check:"))
	for _, item := range troubleshooting {
		fmt.Fprintf(c.out, "  - %s\n", item)
	}
	fmt.Fprintln(c.out)
}
