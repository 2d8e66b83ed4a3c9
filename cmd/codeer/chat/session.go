package chatcmder

import (
	"fmt"
	"time"

	"github.com/papercomputeco/codeer/pkg/cliui"
	"github.com/papercomputeco/codeer/pkg/credentials"
	"github.com/papercomputeco/codeer/pkg/dotdir"
)

// resumeSession restores the last chat when it belongs to the same API root.
func (c *chatCommander) resumeSession() error {
	state, err := c.ddm.LoadSession(c.configDir)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	if state == nil || state.HistoryID == 0 {
		fmt.Fprintf(c.out, "  %s No saved session, starting a new chat\n", cliui.DimStyle.Render("●"))
		return nil
	}

	if credentials.NormalizeRoot(state.APIRoot) != c.client.Root() {
		fmt.Fprintf(c.out, "  %s Saved session belongs to %s, starting a new chat\n",
			cliui.WarnStyle.Render("!"),
			cliui.NameStyle.Render(state.APIRoot),
		)
		return nil
	}

	c.historyID = state.HistoryID
	c.chatName = state.Name
	if c.agent == nil && state.AgentID != "" {
		if err := c.selectAgent(state.AgentID); err != nil {
			c.logger.Warn("ignoring saved agent", "agent_id", state.AgentID, "error", err)
		}
	}

	fmt.Fprintf(c.out, "  %s Resuming chat %s %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(fmt.Sprintf("#%d", c.historyID)),
		cliui.DimStyle.Render(c.chatName),
	)
	return nil
}

// saveSession persists the current chat so --resume can find it. Failures
// are logged and do not interrupt the chat.
func (c *chatCommander) saveSession() {
	if c.historyID == 0 {
		return
	}

	state := &dotdir.SessionState{
		HistoryID: c.historyID,
		Name:      c.chatName,
		AgentID:   c.agentString(),
		APIRoot:   c.client.Root(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := c.ddm.SaveSession(state, c.configDir); err != nil {
		c.logger.Warn("could not save session", "error", err)
	}
}

func (c *chatCommander) clearSession() {
	if err := c.ddm.ClearSession(c.configDir); err != nil {
		c.logger.Warn("could not clear session", "error", err)
	}
}
