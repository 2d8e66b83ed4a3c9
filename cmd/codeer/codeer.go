// Package codeercmder is the root command of the codeer CLI.
package codeercmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/codeer/cmd/codeer/auth"
	chatcmder "github.com/papercomputeco/codeer/cmd/codeer/chat"
	configcmder "github.com/papercomputeco/codeer/cmd/codeer/config"
	mockservercmder "github.com/papercomputeco/codeer/cmd/codeer/mockserver"
	versioncmder "github.com/papercomputeco/codeer/cmd/version"
)

const codeerLongDesc string = `Codeer is a terminal client for chatting with Codeer agents.

Get started:
  codeer auth                Store the workspace API key for the API root
  codeer chat                Start an interactive chat
  codeer mock-server         Run a local stand-in for the Codeer API`

const codeerShortDesc string = "Codeer - Chat with your agents"

func NewCodeerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "codeer",
		Short:        codeerShortDesc,
		Long:         codeerLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .codeer/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(mockservercmder.NewMockServerCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
