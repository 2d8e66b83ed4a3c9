// Package configcmder provides the config command for managing persistent
// codeer configuration stored in the .codeer/ directory.
package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/codeer/pkg/cliui"
	"github.com/papercomputeco/codeer/pkg/config"
)

const configLongDesc string = `Manage persistent codeer configuration.

Configuration is stored as config.toml in the .codeer/ directory and provides
default values for command flags. CLI flags and CODEER_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  api.root, api.timeout,
  chat.agent_id, chat.markdown,
  mock.listen

Use subcommands to get, set, or list configuration values:
  codeer config set <key> <value>    Set a configuration value
  codeer config get <key>            Get a configuration value
  codeer config list                 List all configuration values

Examples:
  codeer config set api.root https://codeer.example.com
  codeer config set chat.agent_id 3
  codeer config get api.timeout
  codeer config list`

const configShortDesc string = "Manage persistent codeer configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validKeysCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(out io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		fmt.Fprintf(out, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
