// Package authcmder provides the auth command for storing workspace API keys.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/codeer/pkg/cliui"
	"github.com/papercomputeco/codeer/pkg/config"
	"github.com/papercomputeco/codeer/pkg/credentials"
)

const authLongDesc string = `Store the workspace API key for a Codeer API root.

Keys are stored in credentials.toml in the .codeer/ directory, one per API
root, and sent as the x-api-key header by "codeer chat". The API root
defaults to the configured api.root.

A key passed with --api-key or set in ` + credentials.EnvVar + ` takes
precedence over the stored key.

Examples:
  codeer auth                                Prompt for the key of the configured API root
  codeer auth https://codeer.example.com     Prompt for the key of another API root
  codeer auth --list                         List API roots with stored keys
  codeer auth --remove http://localhost:8000 Remove a stored key
  echo $KEY | codeer auth                    Pipe the key from stdin`

const authShortDesc string = "Store the workspace API key"

func NewAuthCmd() *cobra.Command {
	var listFlag bool
	var removeFlag string

	cmd := &cobra.Command{
		Use:   "auth [api-root]",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			out := cmd.OutOrStdout()

			switch {
			case listFlag:
				return runList(out, configDir)
			case removeFlag != "":
				return runRemove(out, removeFlag, configDir)
			}

			apiRoot := ""
			if len(args) == 1 {
				apiRoot = args[0]
			} else {
				v, err := config.InitViper(configDir)
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				apiRoot = v.GetString("api.root")
			}

			return runAuth(cmd.InOrStdin(), out, apiRoot, configDir)
		},
	}

	cmd.Flags().BoolVar(&listFlag, "list", false, "List API roots with stored keys")
	cmd.Flags().StringVar(&removeFlag, "remove", "", "Remove the stored key of an API root")

	return cmd
}

func runAuth(in io.Reader, out io.Writer, apiRoot, configDir string) error {
	apiRoot = credentials.NormalizeRoot(apiRoot)
	if apiRoot == "" {
		return errors.New("API root cannot be empty")
	}

	apiKey, err := readAPIKey(in, out, apiRoot)
	if err != nil {
		return err
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("API key cannot be empty")
	}

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.SetKey(apiRoot, apiKey); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Stored API key for %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(apiRoot),
	)
	return nil
}

func runList(out io.Writer, configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	hosts, err := mgr.ListHosts()
	if err != nil {
		return err
	}

	if len(hosts) == 0 {
		fmt.Fprintf(out, "\n  %s No stored credentials.\n", cliui.DimStyle.Render("●"))
		fmt.Fprintf(out, "  Use 'codeer auth [api-root]' to store a key.\n\n")
		return nil
	}

	fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Stored credentials"))
	for _, h := range hosts {
		fmt.Fprintf(out, "  %s  %s\n", cliui.SuccessMark, cliui.NameStyle.Render(h))
	}
	fmt.Fprintln(out)

	return nil
}

func runRemove(out io.Writer, apiRoot, configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.RemoveKey(apiRoot); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Removed API key for %s.\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(credentials.NormalizeRoot(apiRoot)),
	)
	return nil
}

// readAPIKey reads an API key from in. A terminal is prompted with hidden
// input. Anything else is read up to the first line.
func readAPIKey(in io.Reader, out io.Writer, apiRoot string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(out, "Enter API key for %s: ", apiRoot)

		keyBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out) // newline after hidden input
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		return string(keyBytes), nil
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no input received on stdin")
}
