// Package versioncmder provides the version command.
package versioncmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/codeer/pkg/utils"
)

type versionCommander struct {
	short bool
}

func NewVersionCmd() *cobra.Command {
	cmder := &versionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the codeer version",
		Long:  "Print the version, commit and build time of this codeer binary.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&cmder.short, "short", false, "Print only the version number")

	return cmd
}

func (c *versionCommander) run(out io.Writer) error {
	info := utils.ReadBuildInfo()
	if c.short {
		_, err := fmt.Fprintln(out, info.Version)
		return err
	}

	_, err := fmt.Fprint(out, info.String())
	return err
}
