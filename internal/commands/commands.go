// Package commands builds the agent command line.
package commands

import (
	"github.com/spf13/cobra"
)

// New returns the root command. Run without a subcommand it behaves like
// serve.
func New() *cobra.Command {
	so := &ServeOptions{}

	cmd := &cobra.Command{
		Use:           "agent",
		Short:         "Local timeline editing engine for the ClipForge editor.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, so)
		},
	}
	AddServeArgs(cmd, so)

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addServe(topLevel)
	addProbe(topLevel)
	addDoctor(topLevel)
	addVersion(topLevel)
}
