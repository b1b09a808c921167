package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge-agent/internal/config"
)

type versionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
}

func addVersion(topLevel *cobra.Command) {
	shortened := false
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the agent version.",
		Example: `
agent version
agent version --short
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if shortened {
				_, err := fmt.Fprintln(out, config.Version)
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(versionInfo{
				Version:   config.Version,
				GitCommit: config.GitCommit,
				BuildTime: config.BuildTime,
			})
		},
	}

	cmd.Flags().BoolVarP(&shortened, "short", "s", false, "Print just the version number.")

	topLevel.AddCommand(cmd)
}
