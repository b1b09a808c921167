package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge-agent/internal/config"
	"github.com/clipforge/clipforge-agent/internal/ingest"
)

var errToolsMissing = errors.New("ffprobe or ffmpeg is not available")

func addDoctor(topLevel *cobra.Command) {
	envFile := config.DefaultEnvFile
	strict := false

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that ffprobe and ffmpeg can be run.",
		Example: `
agent doctor
agent doctor --strict
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			tools := ingest.NewDoctor(cfg.FFprobePath(), cfg.FFmpegPath(), nil).Refresh(cmd.Context())
			return printTools(cmd, tools, strict)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", config.DefaultEnvFile,
		"Read environment defaults from this file.")
	cmd.Flags().BoolVar(&strict, "strict", false,
		"Exit non-zero when a tool is missing.")

	topLevel.AddCommand(cmd)
}

func printTools(cmd *cobra.Command, tools *ingest.Tools, strict bool) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(tools); err != nil {
		return err
	}
	if strict && !tools.AllOK() {
		return errToolsMissing
	}
	return nil
}
