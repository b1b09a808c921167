package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge-agent/internal/config"
	"github.com/clipforge/clipforge-agent/internal/ingest"
	"github.com/clipforge/clipforge-agent/internal/media"
)

type probeResult struct {
	Path      string           `json:"path"`
	Kind      media.Kind       `json:"kind"`
	Size      int64            `json:"size"`
	SizeLabel string           `json:"size_label"`
	Metadata  *ingest.Metadata `json:"metadata,omitempty"`
	Error     string           `json:"error,omitempty"`
}

func addProbe(topLevel *cobra.Command) {
	envFile := config.DefaultEnvFile

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Show what the agent would import for a media file.",
		Example: `
agent probe ~/Movies/intro.mp4
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			res, err := probeFile(cmd.Context(), ingest.NewFFprobe(cfg.FFprobePath(), nil), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", config.DefaultEnvFile,
		"Read environment defaults from this file.")

	topLevel.AddCommand(cmd)
}

// probeFile reports a failed metadata lookup in the result rather than as an
// error, matching how ingest degrades.
func probeFile(ctx context.Context, p ingest.Prober, path string) (*probeResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, ingest.ErrNotFile
	}
	kind, ok := media.KindForPath(absPath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ingest.ErrUnsupported, filepath.Ext(absPath))
	}

	res := &probeResult{
		Path:      absPath,
		Kind:      kind,
		Size:      info.Size(),
		SizeLabel: humanize.Bytes(uint64(info.Size())),
	}
	meta, err := p.Probe(ctx, absPath)
	if err != nil {
		res.Error = err.Error()
		return res, nil
	}
	res.Metadata = meta
	return res, nil
}
