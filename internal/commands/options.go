package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge-agent/internal/config"
)

// ServeOptions are flags that override the environment for one run.
type ServeOptions struct {
	EnvFile  string
	Port     int
	Headless bool
	WatchDir string
	DataDir  string
}

func AddServeArgs(cmd *cobra.Command, o *ServeOptions) {
	cmd.Flags().StringVar(&o.EnvFile, "env-file", config.DefaultEnvFile,
		"Read environment defaults from this file.")
	cmd.Flags().IntVarP(&o.Port, "port", "p", config.DefaultPort,
		"Port for the local API.")
	cmd.Flags().BoolVar(&o.Headless, "headless", false,
		"Run without the system tray.")
	cmd.Flags().StringVarP(&o.WatchDir, "watch", "w", "",
		"Ingest media files dropped into this directory.")
	cmd.Flags().StringVar(&o.DataDir, "data-dir", "",
		"Directory for the database and cache.")
}

// apply exports every flag the user set so it wins over the env file and the
// process environment.
func (o *ServeOptions) apply(cmd *cobra.Command) error {
	set := map[string]string{}
	if cmd.Flags().Changed("port") {
		set[config.EnvPort] = strconv.Itoa(o.Port)
	}
	if cmd.Flags().Changed("headless") {
		set[config.EnvHeadless] = strconv.FormatBool(o.Headless)
	}
	if cmd.Flags().Changed("watch") {
		set[config.EnvWatchDir] = o.WatchDir
	}
	if cmd.Flags().Changed("data-dir") {
		set[config.EnvDataDir] = o.DataDir
	}
	for k, v := range set {
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return nil
}
