package main

import (
	"os"

	"github.com/clipforge/clipforge-agent/internal/commands"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		os.Exit(1)
	}
}
