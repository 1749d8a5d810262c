package main

import (
	"fmt"
	"os"

	"github.com/zenops/shieldscan/internal/cli"
	"github.com/zenops/shieldscan/internal/config"
	"github.com/zenops/shieldscan/pkg/logger"
)

func main() {
	cfg := config.DefaultConfig()
	if err := cli.ApplyEnv(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load environment config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.ColorLogs, cfg.DisableLogs, cfg.TimeFormatLogs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	root := cli.NewRootCommand(cfg, log)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
