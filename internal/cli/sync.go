package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zenops/shieldscan/internal/config"
	"github.com/zenops/shieldscan/internal/metrics"
	"github.com/zenops/shieldscan/internal/store"
	syncengine "github.com/zenops/shieldscan/internal/sync"
	"github.com/zenops/shieldscan/internal/zend"
	"github.com/zenops/shieldscan/pkg/logger"
)

// NewSyncCommand creates the sync command
func NewSyncCommand(cfg *config.Config, logger *logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch missing blocks from the node",
		Long: `Sync brings the series CSV up to date with the node's chain tip.
Only heights missing from the CSV are fetched; an interrupted run keeps
everything fetched so far and resumes from the same point next time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st := store.New(cfg.CSVPath, logger)
			client := zend.NewClient(cfg, logger)
			collector := metrics.NewCollector()
			engine := syncengine.NewEngine(client, st, collector, cfg.ProgressEvery, logger)

			result, err := engine.Synchronize(ctx)
			if err != nil {
				if result.Fetched > 0 {
					fmt.Fprintf(os.Stderr, "Saved %d blocks before the failure\n", result.Fetched)
				}
				return fmt.Errorf("synchronization failed: %w", err)
			}

			if !result.Complete {
				fmt.Printf("Interrupted: saved %d blocks, rerun to resume at height %d\n",
					result.Fetched, result.StartHeight+int64(result.Fetched))
				return nil
			}

			if result.Fetched == 0 {
				fmt.Println("Already up to date")
			} else {
				fmt.Printf("Fetched %d blocks up to height %d\n", result.Fetched, result.TipHeight)
			}
			return nil
		},
	}

	return cmd
}
