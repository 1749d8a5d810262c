package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zenops/shieldscan/internal/api"
	"github.com/zenops/shieldscan/internal/config"
	"github.com/zenops/shieldscan/internal/metrics"
	"github.com/zenops/shieldscan/internal/store"
	syncengine "github.com/zenops/shieldscan/internal/sync"
	"github.com/zenops/shieldscan/internal/zend"
	"github.com/zenops/shieldscan/pkg/logger"
)

// NewServeCommand creates the serve command
func NewServeCommand(cfg *config.Config, logger *logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the series API and chart",
		Long: `Serve synchronizes the series CSV (unless --no-update is given) and then
exposes it over HTTP: a JSON API under /api/v1, an HTML chart at /chart,
and Prometheus metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st := store.New(cfg.CSVPath, logger)
			collector := metrics.NewCollector()

			if !cfg.NoUpdate {
				client := zend.NewClient(cfg, logger)
				engine := syncengine.NewEngine(client, st, collector, cfg.ProgressEvery, logger)
				result, err := engine.Synchronize(ctx)
				if err != nil {
					return fmt.Errorf("synchronization failed: %w", err)
				}
				if !result.Complete {
					// Interrupted before the server even started.
					return nil
				}
			}

			server := api.NewServer(cfg, st, collector, logger)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Stop(shutdownCtx)
		},
	}

	cmd.Flags().BoolVar(&cfg.NoUpdate, "no-update", cfg.NoUpdate, "Skip synchronization before serving")
	cmd.Flags().Int64Var(&cfg.FromHeight, "from", cfg.FromHeight, "First block height shown on the chart")

	return cmd
}
