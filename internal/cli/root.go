package cli

import (
	"github.com/spf13/cobra"

	"github.com/zenops/shieldscan/internal/config"
	"github.com/zenops/shieldscan/pkg/logger"
)

// NewRootCommand creates the root command for shieldscan
func NewRootCommand(cfg *config.Config, logger *logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shieldscan",
		Short: "Shielded pool value tracker",
		Long: `Shieldscan tracks the value locked in the chain's shielded pool over time.
It incrementally queries a zend node over JSON-RPC, persists one row per
block height in a CSV file, and can verify and serve the collected series.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	cmd.PersistentFlags().StringVar(&cfg.CSVPath, "csv", cfg.CSVPath, "Path of the series CSV file")
	cmd.PersistentFlags().StringVar(&cfg.RPCURL, "rpc-url", cfg.RPCURL, "URL of the zend RPC endpoint")
	cmd.PersistentFlags().StringVar(&cfg.RPCUser, "rpc-user", cfg.RPCUser, "RPC basic auth username")
	cmd.PersistentFlags().StringVar(&cfg.RPCPassword, "rpc-pass", cfg.RPCPassword, "RPC basic auth password")
	cmd.PersistentFlags().DurationVar(&cfg.RPCTimeout, "rpc-timeout", cfg.RPCTimeout, "Per-request RPC timeout")
	cmd.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug output")

	// Add subcommands
	cmd.AddCommand(NewSyncCommand(cfg, logger))
	cmd.AddCommand(NewVerifyCommand(cfg, logger))
	cmd.AddCommand(NewServeCommand(cfg, logger))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}
