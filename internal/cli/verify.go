package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zenops/shieldscan/internal/config"
	"github.com/zenops/shieldscan/internal/store"
	"github.com/zenops/shieldscan/internal/verify"
	"github.com/zenops/shieldscan/pkg/logger"
)

// NewVerifyCommand creates the verify command
func NewVerifyCommand(cfg *config.Config, logger *logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the series CSV for gaps",
		Long: `Verify scans the series CSV and reports every pair of adjacent rows
whose block heights are not consecutive. All violations are listed, not
just the first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := store.New(cfg.CSVPath, logger)
			series, err := st.Load()
			if err != nil {
				return fmt.Errorf("failed to load series: %w", err)
			}

			anomalies := verify.Verify(series)
			for _, a := range anomalies {
				fmt.Println(a)
			}
			if len(anomalies) > 0 {
				return fmt.Errorf("found %d contiguity anomalies in %s", len(anomalies), cfg.CSVPath)
			}

			fmt.Printf("%s: %d entries, no anomalies\n", cfg.CSVPath, len(series))
			return nil
		},
	}

	return cmd
}
