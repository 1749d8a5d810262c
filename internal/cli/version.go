package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	// Version is the current version of shieldscan
	Version = "0.3.0"
	// GitCommit will be set by build flags
	GitCommit = "dev"
)

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shieldscan version: %s\n", Version)
			fmt.Printf("git commit: %s\n", GitCommit)
		},
	}

	return cmd
}
