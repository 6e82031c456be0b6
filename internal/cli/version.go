package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaind/chain-manager/internal/config"
)

// NewVersionCmd reports the build-time version stamp, shared by both
// chaind and chainctl.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (commit %s, built %s)\n", cmd.Root().Name(), config.Version, config.Commit, config.Date)
		},
	}
}
