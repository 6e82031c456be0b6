package cli

import (
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/chaind/chain-manager/internal/config"
)

// newConfigCmd prints the fully-resolved runtime configuration (after
// flag/env/file precedence has been applied) as TOML, the format
// chaind.toml itself uses.
func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved runtime configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.SetupViper(cmd.Root())
			rt, err := config.Load(v)
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(rt)
		},
	}
}
