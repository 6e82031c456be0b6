package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaind/chain-manager/internal/cli/render"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <chain-id>",
		Short: "Show one chain's accounts and connection details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			h, err := app.Facade.Details(args[0])
			if err != nil {
				return fmt.Errorf("looking up chain %s: %w", args[0], err)
			}
			render.NewChainsRenderer(cmd.OutOrStdout()).RenderDetails(h)
			return nil
		},
	}
}
