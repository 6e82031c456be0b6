package cli

import (
	"github.com/spf13/cobra"

	"github.com/chaind/chain-manager/internal/cli/render"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List chains managed by this daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			render.NewChainsRenderer(cmd.OutOrStdout()).RenderList(app.Facade.List())
			return nil
		},
	}
}
