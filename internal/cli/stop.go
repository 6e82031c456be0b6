package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaind/chain-manager/internal/cli/render"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <chain-id>",
		Short: "Stop a running chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if err := app.Facade.Stop(args[0]); err != nil {
				return fmt.Errorf("stopping chain %s: %w", args[0], err)
			}
			fmt.Println(render.FormatSuccess(fmt.Sprintf("chain %s stopped", args[0])))
			return nil
		},
	}
}
