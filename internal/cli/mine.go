package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaind/chain-manager/internal/cli/render"
)

func newMineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Control automine on a running chain",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "start <chain-id>",
			Short: "Enable automine",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := getApp(cmd)
				if err != nil {
					return err
				}
				if err := app.Facade.StartMine(args[0]); err != nil {
					return fmt.Errorf("starting mining on chain %s: %w", args[0], err)
				}
				fmt.Println(render.FormatSuccess(fmt.Sprintf("mining started on chain %s", args[0])))
				return nil
			},
		},
		&cobra.Command{
			Use:   "stop <chain-id>",
			Short: "Disable automine",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := getApp(cmd)
				if err != nil {
					return err
				}
				if err := app.Facade.StopMine(args[0]); err != nil {
					return fmt.Errorf("stopping mining on chain %s: %w", args[0], err)
				}
				fmt.Println(render.FormatSuccess(fmt.Sprintf("mining stopped on chain %s", args[0])))
				return nil
			},
		},
	)

	return cmd
}
