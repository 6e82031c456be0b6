package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaind/chain-manager/internal/cli/render"
	"github.com/chaind/chain-manager/internal/domain"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage chain snapshots",
	}

	cmd.AddCommand(newSnapshotTakeCmd(), newSnapshotListCmd(), newSnapshotRmCmd())
	return cmd
}

func newSnapshotTakeCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "take <chain-id>",
		Short: "Take a snapshot of a running chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			details, err := app.Facade.TakeSnapshot(args[0], description)
			if err != nil {
				return fmt.Errorf("taking snapshot of chain %s: %w", args[0], err)
			}
			fmt.Println(render.FormatSuccess(fmt.Sprintf("snapshot %s taken", details.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Description to index the snapshot under (omit for a transient snapshot)")
	return cmd
}

func newSnapshotListCmd() *cobra.Command {
	var chainType string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List indexed snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			var snaps []domain.SnapshotDetails
			if chainType != "" {
				snaps, err = app.Facade.SnapshotsByChain(domain.EVMType(chainType))
			} else {
				snaps, err = app.Facade.SnapshotsList()
			}
			if err != nil {
				return err
			}

			render.NewSnapshotsRenderer(cmd.OutOrStdout()).RenderList(snaps)
			return nil
		},
	}

	cmd.Flags().StringVar(&chainType, "type", "", "Filter by EVM type: geth or ganache")
	return cmd
}

func newSnapshotRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <snapshot-id>",
		Short: "Remove a snapshot's archive and index entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if err := app.Facade.RemoveSnapshot(args[0]); err != nil {
				return fmt.Errorf("removing snapshot %s: %w", args[0], err)
			}
			fmt.Println(render.FormatSuccess(fmt.Sprintf("snapshot %s removed", args[0])))
			return nil
		},
	}
}
