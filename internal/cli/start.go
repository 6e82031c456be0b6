package cli

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/chaind/chain-manager/internal/cli/render"
	"github.com/chaind/chain-manager/internal/domain"
)

func newStartCmd() *cobra.Command {
	var (
		evmType      string
		accounts     int
		blockMineMs  int
		networkID    int
		httpPort     int
		cleanOnStop  bool
		snapshotID   string
		outputLog    string
		wait         bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new local EVM chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			cfg := domain.ChainConfig{
				Type:              domain.EVMType(evmType),
				AccountsRequested: accounts,
				BlockMineTimeMs:   blockMineMs,
				NetworkID:         networkID,
				HTTPPort:          httpPort,
				CleanOnStop:       cleanOnStop,
				SnapshotID:        snapshotID,
				OutputLogPath:     outputLog,
			}

			result, err := app.Facade.Start(cfg)
			if err != nil {
				return fmt.Errorf("starting chain: %w", err)
			}

			if !wait {
				fmt.Println(render.FormatSuccess(fmt.Sprintf("chain %s accepted, starting in background", result.ID)))
				return nil
			}

			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			s.Suffix = fmt.Sprintf(" waiting for chain %s to become active...", result.ID)
			s.Start()
			defer s.Stop()

			sub := app.Bus.Subscribe(domain.ChainTopic(result.ID))
			defer app.Bus.Unsubscribe(sub)

			for evt := range sub.C {
				switch evt.Type {
				case domain.EventStarted:
					s.Stop()
					h, err := app.Facade.Details(result.ID)
					if err != nil {
						return err
					}
					render.NewChainsRenderer(cmd.OutOrStdout()).RenderDetails(h)
					return nil
				case domain.EventError:
					s.Stop()
					return fmt.Errorf("chain %s failed to start", result.ID)
				}
			}
			return fmt.Errorf("chain %s: notification stream closed before it became active", result.ID)
		},
	}

	cmd.Flags().StringVar(&evmType, "type", string(domain.EVMGeth), "EVM implementation: geth or ganache")
	cmd.Flags().IntVar(&accounts, "accounts", 1, "Number of pre-funded accounts to provision")
	cmd.Flags().IntVar(&blockMineMs, "block-mine-time-ms", 0, "Automine interval in milliseconds (0 disables automine)")
	cmd.Flags().IntVar(&networkID, "network-id", 999, "Chain/network ID reported by the EVM")
	cmd.Flags().IntVar(&httpPort, "http-port", 0, "Fixed HTTP port (0 allocates from the configured range)")
	cmd.Flags().BoolVar(&cleanOnStop, "clean-on-stop", false, "Delete the data directory when the chain stops")
	cmd.Flags().StringVar(&snapshotID, "snapshot", "", "Seed the new chain's data directory from this snapshot")
	cmd.Flags().StringVar(&outputLog, "output-log-path", "", "Append the EVM process's stdout/stderr to this file")
	cmd.Flags().BoolVar(&wait, "wait", false, "Block until the chain reports started")

	return cmd
}
