package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaind/chain-manager/internal/app"
	"github.com/chaind/chain-manager/internal/config"
)

type contextKey string

const appKey contextKey = "app"

// NewChainctlRootCmd builds the chainctl command tree: the operator-
// facing client for a running chaind's Chain Facade.
func NewChainctlRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chainctl",
		Short: "Control local Ethereum test chains managed by chaind",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "config" {
				return nil
			}

			v := config.SetupViper(cmd.Root())
			rt, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			a, err := app.InitApp(rt)
			if err != nil {
				return fmt.Errorf("initializing chain manager: %w", err)
			}

			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},
	}

	rootCmd.PersistentFlags().String("base-path", "", "Override chain data base path")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Override metrics listen address")

	rootCmd.AddCommand(
		newStartCmd(),
		newStopCmd(),
		newListCmd(),
		newShowCmd(),
		newSnapshotCmd(),
		newRevertCmd(),
		newMineCmd(),
		newWatchCmd(),
		newLogsCmd(),
		newConfigCmd(),
		NewVersionCmd(),
	)

	return rootCmd
}

// NewChaindRootCmd builds the chaind command tree: the long-running
// daemon that hosts the Chain Facade.
func NewChaindRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chaind",
		Short: "Run the Chain Manager daemon",
	}

	rootCmd.PersistentFlags().String("base-path", "", "Override chain data base path")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Override metrics listen address")

	rootCmd.AddCommand(newServeCmd(), newConfigCmd(), NewVersionCmd())

	return rootCmd
}

func getApp(cmd *cobra.Command) (*app.App, error) {
	v := cmd.Context().Value(appKey)
	if v == nil {
		return nil, fmt.Errorf("chain manager app not initialized")
	}
	a, ok := v.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance in context")
	}
	return a, nil
}
