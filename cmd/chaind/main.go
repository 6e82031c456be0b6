// Command chaind runs the Chain Manager daemon.
package main

import (
	"fmt"
	"os"

	"github.com/chaind/chain-manager/internal/cli"
	"github.com/chaind/chain-manager/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	config.SetBuildFlags(version, commit, date)

	rootCmd := cli.NewChaindRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
