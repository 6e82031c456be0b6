package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newLogsCmd() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs <log-file>",
		Short: "Tail a chain's output log",
		Long:  "Tail the file a chain was started with --output-log-path pointing at.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer f.Close()

			r := bufio.NewReader(f)
			if _, err := io.Copy(cmd.OutOrStdout(), r); err != nil {
				return err
			}
			if !follow {
				return nil
			}

			for {
				line, err := r.ReadString('\n')
				if len(line) > 0 {
					fmt.Fprint(cmd.OutOrStdout(), line)
				}
				if err == io.EOF {
					time.Sleep(500 * time.Millisecond)
					continue
				}
				if err != nil {
					return err
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep reading as the file grows")
	return cmd
}
