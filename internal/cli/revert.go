package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/chaind/chain-manager/internal/cli/render"
	"github.com/chaind/chain-manager/internal/domain"
)

func newRevertCmd() *cobra.Command {
	var snapshotID string

	cmd := &cobra.Command{
		Use:   "revert <chain-id>",
		Short: "Revert a running chain to a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chainID := args[0]
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			var details domain.SnapshotDetails
			if snapshotID != "" {
				details, err = app.Facade.SnapshotByID(snapshotID)
				if err != nil {
					return fmt.Errorf("resolving snapshot %s: %w", snapshotID, err)
				}
			} else {
				h, err := app.Facade.Details(chainID)
				if err != nil {
					return fmt.Errorf("looking up chain %s: %w", chainID, err)
				}
				candidates, err := app.Facade.SnapshotsByChain(h.Type)
				if err != nil {
					return err
				}
				if len(candidates) == 0 {
					return fmt.Errorf("no snapshots indexed for chain type %s", h.Type)
				}
				details, err = pickSnapshot(candidates)
				if err != nil {
					return err
				}
			}

			if err := app.Facade.RevertSnapshot(chainID, details); err != nil {
				return fmt.Errorf("reverting chain %s to snapshot %s: %w", chainID, details.ID, err)
			}
			fmt.Println(render.FormatSuccess(fmt.Sprintf("chain %s reverted to snapshot %s", chainID, details.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshotID, "snapshot", "", "Snapshot ID to revert to (interactive picker if omitted)")
	return cmd
}

// pickSnapshot runs a fuzzy-searchable promptui selector over
// candidates, following the teacher's interactive.SelectorAdapter
// pattern of falling straight through when there's only one option.
func pickSnapshot(candidates []domain.SnapshotDetails) (domain.SnapshotDetails, error) {
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	options := render.Options(candidates)
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	sel := promptui.Select{
		Label:             "Select a snapshot to revert to",
		Items:             options,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: true,
		Searcher:          fuzzySearcher(options),
	}

	index, _, err := sel.Run()
	if err != nil {
		return domain.SnapshotDetails{}, fmt.Errorf("selection cancelled: %w", err)
	}
	return candidates[index], nil
}

func fuzzySearcher(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return true
		}
		return len(fuzzy.Find(input, []string{items[index]})) > 0
	}
}
