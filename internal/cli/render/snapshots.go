package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/chaind/chain-manager/internal/domain"
)

// SnapshotsRenderer renders SnapshotDetails lists for `chainctl
// snapshot list` and the interactive picker `chainctl revert` falls back
// to when --snapshot is omitted.
type SnapshotsRenderer struct {
	out io.Writer
}

func NewSnapshotsRenderer(out io.Writer) *SnapshotsRenderer {
	return &SnapshotsRenderer{out: out}
}

func (r *SnapshotsRenderer) RenderList(snaps []domain.SnapshotDetails) {
	if len(snaps) == 0 {
		fmt.Fprintln(r.out, "No snapshots found")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"ID", "CHAIN TYPE", "DESCRIPTION", "CREATED"})
	for _, s := range snaps {
		desc := s.Description
		if desc == "" {
			desc = "(transient)"
		}
		t.AppendRow(table.Row{s.ID, string(s.ChainType), desc, s.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	t.Render()
}

// Options renders snaps as promptui.Select display strings, index-
// aligned with snaps itself.
func Options(snaps []domain.SnapshotDetails) []string {
	opts := make([]string, len(snaps))
	for i, s := range snaps {
		desc := s.Description
		if desc == "" {
			desc = "(transient)"
		}
		opts[i] = fmt.Sprintf("%s — %s [%s] %s", s.ID, desc, s.ChainType, s.CreatedAt.Format("2006-01-02 15:04"))
	}
	return opts
}
