package render

import (
	"fmt"
	"io"
	"math/big"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/chaind/chain-manager/internal/domain"
)

var weiPerEther = new(big.Float).SetFloat64(1e18)

// FormatEther renders a decimal-wei balance string as a grouped ether
// amount, the way an operator reads account funding at a glance.
func FormatEther(wei string) string {
	n, ok := new(big.Float).SetString(wei)
	if !ok {
		return wei
	}
	ether, _ := new(big.Float).Quo(n, weiPerEther).Float64()
	p := message.NewPrinter(language.English)
	return p.Sprintf("%.4f ETH", ether)
}

var statusColor = map[domain.ChainStatus]*color.Color{
	domain.StatusActive:            color.New(color.FgGreen),
	domain.StatusInitializing:      color.New(color.FgYellow),
	domain.StatusSnapshotTaking:    color.New(color.FgCyan),
	domain.StatusSnapshotReverting: color.New(color.FgCyan),
	domain.StatusTerminating:       color.New(color.FgYellow),
	domain.StatusStopped:           color.New(color.FgHiBlack),
	domain.StatusFailed:            color.New(color.FgRed),
}

func coloredStatus(s domain.ChainStatus) string {
	c, ok := statusColor[s]
	if !ok {
		c = color.New(color.FgWhite)
	}
	return c.Sprint(string(s))
}

// ChainsRenderer renders ChainHandle lists and single-chain detail
// views for chainctl, following the teacher's render.DeploymentsRenderer
// shape (a thin io.Writer-backed table writer).
type ChainsRenderer struct {
	out io.Writer
}

func NewChainsRenderer(out io.Writer) *ChainsRenderer {
	return &ChainsRenderer{out: out}
}

// RenderList prints the registry's live chains as a table, per
// `chainctl list`.
func (r *ChainsRenderer) RenderList(handles []domain.ChainHandle) {
	if len(handles) == 0 {
		fmt.Fprintln(r.out, "No chains running")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"ID", "TYPE", "STATUS", "RPC URL", "WS URL", "ACCOUNTS"})
	for _, h := range handles {
		t.AppendRow(table.Row{
			h.ID, string(h.Type), coloredStatus(h.Status), h.RPCURL, h.WSURL, len(h.Accounts),
		})
	}
	t.Render()
}

// RenderDetails prints one chain's full account list, per `chainctl
// start --wait` and `chainctl show`.
func (r *ChainsRenderer) RenderDetails(h domain.ChainHandle) {
	fmt.Fprintf(r.out, "chain %s (%s) %s\n", h.ID, h.Type, coloredStatus(h.Status))
	fmt.Fprintf(r.out, "  rpc: %s\n  ws:  %s\n  coinbase: %s\n", h.RPCURL, h.WSURL, h.Coinbase)

	if len(h.Accounts) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"ADDRESS", "BALANCE"})
	for _, acc := range h.Accounts {
		t.AppendRow(table.Row{acc.Address, FormatEther(acc.Balance)})
	}
	t.Render()
}
