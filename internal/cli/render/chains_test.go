package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chaind/chain-manager/internal/domain"
)

func TestChainsRenderer_RenderList_Empty(t *testing.T) {
	var buf strings.Builder
	NewChainsRenderer(&buf).RenderList(nil)
	assert.Equal(t, "No chains running\n", buf.String())
}

func TestChainsRenderer_RenderList_IncludesChainFields(t *testing.T) {
	var buf strings.Builder
	handles := []domain.ChainHandle{
		{ID: "1", Type: domain.EVMGeth, Status: domain.StatusActive, RPCURL: "http://localhost:8545", WSURL: "ws://localhost:8546"},
	}
	NewChainsRenderer(&buf).RenderList(handles)

	out := buf.String()
	assert.Contains(t, out, "1")
	assert.Contains(t, out, "geth")
	assert.Contains(t, out, "http://localhost:8545")
	assert.Contains(t, out, "ws://localhost:8546")
}

func TestChainsRenderer_RenderDetails_OmitsAccountsTableWhenEmpty(t *testing.T) {
	var buf strings.Builder
	h := domain.ChainHandle{ID: "1", Type: domain.EVMGeth, Status: domain.StatusActive, RPCURL: "http://localhost:8545"}
	NewChainsRenderer(&buf).RenderDetails(h)

	out := buf.String()
	assert.Contains(t, out, "chain 1 (geth)")
	assert.Contains(t, out, "rpc: http://localhost:8545")
	assert.NotContains(t, out, "ADDRESS")
}

func TestChainsRenderer_RenderDetails_RendersAccountBalances(t *testing.T) {
	var buf strings.Builder
	h := domain.ChainHandle{
		ID: "1", Type: domain.EVMGanache, Status: domain.StatusActive,
		Accounts: []domain.Account{{Address: "0xabc", Balance: "1000000000000000000"}},
	}
	NewChainsRenderer(&buf).RenderDetails(h)

	out := buf.String()
	assert.Contains(t, out, "0xabc")
	assert.Contains(t, out, "1.0000 ETH")
}
