package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGanacheProvisioner_DeterministicAcrossRuns(t *testing.T) {
	p := &GanacheProvisioner{Seed: "test-seed"}

	first, err := p.Provision(3)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := (&GanacheProvisioner{Seed: "test-seed"}).Provision(3)
	require.NoError(t, err)
	require.Len(t, second, 3)

	for i := range first {
		assert.Equal(t, first[i].Address, second[i].Address)
		assert.Equal(t, first[i].PrivKey, second[i].PrivKey)
	}
}

func TestGanacheProvisioner_DistinctAccountsPerIndex(t *testing.T) {
	p := &GanacheProvisioner{Seed: "test-seed"}

	accts, err := p.Provision(5)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, a := range accts {
		assert.False(t, seen[a.Address], "expected distinct addresses, got repeat %s", a.Address)
		seen[a.Address] = true
		assert.NotEmpty(t, a.PrivKey)
		assert.Equal(t, defaultGanacheBalance.String(), a.Balance)
	}
}

func TestGanacheProvisioner_DifferentSeedsDifferentAccounts(t *testing.T) {
	a, err := (&GanacheProvisioner{Seed: "seed-a"}).Provision(1)
	require.NoError(t, err)
	b, err := (&GanacheProvisioner{Seed: "seed-b"}).Provision(1)
	require.NoError(t, err)

	assert.NotEqual(t, a[0].Address, b[0].Address)
}

func TestGanacheProvisioner_DefaultSeedUsedWhenEmpty(t *testing.T) {
	withDefault, err := (&GanacheProvisioner{}).Provision(1)
	require.NoError(t, err)
	explicit, err := (&GanacheProvisioner{Seed: defaultGanacheSeed}).Provision(1)
	require.NoError(t, err)

	assert.Equal(t, explicit[0].Address, withDefault[0].Address)
}
