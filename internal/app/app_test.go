package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaind/chain-manager/internal/config"
)

func testRuntime(t *testing.T) *config.Runtime {
	t.Helper()
	base := t.TempDir()
	return &config.Runtime{
		BasePath:             filepath.Join(base, "chains"),
		SnapshotBasePath:     filepath.Join(base, "snapshots"),
		SnapshotDBPath:       filepath.Join(base, "db", "snapshots.db"),
		KillTimeoutMs:        1000,
		FrontURL:             "localhost",
		EVMPortRange:         config.PortRange{Low: 20000, High: 20100},
		GethExecutable:       "geth",
		GanacheExecutable:    "ganache-cli",
		GanacheWrapperScript: "",
		LogLevel:             "error",
	}
}

func TestNew_WiresFacadeAndCloses(t *testing.T) {
	rt := testRuntime(t)

	a, err := New(rt)
	require.NoError(t, err)
	require.NotNil(t, a.Facade)
	require.NotNil(t, a.Registry)
	require.NotNil(t, a.Bus)
	require.NotNil(t, a.Supervisor)
	require.NotNil(t, a.PromGatherer)

	assert.Empty(t, a.Facade.List())

	assert.NoError(t, a.Close())
}

func TestNew_AdapterFactoryResolvesBothEVMTypes(t *testing.T) {
	rt := testRuntime(t)
	factory := NewAdapterFactory(rt)

	geth, err := factory.For("geth")
	require.NoError(t, err)
	assert.Equal(t, "geth", string(geth.EVMType()))

	ganache, err := factory.For("ganache")
	require.NoError(t, err)
	assert.Equal(t, "ganache", string(ganache.EVMType()))
}

func TestNew_AdapterFactoryRejectsUnknownType(t *testing.T) {
	rt := testRuntime(t)
	factory := NewAdapterFactory(rt)

	_, err := factory.For("parity")
	assert.Error(t, err)
}
