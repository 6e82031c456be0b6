package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaind/chain-manager/internal/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	m, err := Open(filepath.Join(dir, "index.db"), filepath.Join(dir, "archives"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func seedDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "genesis.json"), []byte(`{"chainId":999}`), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "keystore"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keystore", "key1"), []byte("secret"), 0o600))
	return dir
}

func TestSnapshot_TakeWithDescription_IsIndexed(t *testing.T) {
	m := newTestManager(t)
	src := seedDataDir(t)

	details, err := m.Take(context.Background(), domain.EVMGeth, src, "pre-deploy")
	require.NoError(t, err)
	assert.False(t, details.Transient())

	byID, err := m.ByID(details.ID)
	require.NoError(t, err)
	assert.Equal(t, details.ID, byID.ID)
}

func TestSnapshot_TakeWithoutDescription_IsTransientNotIndexed(t *testing.T) {
	m := newTestManager(t)
	src := seedDataDir(t)

	details, err := m.Take(context.Background(), domain.EVMGeth, src, "")
	require.NoError(t, err)
	assert.True(t, details.Transient())

	_, err = m.ByID(details.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSnapshot_RestoreRoundTrip(t *testing.T) {
	m := newTestManager(t)
	src := seedDataDir(t)

	details, err := m.Take(context.Background(), domain.EVMGeth, src, "roundtrip")
	require.NoError(t, err)

	dest := t.TempDir()
	require.NoError(t, m.Restore(context.Background(), details, dest))

	data, err := os.ReadFile(filepath.Join(dest, "genesis.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"chainId":999}`, string(data))

	_, err = os.Stat(filepath.Join(dest, "keystore", "key1"))
	assert.NoError(t, err)
}

func TestSnapshot_ByID_MissingArchive(t *testing.T) {
	m := newTestManager(t)
	src := seedDataDir(t)

	details, err := m.Take(context.Background(), domain.EVMGeth, src, "will-vanish")
	require.NoError(t, err)

	require.NoError(t, os.Remove(details.Path))

	_, err = m.ByID(details.ID)
	assert.ErrorIs(t, err, domain.ErrMissingArchive)
}

func TestSnapshot_ByChain_FiltersByType(t *testing.T) {
	m := newTestManager(t)
	src := seedDataDir(t)

	_, err := m.Take(context.Background(), domain.EVMGeth, src, "geth-snap")
	require.NoError(t, err)
	_, err = m.Take(context.Background(), domain.EVMGanache, src, "ganache-snap")
	require.NoError(t, err)

	gethOnly, err := m.ByChain(domain.EVMGeth)
	require.NoError(t, err)
	assert.Len(t, gethOnly, 1)
	assert.Equal(t, domain.EVMGeth, gethOnly[0].ChainType)
}

func TestSnapshot_Remove_DeletesArchiveAndIndex(t *testing.T) {
	m := newTestManager(t)
	src := seedDataDir(t)

	details, err := m.Take(context.Background(), domain.EVMGeth, src, "to-remove")
	require.NoError(t, err)

	require.NoError(t, m.Remove(details.ID))

	_, err = m.ByID(details.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, statErr := os.Stat(details.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSnapshot_RepairScan_DropsStaleEntries(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "index.db")
	archiveDir := filepath.Join(dir, "archives")

	m, err := Open(dbPath, archiveDir, nil)
	require.NoError(t, err)

	src := seedDataDir(t)
	details, err := m.Take(context.Background(), domain.EVMGeth, src, "about-to-go-stale")
	require.NoError(t, err)
	require.NoError(t, os.Remove(details.Path))
	require.NoError(t, m.Close())

	reopened, err := Open(dbPath, archiveDir, nil)
	require.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.ByID(details.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
