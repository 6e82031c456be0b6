package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaind/chain-manager/internal/adapters/evm"
	"github.com/chaind/chain-manager/internal/domain"
)

type fakeAllocator struct {
	nextID       string
	http, ws     int
	portsInUse   map[int]bool
	pathsInUse   map[string]bool
	newIDErr     error
	allocateErr  error
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{nextID: "1", http: 8545, ws: 8546, portsInUse: map[int]bool{}, pathsInUse: map[string]bool{}}
}

func (a *fakeAllocator) NewID() (string, error)             { return a.nextID, a.newIDErr }
func (a *fakeAllocator) AllocatePorts() (int, int, error)   { return a.http, a.ws, a.allocateErr }
func (a *fakeAllocator) PortInUse(port int) bool            { return a.portsInUse[port] }
func (a *fakeAllocator) PathInUse(path string) bool         { return a.pathsInUse[path] }

// fakeHandle implements the Facade's Handle port entirely in memory.
type fakeHandle struct {
	id       string
	status   domain.ChainStatus
	details  domain.ChainHandle
	stopErr  error
	snapshot domain.SnapshotDetails
}

func (h *fakeHandle) ID() string         { return h.id }
func (h *fakeHandle) HTTPPort() int      { return 8545 }
func (h *fakeHandle) WSPort() int        { return 8546 }
func (h *fakeHandle) DBPath() string     { return "/tmp/chains/" + h.id }
func (h *fakeHandle) Status() domain.ChainStatus { return h.status }
func (h *fakeHandle) Stop() error        { return h.stopErr }
func (h *fakeHandle) TakeSnapshot(description string) (domain.SnapshotDetails, error) {
	return h.snapshot, nil
}
func (h *fakeHandle) RevertSnapshot(details domain.SnapshotDetails) error { return nil }
func (h *fakeHandle) StartMine() error                                   { return nil }
func (h *fakeHandle) StopMine() error                                    { return nil }
func (h *fakeHandle) Details() domain.ChainHandle                        { return h.details }
func (h *fakeHandle) Version() (string, error)                           { return "fake/v0", nil }
func (h *fakeHandle) WriteExternalData(data map[string]interface{}) error { return nil }
func (h *fakeHandle) ReadExternalData() (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

type fakeRegistry struct {
	handles map[string]Handle
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{handles: map[string]Handle{}}
}

func (r *fakeRegistry) Lookup(id string) (Handle, bool) {
	h, ok := r.handles[id]
	return h, ok
}

func (r *fakeRegistry) List() []Handle {
	out := make([]Handle, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h)
	}
	return out
}

type fakeSupervisor struct {
	reg       *fakeRegistry
	startErr  error
	started   []domain.ChainConfig
}

func (s *fakeSupervisor) StartChain(cfg domain.ChainConfig, adapter evm.Adapter) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started = append(s.started, cfg)
	s.reg.handles[cfg.ID] = &fakeHandle{
		id:     cfg.ID,
		status: domain.StatusActive,
		details: domain.ChainHandle{ID: cfg.ID, Type: cfg.Type, Status: domain.StatusActive},
	}
	return nil
}

type fakeAdapterFactory struct{}

func (fakeAdapterFactory) For(t domain.EVMType) (evm.Adapter, error) { return nil, nil }

type fakeSnapshotIndex struct {
	byID     map[string]domain.SnapshotDetails
	restored []string
	removed  []string
}

func newFakeSnapshotIndex() *fakeSnapshotIndex {
	return &fakeSnapshotIndex{byID: map[string]domain.SnapshotDetails{}}
}

func (s *fakeSnapshotIndex) ByID(id string) (domain.SnapshotDetails, error) {
	d, ok := s.byID[id]
	if !ok {
		return domain.SnapshotDetails{}, domain.ErrNotFound
	}
	return d, nil
}

func (s *fakeSnapshotIndex) ByChain(t domain.EVMType) ([]domain.SnapshotDetails, error) {
	var out []domain.SnapshotDetails
	for _, d := range s.byID {
		if d.ChainType == t {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeSnapshotIndex) List() ([]domain.SnapshotDetails, error) {
	var out []domain.SnapshotDetails
	for _, d := range s.byID {
		out = append(out, d)
	}
	return out, nil
}

func (s *fakeSnapshotIndex) Remove(id string) error {
	s.removed = append(s.removed, id)
	delete(s.byID, id)
	return nil
}

func (s *fakeSnapshotIndex) Restore(ctx context.Context, details domain.SnapshotDetails, dbPath string) error {
	s.restored = append(s.restored, details.ID)
	return nil
}

func newTestFacade() (*Facade, *fakeAllocator, *fakeRegistry, *fakeSupervisor, *fakeSnapshotIndex) {
	alloc := newFakeAllocator()
	reg := newFakeRegistry()
	sup := &fakeSupervisor{reg: reg}
	snaps := newFakeSnapshotIndex()
	f := NewFacade(alloc, reg, sup, fakeAdapterFactory{}, snaps, "/tmp/chains")
	return f, alloc, reg, sup, snaps
}

func TestFacade_Start_AllocatesIDAndPorts(t *testing.T) {
	f, _, _, sup, _ := newTestFacade()

	result, err := f.Start(domain.ChainConfig{Type: domain.EVMGeth})
	require.NoError(t, err)
	assert.Equal(t, "1", result.ID)
	require.Len(t, sup.started, 1)
	assert.Equal(t, 8545, sup.started[0].HTTPPort)
	assert.Equal(t, 8546, sup.started[0].WSPort)
	assert.Equal(t, 1, sup.started[0].AccountsRequested)
}

func TestFacade_Start_RejectsInvalidConfig(t *testing.T) {
	f, _, _, _, _ := newTestFacade()

	_, err := f.Start(domain.ChainConfig{Type: "parity"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFacade_Start_GanacheForcesEqualPorts(t *testing.T) {
	f, alloc, _, sup, _ := newTestFacade()
	alloc.http, alloc.ws = 8600, 8601

	_, err := f.Start(domain.ChainConfig{Type: domain.EVMGanache})
	require.NoError(t, err)
	assert.Equal(t, sup.started[0].HTTPPort, sup.started[0].WSPort)
}

func TestFacade_Start_RejectsPathInUse(t *testing.T) {
	f, alloc, _, _, _ := newTestFacade()
	alloc.pathsInUse["/custom/path"] = true

	_, err := f.Start(domain.ChainConfig{Type: domain.EVMGeth, DBPath: "/custom/path"})
	assert.ErrorIs(t, err, domain.ErrPathInUse)
}

func TestFacade_Start_RejectsPortInUse(t *testing.T) {
	f, alloc, _, _, _ := newTestFacade()
	alloc.portsInUse[9000] = true

	_, err := f.Start(domain.ChainConfig{Type: domain.EVMGeth, HTTPPort: 9000})
	assert.ErrorIs(t, err, domain.ErrPortInUse)
}

func TestFacade_Start_SeedsFromSnapshot(t *testing.T) {
	f, _, _, _, snaps := newTestFacade()
	snaps.byID["snap-1"] = domain.SnapshotDetails{ID: "snap-1", ChainType: domain.EVMGeth}

	_, err := f.Start(domain.ChainConfig{Type: domain.EVMGeth, SnapshotID: "snap-1"})
	require.NoError(t, err)
	assert.Contains(t, snaps.restored, "snap-1")
}

func TestFacade_Start_UnknownSnapshotFails(t *testing.T) {
	f, _, _, _, _ := newTestFacade()

	_, err := f.Start(domain.ChainConfig{Type: domain.EVMGeth, SnapshotID: "missing"})
	assert.Error(t, err)
}

func TestFacade_Stop_UnknownChainReturnsNotFound(t *testing.T) {
	f, _, _, _, _ := newTestFacade()

	err := f.Stop("does-not-exist")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFacade_Stop_RoutesToHandle(t *testing.T) {
	f, _, reg, _, _ := newTestFacade()
	reg.handles["1"] = &fakeHandle{id: "1", status: domain.StatusActive}

	require.NoError(t, f.Stop("1"))
}

func TestFacade_Alive(t *testing.T) {
	f, _, reg, _, _ := newTestFacade()
	reg.handles["1"] = &fakeHandle{id: "1", status: domain.StatusActive}
	reg.handles["2"] = &fakeHandle{id: "2", status: domain.StatusStopped}

	assert.True(t, f.Alive("1"))
	assert.False(t, f.Alive("2"))
	assert.False(t, f.Alive("missing"))
}

func TestFacade_List_ReturnsDetailsForEveryHandle(t *testing.T) {
	f, _, reg, _, _ := newTestFacade()
	reg.handles["1"] = &fakeHandle{id: "1", status: domain.StatusActive, details: domain.ChainHandle{ID: "1"}}
	reg.handles["2"] = &fakeHandle{id: "2", status: domain.StatusActive, details: domain.ChainHandle{ID: "2"}}

	list := f.List()
	assert.Len(t, list, 2)
}

func TestFacade_RemoveSnapshot_DelegatesToIndex(t *testing.T) {
	f, _, _, _, snaps := newTestFacade()
	snaps.byID["snap-1"] = domain.SnapshotDetails{ID: "snap-1"}

	require.NoError(t, f.RemoveSnapshot("snap-1"))
	assert.Contains(t, snaps.removed, "snap-1")
}

func TestFacade_WriteReadExternalData_RoutesToHandle(t *testing.T) {
	f, _, reg, _, _ := newTestFacade()
	reg.handles["1"] = &fakeHandle{id: "1", status: domain.StatusActive}

	require.NoError(t, f.WriteExternalData("1", map[string]interface{}{"a": 1}))
	data, err := f.ReadExternalData("1")
	require.NoError(t, err)
	assert.NotNil(t, data)
}
