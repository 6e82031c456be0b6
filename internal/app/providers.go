package app

import (
	"fmt"
	"log/slog"

	"github.com/chaind/chain-manager/internal/adapters/accounts"
	"github.com/chaind/chain-manager/internal/adapters/evm"
	"github.com/chaind/chain-manager/internal/adapters/registry"
	"github.com/chaind/chain-manager/internal/adapters/snapshot"
	"github.com/chaind/chain-manager/internal/config"
	"github.com/chaind/chain-manager/internal/domain"
	"github.com/chaind/chain-manager/internal/metrics"
	"github.com/chaind/chain-manager/internal/usecase"
	"github.com/chaind/chain-manager/internal/worker"
)

// adapterFactory implements usecase.AdapterFactory, constructing a
// fresh EVM Adapter per chain type from the resolved runtime config,
// per spec §4.3's polymorphism requirement.
type adapterFactory struct {
	rt *config.Runtime
}

// NewAdapterFactory wires the EVM Adapter selection the Facade needs,
// grounded on the teacher's per-concern adapter-factory providers in
// internal/adapters/providers.go.
func NewAdapterFactory(rt *config.Runtime) usecase.AdapterFactory {
	return &adapterFactory{rt: rt}
}

func (f *adapterFactory) For(t domain.EVMType) (evm.Adapter, error) {
	switch t {
	case domain.EVMGeth:
		return &evm.GethAdapter{
			Executable:   f.rt.GethExecutable,
			PasswordFile: f.rt.GethPasswordFile,
			FrontURL:     f.rt.FrontURL,
			Provisioner: &accounts.GethProvisioner{
				GethExecutable: f.rt.GethExecutable,
				PasswordFile:   f.rt.GethPasswordFile,
			},
		}, nil
	case domain.EVMGanache:
		return &evm.GanacheAdapter{
			WrapperScript: f.rt.GanacheWrapperScript,
			FrontURL:      f.rt.FrontURL,
			Provisioner:   &accounts.GanacheProvisioner{},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupported, t)
	}
}

// registryPort adapts *registry.Registry to usecase.Registry. The two
// packages' Handle interfaces have different method sets (registry's
// is the narrow view the Allocator/Supervisor need; usecase's is the
// full typed command surface the Facade routes through), so a stored
// registry.Handle is re-asserted to usecase.Handle here rather than
// returned directly — both are satisfied structurally by the same
// concrete *worker.Worker.
type registryPort struct {
	reg *registry.Registry
}

// NewRegistryPort wraps reg for the Facade.
func NewRegistryPort(reg *registry.Registry) usecase.Registry {
	return &registryPort{reg: reg}
}

func (p *registryPort) Lookup(id string) (usecase.Handle, bool) {
	h, ok := p.reg.Lookup(id)
	if !ok {
		return nil, false
	}
	uh, ok := h.(usecase.Handle)
	if !ok {
		return nil, false
	}
	return uh, true
}

func (p *registryPort) List() []usecase.Handle {
	handles := p.reg.List()
	out := make([]usecase.Handle, 0, len(handles))
	for _, h := range handles {
		if uh, ok := h.(usecase.Handle); ok {
			out = append(out, uh)
		}
	}
	return out
}

// supervisorPort adapts *worker.Supervisor to usecase.Supervisor by
// constructing the Worker itself, since worker.New needs the shared
// dependencies (snapshot manager, bus, runtime, metrics, logger) that
// usecase.Supervisor's narrow port deliberately hides from the
// Facade.
type supervisorPort struct {
	sup     *worker.Supervisor
	snaps   *snapshot.Manager
	bus     worker.Bus
	rt      *config.Runtime
	metrics *metrics.Registry
	log     *slog.Logger
}

// NewSupervisorPort wires the Chain Supervisor behind the Facade's
// narrow StartChain port.
func NewSupervisorPort(sup *worker.Supervisor, snaps *snapshot.Manager, bus worker.Bus, rt *config.Runtime, m *metrics.Registry, log *slog.Logger) usecase.Supervisor {
	return &supervisorPort{sup: sup, snaps: snaps, bus: bus, rt: rt, metrics: m, log: log}
}

func (p *supervisorPort) StartChain(cfg domain.ChainConfig, adapter evm.Adapter) error {
	w := worker.New(cfg, adapter, p.snaps, p.bus, p.rt, p.metrics, p.log)
	p.sup.Spawn(w)
	return nil
}
