// Package app wires the Chain Manager's concrete adapters into the
// Chain Facade, following the teacher's internal/app DI container
// shape: a single App struct assembled once at boot and threaded
// through the CLI layer.
package app

import (
	"log/slog"

	"github.com/chaind/chain-manager/internal/adapters/allocator"
	"github.com/chaind/chain-manager/internal/adapters/notify"
	"github.com/chaind/chain-manager/internal/adapters/registry"
	"github.com/chaind/chain-manager/internal/adapters/snapshot"
	"github.com/chaind/chain-manager/internal/config"
	"github.com/chaind/chain-manager/internal/logging"
	"github.com/chaind/chain-manager/internal/metrics"
	"github.com/chaind/chain-manager/internal/usecase"
	"github.com/chaind/chain-manager/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
)

// App is the process-wide container: every command in internal/cli
// reaches the running system only through Facade and Bus.
type App struct {
	Config  *config.Runtime
	Log     *slog.Logger
	Metrics *metrics.Registry

	Registry   *registry.Registry
	Bus        *notify.Bus
	Supervisor *worker.Supervisor
	Snapshots  *snapshot.Manager

	Facade *usecase.Facade

	// PromGatherer exposes the metrics registry for cmd/chaind's
	// optional /metrics HTTP listener.
	PromGatherer prometheus.Gatherer
}

// Close releases the App's owned resources (currently just the
// snapshot index's bbolt handle).
func (a *App) Close() error {
	return a.Snapshots.Close()
}

// New builds a fully wired App from rt, the way InitApp's hand-written
// wire_gen.go equivalent does; New is the single source of truth both
// wire_gen.go and tests call into.
func New(rt *config.Runtime) (*App, error) {
	log := logging.NewLogger(rt)
	promReg := prometheus.NewRegistry()
	metricsReg := metrics.New(promReg)

	reg := registry.New()
	bus := notify.New(notify.DefaultBufferSize, metricsReg)
	alloc := allocator.New(reg, rt)

	snaps, err := snapshot.Open(rt.SnapshotDBPath, rt.SnapshotBasePath, log)
	if err != nil {
		return nil, err
	}

	sup := worker.NewSupervisor(reg, log)
	adapters := NewAdapterFactory(rt)
	supPort := NewSupervisorPort(sup, snaps, bus, rt, metricsReg, log)
	regPort := NewRegistryPort(reg)

	facade := usecase.NewFacade(alloc, regPort, supPort, adapters, snaps, rt.BasePath)

	return &App{
		Config:       rt,
		Log:          log,
		Metrics:      metricsReg,
		Registry:     reg,
		Bus:          bus,
		Supervisor:   sup,
		Snapshots:    snaps,
		Facade:       facade,
		PromGatherer: promReg,
	}, nil
}
