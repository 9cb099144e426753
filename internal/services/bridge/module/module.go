// Package module wires up the Bridge service as a modkit.Module
package module

import (
	"github.com/google/uuid"

	"swearjar/internal/adapters/ingest/procurement"
	"swearjar/internal/modkit"
	"swearjar/internal/modkit/httpkit"
	modreg "swearjar/internal/modkit/module"

	"swearjar/internal/services/bridge/dispatch"
	"swearjar/internal/services/bridge/domain"
	"swearjar/internal/services/bridge/fetch"
	"swearjar/internal/services/bridge/guardrails"
	"swearjar/internal/services/bridge/leases"
	"swearjar/internal/services/bridge/queue"
	"swearjar/internal/services/bridge/reconcile"
	"swearjar/internal/services/bridge/repo"
	"swearjar/internal/services/bridge/service"
)

// Ports exported by the Bridge module
type Ports struct {
	Worker domain.WorkerPort

	// Registrar installs per-type handlers; non-nil only in dispatch mode
	Registrar domain.RegistrarPort
}

// Module implements modkit.Module for Bridge
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs and wires the Bridge module using deps.Cfg. Every worker
// shares one client pool, one ready queue (filled by an external feed, out
// of scope), and one retry queue (drained by an external merger, out of
// scope per spec section 4.6's commentary)
func New(deps modkit.Deps) *Module {
	cfg := FromConfig(deps.Cfg)

	pool := queue.NewClientPool(cfg.Clients)
	for i := 0; i < cfg.Clients; i++ {
		client, err := procurement.NewClient(procurement.Options{BaseURL: cfg.BaseURL, Resource: cfg.Resource})
		if err != nil {
			deps.Log.Error().Err(err).Msg("bridge: failed to construct a procurement client, skipping it")
			continue
		}
		pool.Put(&domain.Lease{ID: uuid.NewString(), Transport: client})
	}

	lm := leases.NewManager(pool, leases.NewInfoStore())

	ready := queue.NewPriorityQueue[domain.QueueItem](0)
	retryQueue := queue.NewPriorityQueue[domain.QueueItem](0)
	retryPolicy := guardrails.NewRetryPolicy(retryQueue, cfg.RetriesCount, cfg.RetryDefaultTimeout, cfg.Resource)

	fetcher := fetch.NewFetcher(lm, retryPolicy, cfg.ClientIncStepTimeout, cfg.ClientDecStepTimeout, cfg.DropThresholdClientCookies, cfg.Resource)
	timeshift := guardrails.NewTimeshift(cfg.Resource, cfg.Timezone)

	var strategy service.Strategy
	var store domain.StorageRepo
	var registrar domain.RegistrarPort

	switch cfg.Mode {
	case domain.ModeDispatch:
		registry := dispatch.NewRegistry()
		dispatcher := dispatch.NewDispatcher(registry, retryPolicy, cfg.Resource)
		strategy = dispatch.NewStrategy(dispatcher)
		registrar = registry
	default:
		store = repo.NewPG(cfg.Resource).Bind(deps.PG)
		bulk := reconcile.NewBulk(store, retryPolicy, cfg.ResourceSingularTitle(), cfg.ResourceSingular(), cfg.BulkSaveLimit, cfg.BulkSaveInterval)
		strategy = reconcile.NewStrategy(bulk)
	}

	workers := make([]*service.Worker, 0, cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		workers = append(workers, service.NewWorker(lm, fetcher, ready, strategy, store, retryPolicy, timeshift, cfg))
	}

	m := &Module{deps: deps}
	m.ports = Ports{Worker: service.NewRunner(workers), Registrar: registrar}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "bridge" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Prefix returns the module config prefix (none)
func (m *Module) Prefix() string { return "" }

// MountRoutes is a no-op: Bridge has no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}

// Register convenience: allow others to resolve our ports via registry
func Register(deps modkit.Deps) {
	modreg.Register("bridge", New(deps))
}
