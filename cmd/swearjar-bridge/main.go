package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"swearjar/internal/modkit"
	"swearjar/internal/modkit/module"
	"swearjar/internal/platform/config"
	"swearjar/internal/platform/logger"
	"swearjar/internal/platform/store"

	bridgemod "swearjar/internal/services/bridge/module"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	root := config.New()
	dbCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         dbCfg.MustString("DBURL_BRIDGE"),
			MaxConns:    int32(dbCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: dbCfg.MayInt("SLOW_MS", 500),
			LogSQL:      dbCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	var (
		fResource = flag.String("resource", "tenders", "plural resource kind to synchronize")
		fMode     = flag.String("mode", "bulk", "terminal step: bulk or dispatch")
		fWorkers  = flag.Int("workers", 4, "number of concurrent worker loops")
		fClients  = flag.Int("clients", 4, "number of API client leases in the pool")
		fBaseURL  = flag.String("base_url", "", "procurement API base URL (overrides CORE_BRIDGE_BASE_URL)")
	)
	flag.Parse()

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		Log: *l,
	}

	mustSetEnv("CORE_BRIDGE_RESOURCE", *fResource)
	mustSetEnv("CORE_BRIDGE_MODE", *fMode)
	mustSetEnv("CORE_BRIDGE_WORKERS", fmt.Sprintf("%d", *fWorkers))
	mustSetEnv("CORE_BRIDGE_CLIENTS", fmt.Sprintf("%d", *fClients))
	mustSetEnv("CORE_BRIDGE_BASE_URL", *fBaseURL)

	mod := bridgemod.New(deps)
	module.Register(mod.Name(), mod.Ports())

	ports := module.MustPortsOf[bridgemod.Ports](mod)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := ports.Worker.Run(ctx); err != nil && err != context.Canceled {
		l.Fatal().Err(err).Msg("bridge worker failed")
	}
}
