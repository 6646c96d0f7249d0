package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/dexpulse/dexpulse/internal/cache"
	"github.com/dexpulse/dexpulse/internal/config"
	"github.com/dexpulse/dexpulse/internal/domain"
	"github.com/dexpulse/dexpulse/internal/market"
	"github.com/dexpulse/dexpulse/internal/metrics"
	"github.com/dexpulse/dexpulse/internal/scan"
	"github.com/dexpulse/dexpulse/internal/store"
)

// app holds every long-lived collaborator a command needs.
type app struct {
	cfg      *config.Config
	metrics  *metrics.Registry
	registry *prometheus.Registry
	cache    cache.Cache
	client   *market.Client
	veto     *store.VetoBlacklist
	ledger   *store.PerformanceLedger
	pipeline *scan.Pipeline
}

// buildApp assembles the full object graph from configuration.
func buildApp(cfg *config.Config) (*app, error) {
	reg := metrics.NewRegistry()
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	reg.Register(promReg)

	snapshotCache := buildCache(cfg)
	client := market.NewClient(cfg.Client, snapshotCache, reg)

	ledger := store.NewPerformanceLedger(store.LedgerConfig{
		Path:       cfg.Stores.PerfHistoryPath,
		FlushDelay: cfg.Stores.FlushDelay,
		Clock:      domain.SystemClock,
		Metrics:    reg,
	})
	veto := store.NewVetoBlacklist(store.VetoConfig{
		Path:       cfg.Stores.VetoPath,
		FlushDelay: cfg.Stores.FlushDelay,
		Clock:      domain.SystemClock,
		Ledger:     ledger,
		Metrics:    reg,
	})

	orch := scan.NewOrchestrator(client, veto, reg, cfg.Pipeline.Concurrency)
	pipeline := scan.NewPipeline(scan.PipelineConfig{
		Orchestrator: orch,
		Fetcher:      client,
		Lister:       client,
		Search:       client,
		Veto:         veto,
		Ledger:       ledger,
		Streaks:      scan.NewStreakTracker(domain.SystemClock),
		Metrics:      reg,
		Majors:       cfg.Majors,
	})

	return &app{
		cfg:      cfg,
		metrics:  reg,
		registry: promReg,
		cache:    snapshotCache,
		client:   client,
		veto:     veto,
		ledger:   ledger,
		pipeline: pipeline,
	}, nil
}

// buildCache returns the redis backend when configured and reachable,
// falling back to the in-process TTL cache.
func buildCache(cfg *config.Config) cache.Cache {
	if cfg.Cache.Backend == "redis" && cfg.Cache.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB)
		if err == nil {
			log.Info().Str("addr", cfg.Cache.Redis.Addr).Msg("using redis snapshot cache")
			return rc
		}
		log.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
	}
	return cache.NewTTLCache()
}

// close flushes durable state and stops background workers.
func (a *app) close() {
	if err := a.veto.Flush(); err != nil {
		log.Warn().Err(err).Msg("veto flush on shutdown")
	}
	if err := a.ledger.Flush(); err != nil {
		log.Warn().Err(err).Msg("ledger flush on shutdown")
	}
	a.veto.Close()
	a.ledger.Close()
	if ttl, ok := a.cache.(*cache.TTLCache); ok {
		ttl.Stop()
	}
}
