package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"jobmate/ingestion-service/internal/config"
	"jobmate/ingestion-service/internal/db"
	"jobmate/ingestion-service/internal/events"
	"jobmate/ingestion-service/internal/grpcserver"
	"jobmate/ingestion-service/internal/ingest"
	"jobmate/ingestion-service/internal/logging"
	"jobmate/ingestion-service/internal/metrics"
	"jobmate/ingestion-service/internal/runner"
	"jobmate/ingestion-service/internal/scraper"
	"jobmate/ingestion-service/internal/store"
	"jobmate/ingestion-service/internal/sweep"
)

// app is the wired service shared by every command.
type app struct {
	cfg     *config.Config
	store   store.Store
	metrics *metrics.Metrics
	runner  *runner.Runner
	probe   grpcserver.Probe
	closers []func()
}

// loadConfig reads the environment and installs the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if _, err := logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp connects the configured backends. planPath overrides RUN_PLAN_PATH
// when non-empty.
func newApp(ctx context.Context, cfg *config.Config, planPath string) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New()}
	if err := a.openStore(ctx); err != nil {
		a.close()
		return nil, err
	}

	if planPath == "" {
		planPath = cfg.RunPlanPath
	}
	plan, err := config.LoadRunPlan(planPath)
	if err != nil {
		a.close()
		return nil, err
	}

	src := scraper.NewAdzunaFetcher(cfg.AdzunaAppID, cfg.AdzunaAppKey, cfg.AdzunaCountry)
	ctrl := ingest.NewController(a.store, src, cfg.BatchZone).WithMetrics(a.metrics)
	sw := sweep.New(a.store).WithMetrics(a.metrics)

	// ── Redis (optional) ──────────────────────────────────────
	if cfg.RedisURL != "" {
		log.Println("[ingestion-service] Connecting to Redis…")
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, func() { rdb.Close() })
		log.Println("[ingestion-service] Redis connected ✓")

		bus := events.NewBus(rdb, 0)
		ctrl.WithClaimer(bus).WithPublisher(bus)
		sw.WithPublisher(bus)
	} else if cfg.StrictClaim {
		log.Println("[ingestion-service] STRICT_CLAIM is set but REDIS_URL is empty — claims disabled")
	}

	a.runner = runner.New(ctrl, sw, a.store, cfg.BatchZone, plan, cfg.StrictClaim, cfg.LockFile)
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.StoreDriver {
	case config.DriverPostgres:
		log.Println("[ingestion-service] Connecting to PostgreSQL…")
		pool, err := db.NewPostgresPool(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		a.store = store.NewPostgres(pool)
		a.probe = func(ctx context.Context) error { return pool.Ping(ctx) }
		log.Println("[ingestion-service] PostgreSQL connected ✓")
	case config.DriverSQLite:
		st, err := store.OpenSQLite(ctx, a.cfg.SQLitePath)
		if err != nil {
			return err
		}
		a.store = st
		log.Printf("[ingestion-service] SQLite store at %s ✓", a.cfg.SQLitePath)
	case config.DriverMemory:
		a.store = store.NewMemory()
		log.Println("[ingestion-service] In-memory store — nothing is persisted")
	default:
		return fmt.Errorf("%w: %s", store.ErrUnknownBackend, a.cfg.StoreDriver)
	}
	st := a.store
	a.closers = append(a.closers, func() {
		if err := st.Close(); err != nil {
			log.Printf("[ingestion-service] Store close: %v", err)
		}
	})
	return nil
}

// close releases backends in reverse order of opening.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
