package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"jobmate/ingestion-service/internal/api"
	"jobmate/ingestion-service/internal/db"
	"jobmate/ingestion-service/internal/grpcserver"
	"jobmate/ingestion-service/internal/scheduler"
)

func serveCMD() *cobra.Command {
	var planPath string
	var autoMigrate bool
	var noCron bool

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, gRPC health service and cron scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if autoMigrate && cfg.DatabaseURL != "" {
				log.Println("[ingestion-service] Applying migrations…")
				if err := db.Migrate(cfg.DatabaseURL, db.MigrateOptions{}); err != nil {
					return err
				}
			}

			a, err := newApp(ctx, cfg, planPath)
			if err != nil {
				return err
			}
			defer a.close()
			return serveAll(ctx, a, !noCron)
		},
	}
	serve.Flags().StringVar(&planPath, "plan", "", "run plan YAML (default RUN_PLAN_PATH)")
	serve.Flags().BoolVar(&autoMigrate, "migrate", false, "apply PostgreSQL migrations before serving")
	serve.Flags().BoolVar(&noCron, "no-cron", false, "serve the API without scheduled runs")
	return serve
}

func serveAll(ctx context.Context, a *app, withCron bool) error {
	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	api.NewHandler(a.runner, a.metrics.Handler(), version).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", a.cfg.Port),
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// POST /runs blocks for the whole run.
		WriteTimeout: 30 * time.Minute,
	}

	// ── gRPC health ──────────────────────────────────────────────────────────
	health := grpcserver.NewServer(a.probe)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", a.cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	// ── Scheduler ────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if withCron {
		// Cron-triggered runs are not cut short by shutdown signals.
		sched = scheduler.New(a.runner, a.cfg.ScrapeIntervalHours, a.cfg.SweepCron)
		if err := sched.Start(context.WithoutCancel(ctx)); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[ingestion-service] v%s listening on :%s", version, a.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Printf("[ingestion-service] gRPC health on :%s", a.cfg.GRPCPort)
		return health.Serve(lis)
	})
	g.Go(func() error {
		health.Watch(gctx, 30*time.Second)
		return nil
	})

	// ── Graceful shutdown ────────────────────────────────────────────────────
	g.Go(func() error {
		<-gctx.Done()
		log.Println("[ingestion-service] Shutting down…")
		if sched != nil {
			sched.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[ingestion-service] Shutdown error: %v", err)
		}
		health.Stop()
		return nil
	})

	err = g.Wait()
	log.Println("[ingestion-service] Stopped.")
	return err
}
