package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jobmate/ingestion-service/internal/runner"
)

func runCMD() *cobra.Command {
	var planPath string
	var req runner.Request

	run := &cobra.Command{
		Use:   "run",
		Short: "Run one ingestion batch and print its summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, planPath)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.runner.Ingest(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	run.Flags().StringVar(&planPath, "plan", "", "run plan YAML (default RUN_PLAN_PATH)")
	run.Flags().BoolVar(&req.DryRun, "dry-run", false, "resolve everything, write nothing")
	run.Flags().BoolVar(&req.Force, "force", false, "run even if today's batch already completed")
	return run
}

func sweepCMD() *cobra.Command {
	var planPath string
	var dryRun bool

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Reconcile canonical postings and drain the staging collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, planPath)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.runner.Sweep(ctx, dryRun)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	sweep.Flags().StringVar(&planPath, "plan", "", "run plan YAML for threshold and chunk size")
	sweep.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change, write nothing")
	return sweep
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
