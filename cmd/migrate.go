package main

import (
	"errors"
	"log"
	"os"

	"github.com/spf13/cobra"

	"jobmate/ingestion-service/internal/db"
)

func migrateCMD() *cobra.Command {
	var opts db.MigrateOptions

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Run PostgreSQL migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := os.Getenv("DATABASE_URL")
			if dsn == "" {
				return errors.New("DATABASE_URL is required")
			}
			if err := db.Migrate(dsn, opts); err != nil {
				return err
			}
			log.Printf("[ingestion-service] Migrations %s complete ✓", opts.Direction)
			return nil
		},
	}
	migrate.Flags().StringVar(&opts.Dir, "dir", "", "migrations source, e.g. file://internal/store/migrations (default embedded)")
	migrate.Flags().StringVar(&opts.Direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&opts.Steps, "steps", 0, "number of steps (0 = all)")
	return migrate
}
