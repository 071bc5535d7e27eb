// jobmate-ingestion-service
//
// Fetches job postings from upstream job boards once per batch day, resolves
// exact and near duplicates against the canonical store, and commits the
// survivors in bounded chunks. A periodic sweep drains the staging collection
// into the canonical one and prunes duplicates that slipped through.
//
// Commands:
//   - serve: HTTP API, gRPC health and the cron scheduler
//   - run: one ingestion run, summary printed as JSON
//   - sweep: one migration sweep, summary printed as JSON
//   - migrate: apply PostgreSQL schema migrations
//   - secrets: store the Adzuna key in the OS keychain
package main

import (
	"log"
	"os"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[ingestion-service] .env: %v", err)
	}

	root := &cobra.Command{
		Use:           "ingestion-service",
		Short:         "Job posting ingestion and de-duplication",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCMD(), runCMD(), sweepCMD(), migrateCMD(), secretsCMD())

	if err := root.Execute(); err != nil {
		log.Printf("[ingestion-service] Fatal: %v", err)
		os.Exit(1)
	}
}
