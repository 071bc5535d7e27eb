// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing or malformed, Load returns an
// error and the process exits.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds all runtime configuration for the ingestion service.
type Config struct {
	Port          string
	GRPCPort      string
	StoreDriver   string
	DatabaseURL   string
	SQLitePath    string
	RedisURL      string // optional; claims and events are off without it
	AdzunaAppID   string
	AdzunaAppKey  string
	AdzunaCountry string

	ScrapeIntervalHours int    // how often the ingestion cron fires
	SweepCron           string // standard 5-field cron spec; empty disables
	BatchZone           *time.Location
	RunPlanPath         string
	LockFile            string
	StrictClaim         bool

	LogLevel  string
	LogFormat string
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	driver := strings.ToLower(envOr("STORE_DRIVER", DriverPostgres))
	switch driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be one of postgres, sqlite, memory, got %q", driver)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if driver == DriverPostgres && dbURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	interval := 6
	if s := os.Getenv("SCRAPE_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("SCRAPE_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		interval = v
	}

	tzName := envOr("BATCH_TIMEZONE", "America/New_York")
	zone, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("BATCH_TIMEZONE %q: %w", tzName, err)
	}

	strict := false
	if s := os.Getenv("STRICT_CLAIM"); s != "" {
		strict, err = strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("STRICT_CLAIM must be a boolean, got %q", s)
		}
	}

	appID := os.Getenv("ADZUNA_APP_ID")
	appKey := os.Getenv("ADZUNA_APP_KEY")
	if appKey == "" && appID != "" {
		// Missing keys are reported when a run validates its source.
		appKey, _ = AdzunaKeyFromKeyring(appID)
	}

	logFormat := strings.ToLower(envOr("LOG_FORMAT", "text"))
	if logFormat != "text" && logFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", logFormat)
	}

	return &Config{
		Port:                envOr("INGEST_PORT", "8083"),
		GRPCPort:            envOr("GRPC_PORT", "9093"),
		StoreDriver:         driver,
		DatabaseURL:         dbURL,
		SQLitePath:          envOr("SQLITE_PATH", "ingestion.db"),
		RedisURL:            os.Getenv("REDIS_URL"),
		AdzunaAppID:         appID,
		AdzunaAppKey:        appKey,
		AdzunaCountry:       envOr("ADZUNA_COUNTRY", "us"),
		ScrapeIntervalHours: interval,
		SweepCron:           envOr("SWEEP_CRON", "30 3 * * *"),
		BatchZone:           zone,
		RunPlanPath:         os.Getenv("RUN_PLAN_PATH"),
		LockFile:            envOr("LOCK_FILE", os.TempDir()+"/jobmate-ingestion.lock"),
		StrictClaim:         strict,
		LogLevel:            envOr("LOG_LEVEL", "info"),
		LogFormat:           logFormat,
	}, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
