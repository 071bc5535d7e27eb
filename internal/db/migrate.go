package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"jobmate/ingestion-service/internal/store"
)

// MigrateOptions selects the migration source and how far to go.
type MigrateOptions struct {
	// Dir is a golang-migrate source URL such as file://migrations. Empty
	// means the migrations embedded in the binary.
	Dir       string
	Direction string // up | down
	Steps     int    // 0 = all
}

// Migrate applies PostgreSQL migrations to databaseURL. Running up when the
// schema is current is not an error.
func Migrate(databaseURL string, opts MigrateOptions) error {
	dsn := pgx5URL(databaseURL)

	var (
		m   *migrate.Migrate
		err error
	)
	if opts.Dir == "" {
		src, serr := iofs.New(store.Migrations, store.MigrationsDir)
		if serr != nil {
			return fmt.Errorf("iofs.New: %w", serr)
		}
		m, err = migrate.NewWithSourceInstance("iofs", src, dsn)
	} else {
		m, err = migrate.New(opts.Dir, dsn)
	}
	if err != nil {
		return fmt.Errorf("migrate.New: %w", err)
	}
	defer m.Close()

	switch opts.Direction {
	case "", "up":
		if opts.Steps > 0 {
			err = m.Steps(opts.Steps)
		} else {
			err = m.Up()
		}
	case "down":
		if opts.Steps > 0 {
			err = m.Steps(-opts.Steps)
		} else {
			err = m.Down()
		}
	default:
		return fmt.Errorf("unknown direction: %s", opts.Direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", opts.Direction, err)
	}
	return nil
}

// pgx5URL rewrites a postgres:// URL to the scheme registered by the
// golang-migrate pgx/v5 driver.
func pgx5URL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(databaseURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, scheme)
		}
	}
	return databaseURL
}
