package store

import "embed"

// Migrations holds the PostgreSQL schema as golang-migrate files.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations.
const MigrationsDir = "migrations"
