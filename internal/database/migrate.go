package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var Migrations embed.FS

const migrationsDir = "migrations"

// goose entry points are seams so tests can run without a database.
var (
	gooseUp     = goose.UpContext
	gooseDown   = goose.DownContext
	gooseStatus = goose.StatusContext
)

func prepare() error {
	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return nil
}

// OpenSQL opens a plain database/sql handle on the pgx driver for migrations.
func OpenSQL(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open pgx: %w", err)
	}
	return db, nil
}

// MigrateUp applies every pending migration.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	if err := prepare(); err != nil {
		return err
	}
	return gooseUp(ctx, db, migrationsDir)
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	if err := prepare(); err != nil {
		return err
	}
	return gooseDown(ctx, db, migrationsDir)
}

// MigrationStatus logs the applied/pending state of each migration.
func MigrationStatus(ctx context.Context, db *sql.DB) error {
	if err := prepare(); err != nil {
		return err
	}
	return gooseStatus(ctx, db, migrationsDir)
}
