package database

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
)

const (
	createMigrationsTable = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	migrationApplied = `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`
	recordMigration  = `INSERT INTO schema_migrations (version) VALUES ($1)`
)

// RunMigrations applies the *.up.sql files at the root of migrations in
// lexical order. A file and its schema_migrations row commit together, so a
// failed file leaves no trace and is retried on the next start.
func RunMigrations(ctx context.Context, db TxBeginner, migrations fs.FS, logger *slog.Logger) error {
	if _, err := db.Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	// fs.Glob returns names in lexical order.
	versions, err := fs.Glob(migrations, "*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	for _, version := range versions {
		var done bool
		if err := db.QueryRow(ctx, migrationApplied, version).Scan(&done); err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if done {
			logger.Debug("migration already applied", slog.String("version", version))
			continue
		}
		if err := applyMigration(ctx, db, migrations, version); err != nil {
			return fmt.Errorf("migration %s: %w", version, err)
		}
		logger.Info("migration applied", slog.String("version", version))
	}
	return nil
}

func applyMigration(ctx context.Context, db TxBeginner, migrations fs.FS, version string) error {
	script, err := fs.ReadFile(migrations, version)
	if err != nil {
		return err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.Exec(ctx, string(script)); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("execute: %w", err)
	}
	if _, err := tx.Exec(ctx, recordMigration, version); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("record: %w", err)
	}
	return tx.Commit(ctx)
}
