package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

// EnsureMigrated applies the embedded goose migrations that have not run yet.
// Already-applied versions are skipped by goose, so it is safe on every start.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *logrus.Logger, dbHost string) error {
	if db == nil {
		return nil
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	start := time.Now()
	fields := logrus.Fields{
		"component": "database",
		"db_host":   dbHost,
	}

	log.WithFields(fields).WithField("status", "starting").Info("db_migration_check")

	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(log)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		log.WithFields(fields).WithFields(logrus.Fields{
			"status":        "error",
			"error_message": err.Error(),
			"duration_ms":   time.Since(start).Milliseconds(),
		}).Error("db_migration_failed")
		return fmt.Errorf("migrate: %w", err)
	}

	log.WithFields(fields).WithFields(logrus.Fields{
		"status":      "success",
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("db_migration_success")
	return nil
}
