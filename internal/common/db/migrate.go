package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/AlibekovAA/session-auth/internal/common/constants"
	"github.com/AlibekovAA/session-auth/internal/common/db/migrations"
	"github.com/AlibekovAA/session-auth/internal/common/logger"
	"github.com/AlibekovAA/session-auth/internal/observability/metrics"
)

var _ goose.Logger = gooseLogger{}

type gooseLogger struct {
	log *logger.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) { g.log.Infof(format, v...) }
func (g gooseLogger) Fatalf(format string, v ...interface{}) { g.log.Fatalf(format, v...) }

// Migrate applies the embedded schema migrations through a database/sql
// handle borrowed from the pool's connection config.
func Migrate(ctx context.Context, log *logger.Logger, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	return migrateDB(ctx, log, sqlDB)
}

func migrateDB(ctx context.Context, log *logger.Logger, sqlDB *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DBMigrationTimeout)
	defer cancel()

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(gooseLogger{log: log})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	metrics.DBMigrationsApplied.Set(float64(version))
	log.Infof("database schema at version %d", version)

	return nil
}
