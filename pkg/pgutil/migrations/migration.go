// Package migrations holds schema helpers shared by the bun migrations and the
// migrate command.
package migrations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// Usage describes the migrate command line.
const Usage = `Usage:
  migrate [-config config.yaml] <command>

Commands:
  init    creates the migration bookkeeping tables
  up      applies every pending migration
  down    rolls back the last migration group
  status  prints applied and pending migrations
`

// ErrNoCommand is returned by RunMigrations when no command is given.
var ErrNoCommand = errors.New("no migration command provided")

// CreateSchema creates the tables of models when they do not exist yet.
func CreateSchema(ctx context.Context, db bun.IDB, models ...any) error {
	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}
	return nil
}

// DropTables drops the tables of models, cascading to dependent objects.
func DropTables(ctx context.Context, db bun.IDB, models ...any) error {
	for _, model := range models {
		if _, err := db.NewDropTable().
			Model(model).
			IfExists().
			Cascade().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", model, err)
		}
	}
	return nil
}

// CreateModelIndexes creates one index per column on the table of model,
// named idx_<table>_<column>.
func CreateModelIndexes(ctx context.Context, db bun.IDB, model any, columns ...string) error {
	return createModelIndexes(ctx, db, model, false, columns...)
}

// CreateModelUniqueIndexes is CreateModelIndexes with UNIQUE indexes.
func CreateModelUniqueIndexes(ctx context.Context, db bun.IDB, model any, columns ...string) error {
	return createModelIndexes(ctx, db, model, true, columns...)
}

func createModelIndexes(ctx context.Context, db bun.IDB, model any, unique bool, columns ...string) error {
	for _, column := range columns {
		indexName, err := modelIndexName(db, model, column)
		if err != nil {
			return err
		}
		q := db.NewCreateIndex().
			Model(model).
			Index(indexName).
			IfNotExists()
		for _, c := range strings.Split(column, ",") {
			q = q.Column(strings.TrimSpace(c))
		}
		if unique {
			q = q.Unique()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create index %s: %w", indexName, err)
		}
	}
	return nil
}

// DropModelIndexes drops indexes created by CreateModelIndexes.
func DropModelIndexes(ctx context.Context, db bun.IDB, model any, columns ...string) error {
	for _, column := range columns {
		indexName, err := modelIndexName(db, model, column)
		if err != nil {
			return err
		}
		if _, err := db.NewDropIndex().
			Model(model).
			Index(indexName).
			IfExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop index %s: %w", indexName, err)
		}
	}
	return nil
}

// modelIndexName builds idx_<table>_<column>; composite columns "a, b" become a_b.
func modelIndexName(db bun.IDB, model any, column string) (string, error) {
	if model == nil {
		return "", fmt.Errorf("model cannot be nil")
	}
	tableName := db.NewCreateIndex().Model(model).GetTableName()
	if tableName == "" {
		return "", fmt.Errorf("failed to resolve table name for model %T", model)
	}

	indexTableName := strings.NewReplacer(`"`, "", ".", "_").Replace(tableName)
	indexColumn := strings.NewReplacer(" ", "", ",", "_").Replace(column)
	return fmt.Sprintf("idx_%s_%s", indexTableName, indexColumn), nil
}

// RunMigrations executes one migrate command against migrator.
func RunMigrations(ctx context.Context, migrator *migrate.Migrator, logger *zap.Logger, args ...string) error {
	if len(args) == 0 {
		return ErrNoCommand
	}

	switch args[0] {
	case "init":
		if err := migrator.Init(ctx); err != nil {
			return fmt.Errorf("failed to init migrations: %w", err)
		}
		logger.Info("Migration tables created")
		return nil

	case "up":
		return withLock(ctx, migrator, logger, func() error {
			group, err := migrator.Migrate(ctx)
			if err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			if group.IsZero() {
				logger.Info("No new migrations to run (database is up to date)")
				return nil
			}
			logger.Info("Migrated", zap.String("group", group.String()))
			return nil
		})

	case "down":
		return withLock(ctx, migrator, logger, func() error {
			group, err := migrator.Rollback(ctx)
			if err != nil {
				return fmt.Errorf("failed to roll back: %w", err)
			}
			if group.IsZero() {
				logger.Info("No migrations to roll back")
				return nil
			}
			logger.Info("Rolled back", zap.String("group", group.String()))
			return nil
		})

	case "status":
		ms, err := migrator.MigrationsWithStatus(ctx)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}
		logger.Info("Migration status",
			zap.String("migrations", ms.String()),
			zap.String("unapplied", ms.Unapplied().String()),
			zap.String("last_group", ms.LastGroup().String()))
		return nil

	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func withLock(ctx context.Context, migrator *migrate.Migrator, logger *zap.Logger, fn func() error) error {
	if err := migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		if err := migrator.Unlock(ctx); err != nil {
			logger.Error("Failed to release migration lock", zap.Error(err))
		}
	}()
	return fn()
}
