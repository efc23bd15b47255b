package store

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies all pending embedded migrations.
func Migrate(pool *pgxpool.Pool, logger *zap.Logger) error {
	m, closeDB, err := newMigrator(pool)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("database schema is up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("database migrations applied", zap.Uint("version", version))
	return nil
}

// MigrateDown rolls back steps migrations.
func MigrateDown(pool *pgxpool.Pool, steps int, logger *zap.Logger) error {
	m, closeDB, err := newMigrator(pool)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("roll back %d migrations: %w", steps, err)
	}
	logger.Info("database migrations rolled back", zap.Int("steps", steps))
	return nil
}

func newMigrator(pool *pgxpool.Pool) (*migrate.Migrate, func(), error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("initialize migrations: %w", err)
	}
	return m, func() { db.Close() }, nil
}
