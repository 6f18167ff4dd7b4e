package sqldb

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed all:migrations
var migrationsFS embed.FS

// Migrate brings the schema up to date. The migrate instance is not closed,
// since that would close db.
func Migrate(db *sqlx.DB, driver string, logger *slog.Logger) error {
	var (
		target database.Driver
		dir    string
		err    error
	)
	switch driver {
	case DriverSQLite:
		target, err = sqlitemigrate.WithInstance(db.DB, &sqlitemigrate.Config{})
		dir = "migrations/sqlite"
	case DriverPostgres:
		target, err = pgxmigrate.WithInstance(db.DB, &pgxmigrate.Config{})
		dir = "migrations/postgres"
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, target)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration version: %w", err)
	}
	if dirty {
		logger.Warn("database is dirty, forcing version", slog.Uint64("version", uint64(version)))
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("database schema up to date")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}

	newVersion, _, _ := m.Version()
	logger.Info("database migrated", slog.Uint64("version", uint64(newVersion)))
	return nil
}
