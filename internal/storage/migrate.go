package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SchemaVersion is the migration version this build expects. Databases at
// any other version are wiped and rebuilt rather than migrated.
const SchemaVersion uint = 2

// RunMigrations brings the database at dbPath to SchemaVersion. It reports
// reset=true when an existing schema was dropped because its version did
// not match or a previous migration was left dirty.
func RunMigrations(dbPath string) (reset bool, err error) {
	err = withMigrator(dbPath, func(m *migrate.Migrate) error {
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if !dirty && version == SchemaVersion {
			return nil
		}

		slog.Warn("Schema version mismatch, dropping all data",
			"found", version,
			"dirty", dirty,
			"expected", SchemaVersion)
		if err := m.Drop(); err != nil {
			return fmt.Errorf("drop schema: %w", err)
		}
		reset = true
		return nil
	})
	if err != nil {
		return false, err
	}

	// Drop removes the version table too, so Up needs a fresh instance.
	err = withMigrator(dbPath, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("run migrations: %w", err)
		}
		return nil
	})
	return reset, err
}

// MigrateTo forces the schema to an explicit version. Only used to build
// databases in an older layout.
func MigrateTo(dbPath string, version uint) error {
	return withMigrator(dbPath, func(m *migrate.Migrate) error {
		if err := m.Migrate(version); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate to %d: %w", version, err)
		}
		return nil
	})
}

func withMigrator(dbPath string, fn func(*migrate.Migrate) error) error {
	// Separate connection so the migrator can close it freely.
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	return fn(m)
}
