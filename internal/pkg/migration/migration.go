// Package migration applies the SQL schema embedded in the binary.
package migration

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// New builds a migrator for the postgres database at dsn.
func New(dsn string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	migrator, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return nil, fmt.Errorf("init migrator failed: %w", err)
	}
	return migrator, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func Up(dsn string) error {
	return run(dsn, "up", func(m *migrate.Migrate) error { return m.Up() })
}

// Down rolls back the given number of migrations, or all of them when steps
// is not positive.
func Down(dsn string, steps int) error {
	return run(dsn, "down", func(m *migrate.Migrate) error {
		if steps > 0 {
			return m.Steps(-steps)
		}
		return m.Down()
	})
}

func run(dsn, direction string, fn func(m *migrate.Migrate) error) error {
	migrator, err := New(dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := fn(migrator); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("Schema already up to date", "direction", direction)
			return nil
		}
		return fmt.Errorf("migrate %s failed: %w", direction, err)
	}

	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}
	slog.Info("Migrations applied", "direction", direction, "version", version, "dirty", dirty)
	return nil
}
