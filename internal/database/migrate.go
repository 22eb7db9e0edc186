package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies pending schema migrations for the gateway's dialect.
//
// SQLite migrations run over the gateway's own connection so in-memory
// databases see the schema; postgres migrations use a short-lived
// connection of their own built from opts.URL.
func Migrate(g *Gateway, opts Options) error {
	source, err := iofs.New(migrationsFS, "migrations/"+g.dialect)
	if err != nil {
		return fmt.Errorf("failed to load %s migrations: %w", g.dialect, err)
	}

	var m *migrate.Migrate
	switch g.dialect {
	case DialectSQLite:
		sqlDB, err := g.db.DB()
		if err != nil {
			return fmt.Errorf("failed to access connection pool: %w", err)
		}
		driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
		if err != nil {
			return fmt.Errorf("failed to prepare sqlite migrations: %w", err)
		}
		// The driver is never closed: closing it would close the shared connection.
		m, err = migrate.NewWithInstance("iofs", source, "sqlite3", driver)
		if err != nil {
			return fmt.Errorf("failed to initialise migrations: %w", err)
		}
	case DialectPostgres:
		m, err = migrate.NewWithSourceInstance("iofs", source, opts.URL)
		if err != nil {
			return fmt.Errorf("failed to initialise migrations: %w", err)
		}
		defer m.Close()
	default:
		return fmt.Errorf("unsupported database driver %q", g.dialect)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
