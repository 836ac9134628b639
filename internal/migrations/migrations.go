// Package migrations embeds the schema and applies it with golang-migrate
// against an existing connection pool.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/JaimeStill/sightline/pkg/database"
)

//go:embed sql/*.sql
var files embed.FS

// Open returns a migrator bound to db. The release func returns any
// dedicated connection to the pool; it never closes db itself.
func Open(ctx context.Context, db *sql.DB, driver string) (*migrate.Migrate, func() error, error) {
	source, err := iofs.New(files, "sql")
	if err != nil {
		return nil, nil, fmt.Errorf("create migration source: %w", err)
	}

	var (
		target  migratedb.Driver
		release = func() error { return nil }
	)

	switch driver {
	case database.DriverSQLite:
		target, err = sqlite.WithInstance(db, &sqlite.Config{})
	case database.DriverPostgres:
		conn, connErr := db.Conn(ctx)
		if connErr != nil {
			return nil, nil, fmt.Errorf("acquire migration connection: %w", connErr)
		}
		release = conn.Close
		target, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
	default:
		err = fmt.Errorf("unsupported driver: %q", driver)
	}
	if err != nil {
		source.Close()
		release()
		return nil, nil, fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, target)
	if err != nil {
		source.Close()
		release()
		return nil, nil, fmt.Errorf("create migrator: %w", err)
	}

	return m, func() error {
		source.Close()
		return release()
	}, nil
}

// Up applies every pending migration. It satisfies database.Initializer.
func Up(ctx context.Context, db *sql.DB, driver string) error {
	m, release, err := Open(ctx, db, driver)
	if err != nil {
		return err
	}
	defer release()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
