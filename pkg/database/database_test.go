package database_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/sightline/pkg/database"
	"github.com/JaimeStill/sightline/pkg/lifecycle"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sqliteConfig(t *testing.T) *database.Config {
	t.Helper()
	cfg := &database.Config{Path: filepath.Join(t.TempDir(), "test.db")}
	require.NoError(t, cfg.Finalize(nil))
	return cfg
}

func TestNewReturnsSystem(t *testing.T) {
	sys, err := database.New(sqliteConfig(t), discardLogger())
	require.NoError(t, err)
	require.NotNil(t, sys)

	conn := sys.Connection()
	require.NotNil(t, conn)
	assert.Equal(t, database.DriverSQLite, sys.Driver())

	// sql.Open is lazy, so Close succeeds without touching the file
	assert.NoError(t, conn.Close())
}

func TestNewSetsPoolParams(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.MaxOpenConns = 3

	sys, err := database.New(cfg, discardLogger())
	require.NoError(t, err)

	conn := sys.Connection()
	defer conn.Close()

	assert.Equal(t, 3, conn.Stats().MaxOpenConnections)
}

func TestStartRunsInitializers(t *testing.T) {
	sys, err := database.New(sqliteConfig(t), discardLogger())
	require.NoError(t, err)

	lc := lifecycle.New()
	var calls []string

	err = sys.Start(lc,
		func(ctx context.Context, db *sql.DB, driver string) error {
			calls = append(calls, "schema:"+driver)
			_, err := db.ExecContext(ctx, "CREATE TABLE probe (id TEXT PRIMARY KEY)")
			return err
		},
		func(ctx context.Context, db *sql.DB, _ string) error {
			calls = append(calls, "seed")
			_, err := db.ExecContext(ctx, "INSERT INTO probe (id) VALUES (?)", "a")
			return err
		},
	)
	require.NoError(t, err)
	require.NoError(t, lc.WaitForStartup())
	assert.Equal(t, []string{"schema:sqlite", "seed"}, calls)

	var count int
	require.NoError(t, sys.Connection().QueryRow("SELECT COUNT(*) FROM probe").Scan(&count))
	assert.Equal(t, 1, count)

	require.NoError(t, lc.Shutdown(5*time.Second))
}

func TestStartInitializerFailure(t *testing.T) {
	sys, err := database.New(sqliteConfig(t), discardLogger())
	require.NoError(t, err)

	boom := errors.New("bad migration")
	lc := lifecycle.New()
	require.NoError(t, sys.Start(lc, func(context.Context, *sql.DB, string) error {
		return boom
	}))

	err = lc.WaitForStartup()
	assert.ErrorIs(t, err, boom)
	assert.False(t, lc.Ready())

	require.NoError(t, lc.Shutdown(5*time.Second))
}

func TestPlaceholder(t *testing.T) {
	tests := []struct {
		driver string
		n      int
		want   string
	}{
		{database.DriverSQLite, 1, "?"},
		{database.DriverSQLite, 6, "?"},
		{database.DriverPostgres, 1, "$1"},
		{database.DriverPostgres, 6, "$6"},
	}

	for _, tt := range tests {
		t.Run(tt.driver+"/"+tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, database.Placeholder(tt.driver, tt.n))
		})
	}
}

func TestErrNotReady(t *testing.T) {
	assert.True(t, errors.Is(database.ErrNotReady, database.ErrNotReady))
	assert.Equal(t, "database not ready", database.ErrNotReady.Error())
}
