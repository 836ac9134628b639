package database_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/sightline/pkg/database"
)

var testEnv = &database.Env{
	Driver:       "TEST_DB_DRIVER",
	Path:         "TEST_DB_PATH",
	Host:         "TEST_DB_HOST",
	Port:         "TEST_DB_PORT",
	Name:         "TEST_DB_NAME",
	User:         "TEST_DB_USER",
	MaxOpenConns: "TEST_DB_MAX_OPEN_CONNS",
	ConnTimeout:  "TEST_DB_CONN_TIMEOUT",
}

func TestFinalizeDefaults(t *testing.T) {
	cfg := &database.Config{}
	require.NoError(t, cfg.Finalize(nil))

	assert.Equal(t, database.DriverSQLite, cfg.Driver)
	assert.Equal(t, "database.db", cfg.Path)
	assert.Equal(t, 1, cfg.MaxOpenConns)
	assert.Equal(t, 1, cfg.MaxIdleConns)
	assert.Equal(t, 15*time.Minute, cfg.ConnMaxLifetimeDuration())
	assert.Equal(t, 5*time.Second, cfg.ConnTimeoutDuration())
}

func TestFinalizePostgresDefaults(t *testing.T) {
	cfg := &database.Config{Driver: database.DriverPostgres, Name: "sightline", User: "sightline"}
	require.NoError(t, cfg.Finalize(nil))

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 5, cfg.MaxIdleConns)
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_DB_DRIVER", "postgres")
	t.Setenv("TEST_DB_HOST", "dbhost")
	t.Setenv("TEST_DB_PORT", "6543")
	t.Setenv("TEST_DB_NAME", "envdb")
	t.Setenv("TEST_DB_USER", "envuser")
	t.Setenv("TEST_DB_MAX_OPEN_CONNS", "9")
	t.Setenv("TEST_DB_CONN_TIMEOUT", "2s")

	cfg := &database.Config{}
	require.NoError(t, cfg.Finalize(testEnv))

	assert.Equal(t, database.DriverPostgres, cfg.Driver)
	assert.Equal(t, "dbhost", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "envdb", cfg.Name)
	assert.Equal(t, "envuser", cfg.User)
	assert.Equal(t, 9, cfg.MaxOpenConns)
	assert.Equal(t, 2*time.Second, cfg.ConnTimeoutDuration())
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  database.Config
		want string
	}{
		{"unknown driver", database.Config{Driver: "oracle"}, "unsupported driver"},
		{"postgres missing name", database.Config{Driver: database.DriverPostgres, User: "u"}, "name required"},
		{"postgres missing user", database.Config{Driver: database.DriverPostgres, Name: "n"}, "user required"},
		{"bad lifetime", database.Config{ConnMaxLifetime: "forever"}, "conn_max_lifetime"},
		{"bad timeout", database.Config{ConnTimeout: "soon"}, "conn_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMerge(t *testing.T) {
	base := &database.Config{Driver: database.DriverSQLite, Path: "base.db", Port: 5432}
	base.Merge(&database.Config{Path: "overlay.db", Host: "prodhost"})

	assert.Equal(t, database.DriverSQLite, base.Driver)
	assert.Equal(t, "overlay.db", base.Path)
	assert.Equal(t, "prodhost", base.Host)
	assert.Equal(t, 5432, base.Port)
}

func TestDsn(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		cfg := &database.Config{Driver: database.DriverSQLite, Path: "data/app.db"}
		dsn := cfg.Dsn()
		assert.True(t, strings.HasPrefix(dsn, "file:data/app.db?"))
		assert.Contains(t, dsn, "journal_mode(WAL)")
		assert.Contains(t, dsn, "busy_timeout(5000)")
	})

	t.Run("postgres", func(t *testing.T) {
		cfg := &database.Config{
			Driver:   database.DriverPostgres,
			Host:     "localhost",
			Port:     5432,
			Name:     "sightline",
			User:     "sightline",
			Password: "secret",
			SSLMode:  "disable",
		}
		assert.Equal(t,
			"host=localhost port=5432 dbname=sightline user=sightline password=secret sslmode=disable",
			cfg.Dsn(),
		)
	})
}
