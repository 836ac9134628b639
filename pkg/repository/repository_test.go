package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/JaimeStill/sightline/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

type item struct {
	ID   string
	Name string
}

func scanItem(s repository.Scanner) (item, error) {
	var i item
	err := s.Scan(&i.ID, &i.Name)
	return i, err
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("CREATE TABLE items (id TEXT PRIMARY KEY, name TEXT)")
	require.NoError(t, err)
	return db
}

func TestExecExpectOne(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	require.NoError(t, repository.ExecExpectOne(ctx, db, "INSERT INTO items (id, name) VALUES (?, ?)", "1", "first"))

	err := repository.ExecExpectOne(ctx, db, "UPDATE items SET name = ? WHERE id = ?", "x", "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestQueryMany(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	t.Run("empty table returns empty slice", func(t *testing.T) {
		items, err := repository.QueryMany(ctx, db, "SELECT id, name FROM items", nil, scanItem)
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("returns rows in query order", func(t *testing.T) {
		for _, id := range []string{"a", "c", "b"} {
			require.NoError(t, repository.ExecExpectOne(ctx, db, "INSERT INTO items (id, name) VALUES (?, ?)", id, "n-"+id))
		}

		items, err := repository.QueryMany(ctx, db, "SELECT id, name FROM items ORDER BY id DESC", nil, scanItem)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "c", items[0].ID)
		assert.Equal(t, "a", items[2].ID)
	})
}

func TestQueryOneMapsErrors(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	_, err := repository.QueryOne(ctx, db, "SELECT id, name FROM items WHERE id = ?", []any{"nope"}, scanItem)
	assert.ErrorIs(t, repository.MapError(err, errNotFound, errDuplicate), errNotFound)

	require.NoError(t, repository.ExecExpectOne(ctx, db, "INSERT INTO items (id, name) VALUES (?, ?)", "1", "first"))
	_, err = db.ExecContext(ctx, "INSERT INTO items (id, name) VALUES (?, ?)", "1", "again")
	require.Error(t, err)
	assert.True(t, repository.IsDuplicate(err))
	assert.ErrorIs(t, repository.MapError(err, errNotFound, errDuplicate), errDuplicate)
}

func TestMapErrorPassthrough(t *testing.T) {
	assert.NoError(t, repository.MapError(nil, errNotFound, errDuplicate))

	other := errors.New("connection reset")
	assert.Equal(t, other, repository.MapError(other, errNotFound, errDuplicate))
	assert.False(t, repository.IsDuplicate(other))
}
