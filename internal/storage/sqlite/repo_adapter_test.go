package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"file2ddl/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_ExecCreatesTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "stage.db")

	repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn})
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, repo.Exec(ctx, "CREATE TABLE \"people\" (\n  \"id\" INTEGER NOT NULL,\n  \"name\" VARCHAR(5)\n);"))

	var cols []string
	rows, err := repo.DB().QueryContext(ctx, `SELECT name FROM pragma_table_info('people') ORDER BY cid`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		cols = append(cols, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"id", "name"}, cols)

	err = repo.Exec(ctx, `CREATE TABLE "people" ("x" TEXT)`)
	assert.Error(t, err, "second create must fail")
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, _, err := NewRepository(context.Background(), Config{DSN: "  "})
	require.Error(t, err)
}

// TestApplyAll_SQLite drives the storage-level fan-out against two real
// SQLite files and one broken target.
func TestApplyAll_SQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.db"), filepath.Join(dir, "b.db")

	targets := []storage.Target{
		{Kind: "sqlite", DSN: a},
		{Kind: "sqlite", DSN: b},
		{Kind: "oracle", DSN: "x"},
	}
	err := storage.ApplyAll(ctx, nil, targets, func(kind string) (string, error) {
		return `CREATE TABLE "t" ("id" INTEGER NOT NULL)`, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")

	for _, dsn := range []string{a, b} {
		repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn})
		require.NoError(t, err)
		var n int
		require.NoError(t, repo.DB().QueryRowContext(ctx, `SELECT count(*) FROM sqlite_master WHERE name = 't'`).Scan(&n))
		assert.Equal(t, 1, n, dsn)
		closeFn()
	}
}
