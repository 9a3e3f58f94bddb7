package mysql

import (
	"context"
	"testing"

	"file2ddl/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegistrationUsesNewRepositoryHook swaps a package-level hook, so it
// does not run in parallel.
func TestRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var closed bool
	newRepository = func(ctx context.Context, cfg Config) (*storage.SQLRepository, func(), error) {
		assert.Equal(t, "root:pw@tcp(db:3306)/stage", cfg.DSN)
		return &storage.SQLRepository{}, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "MySQL", DSN: "root:pw@tcp(db:3306)/stage"})
	require.NoError(t, err)
	repo.Close()
	assert.True(t, closed)
}

func TestNewRepository_InvalidDSN(t *testing.T) {
	t.Parallel()

	_, _, err := NewRepository(context.Background(), Config{DSN: "no-slash-here"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql dsn")
}
