package mssql

import (
	"context"

	"file2ddl/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

type wrappedRepo struct {
	*storage.SQLRepository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func open(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
	if err != nil {
		return nil, err
	}
	return &wrappedRepo{SQLRepository: r, closeFn: closeFn}, nil
}

func init() {
	storage.Register("mssql", open)
	storage.Register("sqlserver", open)
}
