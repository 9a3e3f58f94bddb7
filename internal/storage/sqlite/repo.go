// Package sqlite implements a SQLite storage.Repository using the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"file2ddl/internal/storage"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Config holds SQLite repository configuration.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:stage.db?_pragma=foreign_keys(1)"
	//   "stage.db"
	DSN string
}

// NewRepository opens the database and returns a Repository with its close
// function.
func NewRepository(ctx context.Context, cfg Config) (*storage.SQLRepository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := storage.OpenSQL(ctx, "sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	r := storage.NewSQLRepository(db)
	return r, r.Close, nil
}
