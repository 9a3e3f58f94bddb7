// Package mysql implements a MySQL storage.Repository using
// go-sql-driver/mysql through database/sql.
package mysql

import (
	"context"
	"fmt"

	"file2ddl/internal/storage"

	"github.com/go-sql-driver/mysql"
)

// Config holds MySQL repository configuration.
type Config struct {
	DSN string // user:pass@tcp(host:3306)/db
}

// NewRepository validates the DSN, connects and returns a Repository with
// its close function.
func NewRepository(ctx context.Context, cfg Config) (*storage.SQLRepository, func(), error) {
	if _, err := mysql.ParseDSN(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	db, err := storage.OpenSQL(ctx, "mysql", cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	r := storage.NewSQLRepository(db)
	return r, r.Close, nil
}
