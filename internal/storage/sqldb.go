package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PingTimeout bounds the connectivity check in OpenSQL.
const PingTimeout = 5 * time.Second

// OpenSQL opens a database/sql pool for driver and pings it so bad DSNs fail
// fast.
func OpenSQL(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", driver, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", driver, err)
	}
	return db, nil
}

// SQLRepository implements Repository over database/sql.
type SQLRepository struct {
	db *sql.DB
}

// NewSQLRepository wraps db.
func NewSQLRepository(db *sql.DB) *SQLRepository { return &SQLRepository{db: db} }

// DB exposes the pool, mostly for tests.
func (r *SQLRepository) DB() *sql.DB { return r.db }

func (r *SQLRepository) Exec(ctx context.Context, query string) error {
	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *SQLRepository) Close() { _ = r.db.Close() }
