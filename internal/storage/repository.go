// Package storage applies generated DDL to live databases.
//
// Backends register a Factory for their kind at init time (see the postgres,
// mssql, mysql and sqlite subpackages, or import storage/all for every one of
// them). Callers open a Repository with New and stay backend-agnostic.
package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Config selects and configures a backend.
type Config struct {
	Kind string // registered backend name, e.g. "postgres"
	DSN  string // driver-specific connection string
}

// Repository is an open connection to one target database.
type Repository interface {
	// Exec runs a single statement.
	Exec(ctx context.Context, sql string) error
	// Close releases the connection pool.
	Close()
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the Factory for kind. Kinds are
// case-insensitive.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[strings.ToLower(kind)] = f
}

// New opens a Repository using the Factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[strings.ToLower(cfg.Kind)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported kind %q (registered: %s)", cfg.Kind, strings.Join(ListKinds(), ", "))
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
