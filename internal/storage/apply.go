package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxParallelApply caps concurrent connections in ApplyAll.
const MaxParallelApply = 4

// Target is one database to apply DDL to.
type Target struct {
	Kind string
	DSN  string
}

// ParseTarget parses "kind=dsn". Only the first '=' separates; DSNs may
// contain more.
func ParseTarget(s string) (Target, error) {
	kind, dsn, ok := strings.Cut(s, "=")
	kind = strings.ToLower(strings.TrimSpace(kind))
	if !ok || kind == "" || strings.TrimSpace(dsn) == "" {
		return Target{}, fmt.Errorf("storage: target %q must look like kind=dsn", s)
	}
	return Target{Kind: kind, DSN: dsn}, nil
}

// String hides the DSN, which may carry credentials.
func (t Target) String() string { return t.Kind }

// StatementFunc renders the statement for a backend kind.
type StatementFunc func(kind string) (string, error)

// ApplyAll runs the statement produced by stmt against every target
// concurrently. Targets are independent: one failing does not cancel the
// others. All failures are returned joined.
func ApplyAll(ctx context.Context, log *zap.Logger, targets []Target, stmt StatementFunc) error {
	if log == nil {
		log = zap.NewNop()
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(MaxParallelApply)

	for _, t := range targets {
		g.Go(func() error {
			start := time.Now()
			err := apply(ctx, t, stmt)
			if err != nil {
				log.Error("apply DDL failed", zap.Stringer("target", t), zap.Error(err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", t.Kind, err))
				mu.Unlock()
				return nil
			}
			log.Info("applied DDL", zap.Stringer("target", t), zap.Duration("elapsed", time.Since(start)))
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func apply(ctx context.Context, t Target, stmt StatementFunc) error {
	sql, err := stmt(t.Kind)
	if err != nil {
		return err
	}
	repo, err := New(ctx, Config{Kind: t.Kind, DSN: t.DSN})
	if err != nil {
		return err
	}
	defer repo.Close()
	return repo.Exec(ctx, sql)
}
