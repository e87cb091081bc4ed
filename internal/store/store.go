// Package store persists courses, plans, notes, and progress in SQLite,
// with versioned migrations and defensive metadata repair on load.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"coursepilot/internal/config"
	"coursepilot/internal/logging"
	"coursepilot/internal/services"
)

// slowQueryThreshold is how long a statement may run before it is logged.
const slowQueryThreshold = 100 * time.Millisecond

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store owns the SQLite database and the cross-process lock guarding it.
type Store struct {
	db     *sql.DB
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// Open connects to the configured database, acquiring the database lock and
// migrating the schema to the latest version.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "open", "ensure directories", err)
	}
	return OpenPath(cfg.Paths.DatabasePath, logger)
}

// OpenPath connects to a database at an explicit path.
func OpenPath(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "open", "create database directory", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "open", "acquire database lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrDatabase, "store", "open", "database locked by another process", nil)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrDatabase, "store", "open", "open sqlite db", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, services.Wrap(services.ErrDatabase, "store", "open",
				fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	s := &Store{
		db:     db,
		path:   path,
		lock:   lock,
		logger: logging.NewComponentLogger(logger, "store"),
	}
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return s, nil
}

// Close releases the database and its lock.
func (s *Store) Close() error {
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

// Path reports where the database lives on disk.
func (s *Store) Path() string { return s.path }

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// exec runs a statement with busy retries and slow-query logging.
func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	started := time.Now()
	var (
		res     sql.Result
		execErr error
	)
	err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	s.observeQuery(query, time.Since(started))
	if err != nil {
		return nil, err
	}
	return res, nil
}

// query runs a read with slow-query logging. Busy retries are unnecessary
// under WAL for readers.
func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	ctx = ensureContext(ctx)
	started := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	s.observeQuery(query, time.Since(started))
	return rows, err
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	ctx = ensureContext(ctx)
	started := time.Now()
	row := s.db.QueryRowContext(ctx, query, args...)
	s.observeQuery(query, time.Since(started))
	return row
}

func (s *Store) observeQuery(query string, elapsed time.Duration) {
	if elapsed < slowQueryThreshold {
		return
	}
	s.logger.Warn("slow query",
		logging.String("query", normalizeQuery(query)),
		logging.Duration("elapsed", elapsed))
}

func normalizeQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) > 8 {
		fields = fields[:8]
	}
	return strings.Join(fields, " ")
}
