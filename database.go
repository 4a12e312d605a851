package formbd

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/hyperpolymath/formbd-go/internal/native"
)

// Config contains the options accepted by Open.
type Config struct {
	// LibraryPath optionally pins the engine shared library to load. When
	// empty, the library is discovered via FORMBD_LIBRARY or the platform
	// soname (see LoadLibrary).
	LibraryPath string

	// Logger receives lifecycle and reclamation events. Defaults to no
	// logging. A *slog.Logger satisfies the interface.
	Logger Logger
}

// DB owns exactly one native database handle.
//
// Thread Safety: all methods are safe for concurrent use. The handle is
// guarded by a single atomic word, so Close racing any other method (or the
// GC cleanup) resolves to exactly one native release; calls that lose the
// race fail with ErrDBClosed. Closing a database while transactions are
// still in flight is the caller's responsibility, as is keeping the DB
// reachable for as long as its transactions are used.
type DB struct {
	shared  *dbShared
	cleanup runtime.Cleanup
	path    string
}

// dbShared is the state the GC cleanup may touch after the DB wrapper has
// become unreachable. It must never reference the *DB, or the cleanup would
// keep it alive forever.
type dbShared struct {
	// handle is the native database pointer; non-zero iff the handle is
	// live. The one-way live→closed transition is a Swap(0), which also
	// serves as the exclusive claim between Close and the cleanup.
	handle atomic.Uintptr

	api    native.API
	logger Logger
	stats  *stats
	path   string
}

// claim performs the live→closed transition. Exactly one caller receives
// the native handle; every other caller gets 0.
func (s *dbShared) claim() uintptr {
	return s.handle.Swap(0)
}

// Open opens the database at path.
//
// The wrapper is allocated first and the native open attempted second; on
// engine failure the wrapper is discarded, so no partially-live handle is
// ever observable. Engine diagnostics, when present, are attached to the
// returned error and readable via Detail.
//
// Parameters:
//   - path: filesystem path to the database
//   - cfg: open options; the zero value is valid
//
// Returns:
//   - *DB: live database handle
//   - error: a taxonomy error (ErrDBNotFound, ErrDBCorrupted, ...) on
//     failure
func Open(path string, cfg Config) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty database path", ErrBadArgument)
	}
	api, err := engineAPI(cfg.LibraryPath)
	if err != nil {
		return nil, err
	}
	return openWith(api, path, cfg)
}

// openWith runs Open against an explicit engine implementation.
func openWith(api native.API, path string, cfg Config) (*DB, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	shared := &dbShared{
		api:    api,
		logger: logger,
		stats:  &stats{},
		path:   path,
	}

	shared.stats.nativeCalls.Add(1)
	h, diag, status := api.DBOpen([]byte(path))
	if status != native.StatusOK {
		detail := adopt(api, diag)
		return nil, newError(translate(status), detail)
	}
	// A well-behaved engine leaves the diagnostic empty on success;
	// release it if one was filled anyway so it cannot leak.
	releaseAll(api, diag)

	shared.handle.Store(h)

	db := &DB{shared: shared, path: path}
	db.cleanup = runtime.AddCleanup(db, reclaimDB, shared)

	logger.Debug("formbd: database opened", "path", path)
	return db, nil
}

// Close releases the native database handle.
//
// Idempotent: the first call claims the handle and performs the native
// close; every later call returns nil immediately without touching the
// engine. The handle transitions to closed even when the engine reports a
// close failure, so the failure is surfaced once and can never be retried
// into undefined behaviour.
func (db *DB) Close() error {
	h := db.shared.claim()
	if h == 0 {
		return nil
	}
	db.cleanup.Stop()

	db.shared.stats.nativeCalls.Add(1)
	if status := db.shared.api.DBClose(h); status != native.StatusOK {
		return translate(status)
	}
	db.shared.logger.Debug("formbd: database closed", "path", db.path)
	return nil
}

// reclaimDB is the GC cleanup for databases that were never closed. Same
// effect as Close, but no caller exists: failures are logged, never
// returned. The claim makes it safe against a concurrent explicit Close.
func reclaimDB(s *dbShared) {
	h := s.handle.Swap(0)
	if h == 0 {
		return
	}
	s.stats.dbReclaims.Add(1)
	s.stats.nativeCalls.Add(1)
	if status := s.api.DBClose(h); status != native.StatusOK {
		s.logger.Error("formbd: native close failed during GC reclaim",
			"path", s.path, "status", int32(status))
		return
	}
	s.logger.Warn("formbd: database reclaimed by GC without explicit Close", "path", s.path)
}

// Path returns the path the database was opened with.
func (db *DB) Path() string {
	return db.path
}

// Stats returns a snapshot of the handle's counters. Transactions begun
// from this DB report into the same counters, including when they are
// reclaimed by the GC.
func (db *DB) Stats() DBStats {
	return db.shared.stats.snapshot()
}

// HealthCheck verifies the handle is live and the engine answers a cheap
// read-only call. The context is honoured before dispatch only: once an
// engine call starts it runs to completion.
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := db.Schema(); err != nil {
		return fmt.Errorf("engine health check failed: %w", err)
	}
	return nil
}
