// Package sqlite implements the pantry store on an embedded SQLite engine.
//
// The engine is the query layer; the source of truth is a single snapshot of
// the whole database kept in a key-value store. Attach hydrates the engine
// from the snapshot and migrates the schema, every mutation runs in one
// transaction and is followed by a full snapshot write, and Detach releases
// the engine.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/pantry/internal/kv"
	"github.com/mesh-intelligence/pantry/internal/logging"
	"github.com/mesh-intelligence/pantry/internal/metrics"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Compile-time interface check.
var _ types.Pantry = (*Backend)(nil)

// Backend implements types.Pantry.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	scratch  string // working directory for the engine files
	dbPath   string // engine file backing db
	version  uint

	store     kv.Store
	ownsStore bool

	log        *logrus.Entry
	metrics    *metrics.Recorder
	now        func() time.Time
	migrations fs.FS
}

// Option configures a Backend.
type Option func(*Backend)

// WithStore makes the backend use s instead of opening the store named in the
// config. The backend does not close a store passed this way.
func WithStore(s kv.Store) Option {
	return func(b *Backend) { b.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Logger) Option {
	return func(b *Backend) { b.log = logging.Component(l, "sqlite") }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(b *Backend) { b.metrics = m }
}

// WithClock overrides the time source used for created_at, completed_at and
// purchase dates.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// NewBackend creates a detached backend. Call Attach before use.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		log:        logging.Component(logging.Discard(), "sqlite"),
		now:        time.Now,
		migrations: migrationsFS,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens the key-value store, hydrates the engine from the stored
// snapshot (or starts empty), and brings the schema up to date. A snapshot
// that cannot be decoded is kept under "<key>.corrupt" and the store starts
// fresh. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(ctx context.Context, config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	if b.store == nil {
		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		store, err := kv.Open(ctx, config.Store, dataDir)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		b.store = store
		b.ownsStore = true
	}

	scratch, err := os.MkdirTemp("", "pantry-")
	if err != nil {
		b.releaseStore()
		return fmt.Errorf("create scratch dir: %w", err)
	}
	b.scratch = scratch
	b.config = config

	db, fresh, err := b.load(ctx)
	if err != nil {
		b.cleanup()
		return err
	}

	mig := b.migrator(db)
	res, err := mig.run(ctx)
	if err != nil {
		db.Close()
		b.cleanup()
		return fmt.Errorf("migrate schema: %w", err)
	}

	b.db = db
	b.version = res.version
	b.attached = true

	if fresh || res.applied > 0 || res.rebuilt {
		if err := b.persistLocked(ctx); err != nil {
			b.attached = false
			b.db = nil
			db.Close()
			b.cleanup()
			return fmt.Errorf("persist snapshot: %w", err)
		}
	}

	b.log.WithFields(logrus.Fields{
		"schema_version": res.version,
		"fresh":          fresh,
		"applied":        res.applied,
		"rebuilt":        res.rebuilt,
		"store":          config.Store.GetDriver(),
	}).Info("pantry attached")
	return nil
}

// Detach closes the engine and releases the scratch directory. After Detach
// every operation returns ErrNotReady. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	var closeErr error
	if b.db != nil {
		closeErr = b.db.Close()
		b.db = nil
	}
	b.attached = false
	b.cleanup()
	if closeErr != nil {
		return fmt.Errorf("close engine: %w", closeErr)
	}
	b.log.Debug("pantry detached")
	return nil
}

// SchemaVersion returns the applied schema version, or 0 when detached.
func (b *Backend) SchemaVersion() uint {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return 0
	}
	return b.version
}

// Store returns the key-value store the backend persists to, or nil when
// detached. Session keys share it.
func (b *Backend) Store() kv.Store {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil
	}
	return b.store
}

func (b *Backend) migrator(db *sql.DB) *migrator {
	return &migrator{
		db:      db,
		source:  b.migrations,
		log:     b.log,
		metrics: b.metrics,
	}
}

func (b *Backend) cleanup() {
	if b.scratch != "" {
		os.RemoveAll(b.scratch)
		b.scratch = ""
	}
	b.dbPath = ""
	b.releaseStore()
}

func (b *Backend) releaseStore() {
	if b.ownsStore && b.store != nil {
		b.store.Close()
		b.store = nil
		b.ownsStore = false
	}
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// mutate runs fn in a transaction and persists a snapshot when it commits.
func (b *Backend) mutate(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return b.finish(op, types.ErrNotReady)
	}

	err := b.inTx(ctx, fn)
	if err == nil {
		err = b.persistLocked(ctx)
	}
	return b.finish(op, err)
}

// read runs fn against the engine under the read lock.
func (b *Backend) read(op string, fn func(q querier) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return b.finish(op, types.ErrNotReady)
	}
	return b.finish(op, fn(b.db))
}

func (b *Backend) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// finish records the outcome of op and logs failures at the boundary.
func (b *Backend) finish(op string, err error) error {
	b.metrics.Operation(op, err)
	if err == nil {
		return nil
	}
	entry := b.log.WithField("operation", op).WithError(err)
	if isDomainError(err) {
		entry.Warn("operation rejected")
	} else {
		entry.Error("operation failed")
	}
	return err
}

func isDomainError(err error) bool {
	for _, target := range []error{
		types.ErrNotReady,
		types.ErrNotFound,
		types.ErrInvalidID,
		types.ErrInvalidName,
		types.ErrDuplicateName,
		types.ErrNotOwner,
		types.ErrListCompleted,
		types.ErrTemplatePurchase,
		types.ErrCorruptSnapshot,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (b *Backend) timestamp() string {
	return formatTime(b.now())
}
