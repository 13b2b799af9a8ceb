package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/pantry/internal/kv"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

const (
	workFile      = "work.db"
	snapshotFile  = "snapshot.db"
	corruptSuffix = ".corrupt"
)

// encodeSnapshot renders database bytes as a JSON array of byte values, the
// format the stored snapshot has always used.
func encodeSnapshot(data []byte) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(data)*4+2))
	buf.WriteByte('[')
	var num [3]byte
	for i, c := range data {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(strconv.AppendUint(num[:0], uint64(c), 10))
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// decodeSnapshot parses a stored snapshot back into database bytes.
func decodeSnapshot(blob []byte) ([]byte, error) {
	var values []int
	if err := json.Unmarshal(blob, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrCorruptSnapshot, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty snapshot", types.ErrCorruptSnapshot)
	}
	data := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: value %d at offset %d is not a byte", types.ErrCorruptSnapshot, v, i)
		}
		data[i] = byte(v)
	}
	return data, nil
}

func openEngine(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}
	// One connection: a transaction and the statements inside it must share it.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open engine: %w", err)
	}
	return db, nil
}

// openImage writes database bytes to path and opens them, checking that the
// file really is a database.
func openImage(path string, data []byte) (*sql.DB, error) {
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("writing engine file: %w", err)
	}
	db, err := openEngine(path)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("%w: %v", types.ErrCorruptSnapshot, err)
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&n); err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: %v", types.ErrCorruptSnapshot, err)
	}
	return db, nil
}

// load hydrates the engine from the stored snapshot. It reports fresh when no
// usable snapshot existed. A store read failure is returned as is so that an
// unreachable store never leads to an empty database overwriting real data.
func (b *Backend) load(ctx context.Context) (*sql.DB, bool, error) {
	key := b.config.GetSnapshotKey()
	path := filepath.Join(b.scratch, workFile)
	b.dbPath = path

	blob, err := b.store.Get(ctx, key)
	switch {
	case errors.Is(err, kv.ErrKeyNotFound):
		b.log.WithField("key", key).Info("no snapshot found, starting empty")
		db, err := openEngine(path)
		return db, true, err
	case err != nil:
		return nil, false, fmt.Errorf("read snapshot: %w", err)
	}

	data, err := decodeSnapshot(blob)
	var db *sql.DB
	if err == nil {
		db, err = openImage(path, data)
	}
	if err == nil {
		b.log.WithFields(logrus.Fields{"key": key, "bytes": len(data)}).Debug("snapshot hydrated")
		return db, false, nil
	}

	b.log.WithError(err).WithField("key", key).Warn("snapshot unreadable, starting empty")
	if putErr := b.store.Put(ctx, key+corruptSuffix, blob); putErr != nil {
		return nil, false, fmt.Errorf("preserve corrupt snapshot: %w", putErr)
	}
	db, err = openEngine(path)
	return db, true, err
}

// removeEngineFiles deletes an engine file and its journal.
func removeEngineFiles(path string) {
	for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		os.Remove(p)
	}
}

// serializeLocked returns the binary image of the whole database.
func (b *Backend) serializeLocked(ctx context.Context) ([]byte, error) {
	out := filepath.Join(b.scratch, snapshotFile)
	os.Remove(out)
	if _, err := b.db.ExecContext(ctx, "VACUUM INTO ?", out); err != nil {
		return nil, fmt.Errorf("serializing database: %w", err)
	}
	defer os.Remove(out)

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("reading serialized database: %w", err)
	}
	return data, nil
}

// persistLocked writes a snapshot of the whole database to the store.
func (b *Backend) persistLocked(ctx context.Context) error {
	data, err := b.serializeLocked(ctx)
	if err != nil {
		return err
	}
	key := b.config.GetSnapshotKey()
	if err := b.store.Put(ctx, key, encodeSnapshot(data)); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	b.metrics.SnapshotWritten(len(data))

	generation, err := uuid.NewV7()
	if err != nil {
		generation = uuid.New()
	}
	b.log.WithFields(logrus.Fields{
		"key":        key,
		"bytes":      len(data),
		"generation": generation.String(),
	}).Debug("snapshot written")
	return nil
}

// Export returns the current snapshot in its stored encoding.
func (b *Backend) Export(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, b.finish("export", types.ErrNotReady)
	}
	data, err := b.serializeLocked(ctx)
	if err != nil {
		return nil, b.finish("export", err)
	}
	b.finish("export", nil)
	return encodeSnapshot(data), nil
}

// Import replaces the whole database with a snapshot in the stored encoding.
// The snapshot is migrated before it takes over; on any failure the current
// database is left untouched.
func (b *Backend) Import(ctx context.Context, blob []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return b.finish("import", types.ErrNotReady)
	}

	data, err := decodeSnapshot(blob)
	if err != nil {
		return b.finish("import", err)
	}
	path := filepath.Join(b.scratch, "import-"+uuid.NewString()+".db")
	db, err := openImage(path, data)
	if err != nil {
		return b.finish("import", err)
	}
	res, err := b.migrator(db).run(ctx)
	if err != nil {
		db.Close()
		os.Remove(path)
		return b.finish("import", fmt.Errorf("migrate schema: %w", err))
	}

	previous := b.db
	b.db = db
	if err := b.persistLocked(ctx); err != nil {
		b.db = previous
		db.Close()
		os.Remove(path)
		return b.finish("import", err)
	}
	previousPath := b.dbPath
	b.dbPath = path
	if err := previous.Close(); err != nil {
		b.log.WithError(err).Warn("closing replaced database")
	} else {
		removeEngineFiles(previousPath)
	}
	b.version = res.version

	b.log.WithFields(logrus.Fields{
		"bytes":          len(data),
		"schema_version": res.version,
		"rebuilt":        res.rebuilt,
	}).Info("snapshot imported")
	return b.finish("import", nil)
}
