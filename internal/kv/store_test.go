package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// exerciseStore runs the shared Store contract against s.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Put(ctx, "grocery_db", []byte("[1,2,3]")))
	got, err := s.Get(ctx, "grocery_db")
	require.NoError(t, err)
	assert.Equal(t, []byte("[1,2,3]"), got)

	require.NoError(t, s.Put(ctx, "grocery_db", []byte("[4]")))
	got, err = s.Get(ctx, "grocery_db")
	require.NoError(t, err)
	assert.Equal(t, []byte("[4]"), got, "Put overwrites")

	require.NoError(t, s.Delete(ctx, "grocery_db"))
	_, err = s.Get(ctx, "grocery_db")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	assert.NoError(t, s.Delete(ctx, "grocery_db"), "deleting a missing key succeeds")

	assert.ErrorIs(t, s.Put(ctx, "../escape", nil), ErrInvalidKey)
	_, err = s.Get(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "db"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStore_PutLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Put(ctx, "active_user", []byte("1")))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "active_user", entries[0].Name())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	v := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", v))
	v[0] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	got[1] = 'z'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
	assert.Equal(t, []string{"k"}, s.Keys())
}

func TestValidateKey(t *testing.T) {
	for _, k := range []string{"grocery_db", "active_user", "tutorial_seen", "grocery_db.corrupt", "a-1"} {
		assert.NoError(t, ValidateKey(k), k)
	}
	for _, k := range []string{"", ".hidden", "a/b", "../x", "a b"} {
		assert.ErrorIs(t, ValidateKey(k), ErrInvalidKey, k)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("file is the default driver", func(t *testing.T) {
		dir := t.TempDir()
		s, err := Open(ctx, types.StoreConfig{}, dir)
		require.NoError(t, err)
		fs, ok := s.(*FileStore)
		require.True(t, ok, "expected *FileStore, got %T", s)
		assert.Equal(t, dir, fs.Root())
	})

	t.Run("memory", func(t *testing.T) {
		s, err := Open(ctx, types.StoreConfig{Driver: types.StoreMemory}, "")
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(ctx, types.StoreConfig{Driver: "etcd"}, "")
		assert.ErrorIs(t, err, types.ErrStoreDriverUnknown)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_, err := Open(ctx, types.StoreConfig{
			Driver: types.StoreRedis,
			Redis:  types.RedisConfig{Addr: "127.0.0.1:1"},
		}, "")
		assert.Error(t, err)
	})

	t.Run("s3 builds a client without network", func(t *testing.T) {
		s, err := Open(ctx, types.StoreConfig{
			Driver: types.StoreS3,
			S3: types.S3Config{
				Bucket:    "pantry",
				Endpoint:  "http://127.0.0.1:9000",
				AccessKey: "minio",
				SecretKey: "minio123",
				Prefix:    "backups/ana",
			},
		}, "")
		require.NoError(t, err)
		s3s, ok := s.(*S3Store)
		require.True(t, ok)
		assert.Equal(t, "backups/ana/grocery_db", s3s.objectKey("grocery_db"))
	})
}

func TestRedisStorePrefixDefault(t *testing.T) {
	s := newRedisStore(nil, "")
	assert.Equal(t, "pantry:", s.prefix)
	s = newRedisStore(nil, "ana:")
	assert.Equal(t, "ana:", s.prefix)
}
