package buildcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/mattpair/conder-sub001/internal/bytecode"
	"github.com/mattpair/conder-sub001/internal/testconfig"
	"github.com/mattpair/conder-sub001/internal/types"
)

const fingerprint = "4f2a3c6d"

func openCache(t *testing.T, dir string) *Cache {
	t.Helper()
	cache, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	return cache
}

func newTestProgram() *bytecode.Program {
	program := bytecode.NewProgram()
	program.Procedures["echo"] = []bytecode.Instruction{
		bytecode.MakeEnforceSchemaOnHeap(0, 0),
		bytecode.MakeCopyFromHeap(0),
		bytecode.MakeReturnStackTop(),
	}
	program.Schemas = []types.Type{types.String}
	program.FrameSizes["echo"] = 1
	return program
}

func TestKeyOf(t *testing.T) {
	testconfig.AllowParallelization(t)

	assert.Equal(t, KeyOf(fingerprint), KeyOf(fingerprint))
	assert.NotEqual(t, KeyOf(fingerprint), KeyOf(fingerprint+"0"))
	assert.Len(t, KeyOf(fingerprint).String(), 64)
}

func TestCache(t *testing.T) {
	testconfig.AllowParallelization(t)

	t.Run("miss", func(t *testing.T) {
		cache := openCache(t, t.TempDir())
		defer cache.Close()

		entry, ok, err := cache.Get(fingerprint)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, entry)
	})

	t.Run("put then get", func(t *testing.T) {
		cache := openCache(t, t.TempDir())
		defer cache.Close()

		entry, err := NewEntry(newTestProgram())
		require.NoError(t, err)
		require.NoError(t, cache.Put(fingerprint, entry))

		cached, ok, err := cache.Get(fingerprint)
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, string(entry.Document), string(cached.Document))
		assert.Equal(t, map[string]int{"echo": 1}, cached.FrameSizes)

		n, err := cache.Len()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("entries persist across openings", func(t *testing.T) {
		dir := t.TempDir()

		cache := openCache(t, dir)
		entry, err := NewEntry(newTestProgram())
		require.NoError(t, err)
		require.NoError(t, cache.Put(fingerprint, entry))
		require.NoError(t, cache.Close())

		assert.FileExists(t, filepath.Join(dir, DB_FILE))

		cache = openCache(t, dir)
		defer cache.Close()

		cached, ok, err := cache.Get(fingerprint)
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, string(entry.Document), string(cached.Document))
		assert.True(t, entry.CompiledAt.Equal(cached.CompiledAt))
	})

	t.Run("clear", func(t *testing.T) {
		cache := openCache(t, t.TempDir())
		defer cache.Close()

		entry, err := NewEntry(newTestProgram())
		require.NoError(t, err)
		require.NoError(t, cache.Put(fingerprint, entry))
		require.NoError(t, cache.Clear())

		_, ok, err := cache.Get(fingerprint)
		assert.NoError(t, err)
		assert.False(t, ok)

		n, err := cache.Len()
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("empty fingerprint", func(t *testing.T) {
		cache := openCache(t, t.TempDir())
		defer cache.Close()

		_, _, err := cache.Get("")
		assert.ErrorIs(t, err, ErrInvalidEntryKey)
		assert.ErrorIs(t, cache.Put("", &Entry{}), ErrInvalidEntryKey)
	})

	t.Run("corrupted entry", func(t *testing.T) {
		dir := t.TempDir()
		cache := openCache(t, dir)
		require.NoError(t, cache.Close())

		db, err := bbolt.Open(filepath.Join(dir, DB_FILE), DB_FILE_PERM, nil)
		require.NoError(t, err)
		key := KeyOf(fingerprint)
		err = db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(PROGRAMS_BUCKET).Put(key[:], []byte("not zstd"))
		})
		require.NoError(t, err)
		require.NoError(t, db.Close())

		cache = openCache(t, dir)
		defer cache.Close()

		_, ok, err := cache.Get(fingerprint)
		assert.ErrorIs(t, err, ErrCorruptedEntry)
		assert.False(t, ok)
	})

	t.Run("closed cache", func(t *testing.T) {
		cache := openCache(t, t.TempDir())
		require.NoError(t, cache.Close())

		_, _, err := cache.Get(fingerprint)
		assert.ErrorIs(t, err, ErrCacheClosed)
	})

	t.Run("directory is created", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "a", "b")
		cache := openCache(t, dir)
		defer cache.Close()

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, filepath.Join(dir, DB_FILE), cache.Path())
	})
}
