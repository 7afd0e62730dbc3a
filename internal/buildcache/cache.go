package buildcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"github.com/mattpair/conder-sub001/internal/bytecode"
	"github.com/mattpair/conder-sub001/internal/slog"
)

const (
	LOG_SRC = "buildcache"

	// FORMAT_VERSION is part of every key, it should be changed when the compiler output changes.
	FORMAT_VERSION = "conder-bytecode-1"

	DB_FILE       = "programs.bbolt"
	DB_FILE_PERM  = 0o600
	CACHE_DIRNAME = "conder"
	OS_CACHE_DIR  = 0o700

	OPEN_TIMEOUT = time.Second
)

var (
	PROGRAMS_BUCKET = []byte("programs")

	ErrOpenCache       = errors.New("build cache is already open by another process")
	ErrCacheClosed     = errors.New("build cache is closed")
	ErrCorruptedEntry  = errors.New("corrupted build cache entry")
	ErrInvalidEntryKey = errors.New("invalid build cache key")
)

// A Key identifies a compiled program: it is derived from the fingerprint of the manifest and FORMAT_VERSION.
type Key [sha256.Size]byte

func KeyOf(manifestFingerprint string) Key {
	return sha256.Sum256([]byte(FORMAT_VERSION + "\x00" + manifestFingerprint))
}

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// An Entry is a cached compilation result. Document is the serialized program in compact form.
type Entry struct {
	Document   json.RawMessage `json:"document"`
	FrameSizes map[string]int  `json:"frameSizes"`
	CompiledAt time.Time       `json:"compiledAt"`
}

func NewEntry(program *bytecode.Program) (*Entry, error) {
	doc, err := program.MarshalJSON()
	if err != nil {
		return nil, err
	}
	frameSizes := make(map[string]int, len(program.FrameSizes))
	for name, size := range program.FrameSizes {
		frameSizes[name] = size
	}
	return &Entry{
		Document:   doc,
		FrameSizes: frameSizes,
		CompiledAt: time.Now().UTC(),
	}, nil
}

type Config struct {
	// Dir is the directory of the database file, DefaultDir() is used if empty.
	Dir    string
	Logger zerolog.Logger
}

// A Cache stores compiled programs in a single bbolt file, values are zstd-compressed JSON documents.
// A Cache is safe for concurrent use.
type Cache struct {
	db      *bbolt.DB
	path    string
	memory  *memoryCache
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	logger  zerolog.Logger
}

// DefaultDir returns the directory of the cache in the user's XDG cache directory.
func DefaultDir() string {
	return filepath.Join(xdg.CacheHome, CACHE_DIRNAME)
}

func Open(config Config) (_ *Cache, finalErr error) {
	dir := config.Dir
	if dir == "" {
		dir = DefaultDir()
	}

	if err := os.MkdirAll(dir, OS_CACHE_DIR); err != nil {
		return nil, fmt.Errorf("failed to create the build cache directory: %w", err)
	}

	path := filepath.Join(dir, DB_FILE)
	db, err := bbolt.Open(path, DB_FILE_PERM, &bbolt.Options{Timeout: OPEN_TIMEOUT})
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return nil, ErrOpenCache
		}
		return nil, err
	}

	defer func() {
		if finalErr != nil {
			db.Close()
		}
	}()

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(PROGRAMS_BUCKET)
		return err
	})
	if err != nil {
		return nil, err
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}

	logger := slog.ChildLoggerForSource(config.Logger, LOG_SRC)
	logger.Debug().Str("path", path).Msg("build cache opened")

	return &Cache{
		db:      db,
		path:    path,
		memory:  newMemoryCache(),
		encoder: encoder,
		decoder: decoder,
		logger:  logger,
	}, nil
}

func (c *Cache) Path() string {
	return c.path
}

// Get returns the entry cached for the manifest with the given fingerprint.
func (c *Cache) Get(manifestFingerprint string) (*Entry, bool, error) {
	if manifestFingerprint == "" {
		return nil, false, ErrInvalidEntryKey
	}
	key := KeyOf(manifestFingerprint)

	if entry, ok := c.memory.get(key); ok {
		return entry, true, nil
	}

	var compressed []byte
	err := c.view(func(bucket *bbolt.Bucket) error {
		value := bucket.Get(key[:])
		if value != nil {
			//the value is only valid during the transaction
			compressed = append([]byte(nil), value...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if compressed == nil {
		c.logger.Debug().Str("key", key.String()).Msg("miss")
		return nil, false, nil
	}

	entry, err := c.decode(compressed)
	if err != nil {
		return nil, false, fmt.Errorf("%w (%s): %w", ErrCorruptedEntry, key, err)
	}

	c.memory.put(key, entry)
	c.logger.Debug().Str("key", key.String()).Msg("hit")
	return entry, true, nil
}

func (c *Cache) Put(manifestFingerprint string, entry *Entry) error {
	if manifestFingerprint == "" {
		return ErrInvalidEntryKey
	}
	key := KeyOf(manifestFingerprint)

	serialized, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	compressed := c.encoder.EncodeAll(serialized, nil)

	err = c.update(func(bucket *bbolt.Bucket) error {
		return bucket.Put(key[:], compressed)
	})
	if err != nil {
		return err
	}

	c.memory.put(key, entry)
	c.logger.Debug().
		Str("key", key.String()).
		Int("size", len(serialized)).
		Int("compressedSize", len(compressed)).
		Msg("stored")
	return nil
}

// Len returns the number of entries in the database.
func (c *Cache) Len() (int, error) {
	n := 0
	err := c.view(func(bucket *bbolt.Bucket) error {
		n = bucket.Stats().KeyN
		return nil
	})
	return n, err
}

// Clear removes all entries.
func (c *Cache) Clear() error {
	err := c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(PROGRAMS_BUCKET); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(PROGRAMS_BUCKET)
		return err
	})
	if err != nil {
		return c.wrapDbError(err)
	}
	c.memory.invalidateAllEntries()
	c.logger.Debug().Msg("cleared")
	return nil
}

func (c *Cache) Close() error {
	c.decoder.Close()
	if err := c.encoder.Close(); err != nil {
		c.db.Close()
		return err
	}
	c.memory.invalidateAllEntries()
	return c.db.Close()
}

func (c *Cache) decode(compressed []byte) (*Entry, error) {
	serialized, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(serialized, &entry); err != nil {
		return nil, err
	}
	if len(entry.Document) == 0 {
		return nil, errors.New("empty document")
	}
	return &entry, nil
}

func (c *Cache) view(fn func(bucket *bbolt.Bucket) error) error {
	return c.wrapDbError(c.db.View(func(tx *bbolt.Tx) error {
		return fn(tx.Bucket(PROGRAMS_BUCKET))
	}))
}

func (c *Cache) update(fn func(bucket *bbolt.Bucket) error) error {
	return c.wrapDbError(c.db.Update(func(tx *bbolt.Tx) error {
		return fn(tx.Bucket(PROGRAMS_BUCKET))
	}))
}

func (c *Cache) wrapDbError(err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return ErrCacheClosed
	}
	return err
}
