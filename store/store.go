// Package store persists region blobs in named buckets, either in a bbolt
// database file or in memory.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"

	"github.com/andreyvit/compact"
)

type Options struct {
	Logger *slog.Logger

	// Verbose logs every write at debug level.
	Verbose bool

	// IsTesting trades durability for speed.
	IsTesting bool

	MmapSize int

	// Timeout bounds the wait for the database file lock. Zero means 10s.
	Timeout time.Duration
}

// Store is a collection of buckets mapping string keys to byte blobs. It is
// safe for concurrent use.
type Store struct {
	st      storage
	logger  *slog.Logger
	verbose bool
}

// Open opens or creates a bbolt database at path.
func Open(path string, opt Options) (*Store, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = opt.Timeout
	if bopt.Timeout == 0 {
		bopt.Timeout = 10 * time.Second
	}
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(path, 0666, &bopt)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	s := newStore(newBoltStorage(bdb), opt)
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "store: opened", slog.String("file", path))
	return s, nil
}

// OpenMemory returns a transient Store that lives until Close.
func OpenMemory(opt Options) *Store {
	return newStore(newMemStorage(), opt)
}

func newStore(st storage, opt Options) *Store {
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{st: st, logger: logger, verbose: opt.Verbose}
}

func (s *Store) Close() error {
	return s.st.Close()
}

func (s *Store) view(f func(tx storageTx) error) error {
	tx, err := s.st.BeginTx(false)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer tx.Rollback()
	return f(tx)
}

func (s *Store) update(f func(tx storageTx) error) error {
	tx, err := s.st.BeginTx(true)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer tx.Rollback()
	if err := f(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		s.logger.LogAttrs(context.Background(), slog.LevelError, "store: commit failed", slog.Any("err", err))
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Put stores a copy of blob under bucket and key, creating the bucket if
// needed.
func (s *Store) Put(bucket, key string, blob []byte) error {
	if bucket == "" || key == "" {
		return fmt.Errorf("store: empty bucket or key")
	}
	err := s.update(func(tx storageTx) error {
		b, err := tx.CreateBucket(bucket)
		if err != nil {
			return fmt.Errorf("store: %s: %w", bucket, err)
		}
		if err := b.Put([]byte(key), blob); err != nil {
			return fmt.Errorf("store: %s/%s: %w", bucket, key, err)
		}
		return nil
	})
	if err == nil && s.verbose {
		s.logger.LogAttrs(context.Background(), slog.LevelDebug, "store: put", slog.String("bucket", bucket), slog.String("key", key), slog.Int("size", len(blob)))
	}
	return err
}

// Get returns a copy of the blob stored under bucket and key. A missing
// bucket is the same as a missing key.
func (s *Store) Get(bucket, key string) ([]byte, bool, error) {
	var out []byte
	err := s.view(func(tx storageTx) error {
		if b := tx.Bucket(bucket); b != nil {
			if v := b.Get([]byte(key)); v != nil {
				out = bytes.Clone(v)
			}
		}
		return nil
	})
	return out, out != nil, err
}

// Delete removes the blob stored under bucket and key, if any.
func (s *Store) Delete(bucket, key string) error {
	err := s.update(func(tx storageTx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
	if err == nil && s.verbose {
		s.logger.LogAttrs(context.Background(), slog.LevelDebug, "store: delete", slog.String("bucket", bucket), slog.String("key", key))
	}
	return err
}

// Keys returns the keys of a bucket in sorted order.
func (s *Store) Keys(bucket string) ([]string, error) {
	var keys []string
	err := s.view(func(tx storageTx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		keys = make([]string, 0, b.KeyCount())
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// Size is the database size in bytes, or 0 for a memory store.
func (s *Store) Size() int64 {
	var n int64
	_ = s.view(func(tx storageTx) error {
		n = tx.Size()
		return nil
	})
	return n
}

// PutRegion stores the blob of r. It fails with compact.ErrNotCompact if r
// needs a Recompact first.
func PutRegion[T any](s *Store, bucket, key string, r *compact.Region[T]) error {
	blob, err := r.Bytes()
	if err != nil {
		return fmt.Errorf("store: %s/%s: %w", bucket, key, err)
	}
	return s.Put(bucket, key, blob)
}

// GetRegion loads a region previously stored with PutRegion. The blob is
// copied and validated inside the read transaction.
func GetRegion[T any](s *Store, bucket, key string, opt compact.RegionOptions) (*compact.Region[T], bool, error) {
	var r *compact.Region[T]
	err := s.view(func(tx storageTx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		var err error
		r, err = compact.LoadRegion[T](v, opt)
		if err != nil {
			var de *compact.DataError
			if errors.As(err, &de) {
				de.Data = bytes.Clone(de.Data) // v dies with the transaction
			}
			return fmt.Errorf("store: %s/%s: %w", bucket, key, err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return r, r != nil, nil
}
