package store

// storage is a transactional backend holding named buckets of sorted
// key-value pairs.
type storage interface {
	// BeginTx starts a new transaction. Only one writable transaction runs at
	// a time; others wait for it.
	BeginTx(writable bool) (storageTx, error)
	Close() error
}

type storageTx interface {
	Writable() bool

	// Bucket returns nil if the bucket doesn't exist.
	Bucket(name string) storageBucket

	// CreateBucket creates a bucket if it doesn't exist.
	CreateBucket(name string) (storageBucket, error)

	Commit() error

	// Rollback aborts the transaction. It is safe to call after Commit.
	Rollback() error

	// Size returns the database size in bytes (0 if not applicable).
	Size() int64
}

type storageBucket interface {
	// Get returns nil if not found. The result is only valid until the end of
	// the transaction.
	Get(key []byte) []byte
	Put(key, value []byte) error
	Delete(key []byte) error

	// ForEach calls f for each pair in key order, stopping at the first error.
	ForEach(f func(key, value []byte) error) error

	KeyCount() int
}
