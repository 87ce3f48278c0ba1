// Package mmap maps files and anonymous memory for relocatable regions.
//
// Regions written by package compact contain only offsets relative to their
// own fields, so a mapping of a region file is directly usable at whatever
// address the operating system picks.
package mmap

import (
	"fmt"
	"os"
)

type Options uint

const (
	// Writable maps the memory with write access (otherwise it's read-only).
	Writable Options = 1 << 0

	// SequentialAccess is a hint requesting aggressive read-ahead.
	// Incompatible with RandomAccess. Maps to MADV_SEQUENTIAL on Unix.
	SequentialAccess Options = 1 << 1

	// RandomAccess is a hint that read ahead is less useful than normally.
	// Incompatible with SequentialAccess. Maps to MADV_RANDOM on Unix.
	RandomAccess Options = 1 << 2

	// Prefault is a hint requesting the entire file to be loaded in memory
	// for fastest access. Maps to MAP_POPULATE on Linux.
	Prefault Options = 1 << 3

	// CopyOnWrite makes writes private to the mapping; the file is never
	// modified. Implies Writable. Maps to MAP_PRIVATE on Unix and
	// FILE_MAP_COPY on Windows.
	CopyOnWrite Options = 1 << 4
)

func (o Options) Has(v Options) bool {
	return o&v != 0
}

func (o Options) writable() bool {
	return o.Has(Writable) || o.Has(CopyOnWrite)
}

// Map memory-maps the first size bytes of the given file.
func Map(f *os.File, size int, opt Options) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmap: invalid size %d", size)
	}
	if size > MaxSize {
		return nil, fmt.Errorf("mmap: size %d exceeds the maximum of %d", size, MaxSize)
	}
	return mmap(f, size, opt)
}

// Unmap unmaps the given slice from memory. The slice must have been returned
// by Map or Anonymous.
func Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return munmap(b)
}

// Sync triggers the fastest fsync-like operation that ensures durability
// of the data written to the given file and/or memory mapping.
//
// If mapping is provided, it's an mmap'ed slice corresponding to the given
// file, in case the operating system supports an alternative interface for
// syncing mmap'ed data.
//
// WARNING: ERRORS RETURNED BY THIS FUNCTION ARE NOT RECOVERABLE. The data in
// disk caches might not correspond to the data on disk after a failure, so
// the only sensible handling is to treat the file as corrupted.
func Sync(f *os.File, mapping []byte) error {
	return fdatasync(f, mapping)
}
