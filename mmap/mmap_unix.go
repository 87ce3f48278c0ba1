//go:build unix

package mmap

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func mmap(f *os.File, size int, opt Options) ([]byte, error) {
	prot := unix.PROT_READ
	if opt.writable() {
		prot |= unix.PROT_WRITE
	}

	flags := unix.MAP_SHARED
	if opt.Has(CopyOnWrite) {
		flags = unix.MAP_PRIVATE
	}
	if opt.Has(Prefault) {
		flags |= mapPopulate
	}

	b, err := unix.Mmap(int(f.Fd()), 0, size, prot, flags)
	if err != nil {
		return nil, err
	}

	if err := advise(b, opt); err != nil {
		_ = unix.Munmap(b)
		return nil, err
	}
	return b, nil
}

// Anonymous maps size bytes of zeroed private memory that is not backed by
// any file and is invisible to the Go garbage collector.
func Anonymous(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmap: invalid size %d", size)
	}
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

func advise(b []byte, opt Options) error {
	var advice int
	var name string
	switch {
	case opt.Has(SequentialAccess):
		advice, name = unix.MADV_SEQUENTIAL, "MADV_SEQUENTIAL"
	case opt.Has(RandomAccess):
		advice, name = unix.MADV_RANDOM, "MADV_RANDOM"
	default:
		return nil
	}
	err := unix.Madvise(b, advice)
	if err != nil && err != syscall.ENOSYS {
		// ENOSYS is fine, the mapping works without the hint
		return fmt.Errorf("madvise(%s): %w", name, err)
	}
	return nil
}

func munmap(b []byte) error {
	return unix.Munmap(b)
}
