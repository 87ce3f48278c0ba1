package compact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/andreyvit/compact/mmap"
)

// WriteRegionFile atomically replaces the file at path with the region's blob.
func WriteRegionFile[T any](path string, r *Region[T]) error {
	data, err := r.Bytes()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := f.Name()
	ok := false
	defer func() {
		if !ok {
			f.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := mmap.Sync(f, nil); err != nil {
		return fmt.Errorf("%s: sync: %w", tmpName, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	ok = true
	r.logger.LogAttrs(context.Background(), slog.LevelDebug, "compact: wrote region file", slog.String("file", path), slog.Int("size", len(data)))
	return nil
}

// OpenRegionFile maps a region file copy-on-write: the root can be read and
// even modified in place, but the file itself never changes. The mapping is
// released by Close.
func OpenRegionFile[T any](path string, opt RegionOptions) (*Region[T], error) {
	mustBePlain[T]()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := int(stat.Size())
	if size < regionHeaderSize {
		return nil, fmt.Errorf("%s: %w", path, dataErrf(nil, 0, nil, "region too short: %d bytes", size))
	}

	b, err := mmap.Map(f, size, mmap.CopyOnWrite|mmap.RandomAccess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := verifyRegion[T](b); err != nil {
		var de *DataError
		if errors.As(err, &de) {
			de.Data = bytes.Clone(b[:regionHeaderSize]) // b is about to be unmapped
		}
		_ = mmap.Unmap(b)
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger := opt.logger()
	logger.LogAttrs(context.Background(), slog.LevelDebug, "compact: mapped region file", slog.String("file", path), slog.Int("size", size))
	return &Region[T]{
		mem:    unsafe.Pointer(&b[0]),
		size:   size,
		alloc:  opt.Allocator,
		unmap:  func() error { return mmap.Unmap(b) },
		logger: logger,
	}, nil
}
