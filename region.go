package compact

import (
	"context"
	"encoding/binary"
	"log/slog"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Region blob format:
//
//	region  -> header payload
//	header  -> magic:64 version:16 flags:16 rootSize:32 payloadSize:64 checksum:64
//	payload -> root fixed part, padded to 8 bytes, then the root's dynamic part
//
// All header fields are little-endian. The checksum is xxhash64 of the payload.
const (
	regionMagic      = 0x4e47525443504d43 // "CMPCTRGN" as little-endian uint64
	regionVersion1   = 1
	regionHeaderSize = 32
)

type RegionOptions struct {
	// Allocator for the region memory. Values that spill out of the region
	// allocate through their own allocators, not this one.
	Allocator AllocatorID

	Logger *slog.Logger
}

func (o RegionOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Region is a standalone relocatable blob holding one compacted root value of
// type T. Its bytes can be copied, written to a file or sent elsewhere and
// loaded back at any address.
//
// Region is a handle; the blob itself lives in allocator memory or in a file
// mapping.
type Region[T any] struct {
	mem    unsafe.Pointer
	size   int
	alloc  AllocatorID
	unmap  func() error
	logger *slog.Logger
}

// NewRegion compacts v into a new region and consumes v.
func NewRegion[T any](v *T, opt RegionOptions) *Region[T] {
	mustBePlain[T]()
	r := &Region[T]{alloc: opt.Allocator, logger: opt.logger()}
	r.build(v)
	return r
}

func (r *Region[T]) build(v *T) {
	payload := TotalSizeBytes(v)
	r.size = regionHeaderSize + payload
	r.mem = r.alloc.Allocator().Allocate(r.size)
	r.unmap = nil

	h := r.raw()[:regionHeaderSize]
	binary.LittleEndian.PutUint64(h[0:], regionMagic)
	binary.LittleEndian.PutUint16(h[8:], regionVersion1)
	binary.LittleEndian.PutUint16(h[10:], 0)
	binary.LittleEndian.PutUint32(h[12:], uint32(FixedSizeBytes[T]()))
	binary.LittleEndian.PutUint64(h[16:], uint64(payload))

	CompactBehind(v, r.Root())
	var zero T
	*v = zero
}

// Root returns the root value in place.
func (r *Region[T]) Root() *T {
	if r.mem == nil {
		panic("compact: use of a closed region")
	}
	return (*T)(unsafe.Add(r.mem, regionHeaderSize))
}

// IsStillCompact reports whether the whole root is still inside the region.
func (r *Region[T]) IsStillCompact() bool {
	return IsStillCompact(r.Root())
}

func (r *Region[T]) PayloadSize() int {
	return r.size - regionHeaderSize
}

// Size is the size of the blob returned by Bytes.
func (r *Region[T]) Size() int {
	return r.size
}

func (r *Region[T]) raw() []byte {
	return unsafe.Slice((*byte)(r.mem), r.size)
}

// Bytes refreshes the checksum and returns the blob without copying. It fails
// with ErrNotCompact if parts of the root have spilled out of the region, since
// the blob would then contain absolute addresses; call Recompact first.
func (r *Region[T]) Bytes() ([]byte, error) {
	if !r.IsStillCompact() {
		return nil, ErrNotCompact
	}
	b := r.raw()
	binary.LittleEndian.PutUint64(b[24:], xxhash.Sum64(b[regionHeaderSize:]))
	return b, nil
}

// Recompact rebuilds the region so that everything the root refers to is
// inside it again, and returns the spilled storage to its allocators.
func (r *Region[T]) Recompact() {
	if r.IsStillCompact() {
		return
	}
	oldSize := r.size
	tmp := Decompact(r.Root())
	if err := r.free(); err != nil {
		r.logger.LogAttrs(context.Background(), slog.LevelError, "compact: failed to release region", slog.Any("err", err))
	}
	r.build(&tmp)
	r.logger.LogAttrs(context.Background(), slog.LevelDebug, "compact: recompacted region", slog.Int("old_size", oldSize), slog.Int("size", r.size))
}

// Detach returns a free-mode copy of the root that outlives the region.
func (r *Region[T]) Detach() T {
	return Decompact(r.Root())
}

// Close releases everything the root has spilled and then the region itself.
// The region must not be used afterwards.
func (r *Region[T]) Close() error {
	if r.mem == nil {
		return nil
	}
	return r.free()
}

func (r *Region[T]) free() error {
	Release(r.Root())
	var err error
	if r.unmap != nil {
		err = r.unmap()
	} else {
		r.alloc.Allocator().Deallocate(r.mem, r.size)
	}
	r.mem, r.size, r.unmap = nil, 0, nil
	return err
}

// LoadRegion copies a blob produced by Bytes into fresh allocator memory and
// validates it.
func LoadRegion[T any](data []byte, opt RegionOptions) (*Region[T], error) {
	mustBePlain[T]()
	if err := verifyRegion[T](data); err != nil {
		return nil, err
	}
	r := &Region[T]{size: len(data), alloc: opt.Allocator, logger: opt.logger()}
	r.mem = r.alloc.Allocator().Allocate(r.size)
	copy(r.raw(), data)
	return r, nil
}

func verifyRegion[T any](data []byte) error {
	if len(data) < regionHeaderSize {
		return dataErrf(data, 0, nil, "region too short: %d bytes", len(data))
	}
	if m := binary.LittleEndian.Uint64(data[0:]); m != regionMagic {
		return dataErrf(data, 0, nil, "invalid region magic %x", m)
	}
	if v := binary.LittleEndian.Uint16(data[8:]); v != regionVersion1 {
		return dataErrf(data, 8, ErrUnsupportedVersion, "region version %d", v)
	}
	if rootSize, want := binary.LittleEndian.Uint32(data[12:]), FixedSizeBytes[T](); int(rootSize) != want {
		var zero T
		return dataErrf(data, 12, nil, "root size %d does not match %T (%d bytes)", rootSize, zero, want)
	}
	payload := data[regionHeaderSize:]
	if n := binary.LittleEndian.Uint64(data[16:]); n != uint64(len(payload)) || len(payload) < FixedSizeBytes[T]() {
		return dataErrf(data, 16, nil, "got %d bytes of payload, expected %d bytes", len(payload), n)
	}
	if sum, want := xxhash.Sum64(payload), binary.LittleEndian.Uint64(data[24:]); sum != want {
		return dataErrf(data, 24, ErrChecksumMismatch, "payload checksum %x, header says %x", sum, want)
	}
	return nil
}
