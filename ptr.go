package compact

import (
	"fmt"
	"math"
	"unsafe"
)

type ptrState uint32

const (
	ptrUninitialized ptrState = iota
	ptrFree
	ptrCompact
)

// Ptr is a relocatable pointer to T. It is in one of three states:
//
//  1. Free: holds an absolute address of allocator-owned storage.
//  2. Compact: holds a signed 32-bit offset from the Ptr's own address, valid
//     while the Ptr and its target sit in the same region.
//  3. Uninitialized (the zero value): points nowhere.
//
// The state alone decides how the target address is computed. A Compact Ptr
// is address-sensitive: copying it by value to another location breaks it,
// which is why compact values are only ever accessed through pointers.
type Ptr[T any] struct {
	state ptrState
	off   int32
	addr  uintptr
}

// FreePtr returns a Ptr in the Free state pointing at target.
func FreePtr[T any](target *T) Ptr[T] {
	return Ptr[T]{state: ptrFree, addr: uintptr(unsafe.Pointer(target))}
}

func (p *Ptr[T]) SetFree(target *T) {
	p.state, p.off, p.addr = ptrFree, 0, uintptr(unsafe.Pointer(target))
}

// SetCompact points p at target using an offset relative to p itself.
// Both must be in the same region, no further than 2 GiB apart.
func (p *Ptr[T]) SetCompact(target *T) {
	off := int64(uintptr(unsafe.Pointer(target))) - int64(uintptr(unsafe.Pointer(p)))
	if off < math.MinInt32 || off > math.MaxInt32 {
		panic(fmt.Sprintf("compact: relative offset %d does not fit into 32 bits", off))
	}
	p.state, p.off, p.addr = ptrCompact, int32(off), 0
}

// Get resolves the current target, or returns nil when uninitialized.
func (p *Ptr[T]) Get() *T {
	switch p.state {
	case ptrFree:
		return (*T)(unsafe.Pointer(p.addr))
	case ptrCompact:
		return (*T)(unsafe.Add(unsafe.Pointer(p), p.off))
	default:
		return nil
	}
}

// Slice returns the n values starting at the target.
func (p *Ptr[T]) Slice(n int) []T {
	if n == 0 {
		return nil
	}
	t := p.Get()
	if t == nil {
		panic("compact: dereferencing uninitialized pointer")
	}
	return unsafe.Slice(t, n)
}

// IsCompact reports whether p owns nothing, i.e. is Compact or Uninitialized.
func (p *Ptr[T]) IsCompact() bool {
	return p.state != ptrFree
}

func (p *Ptr[T]) IsFree() bool {
	return p.state == ptrFree
}

// ReleaseIfFree returns the storage of n values to allocator id if p is Free.
// This is the only path by which buffer storage is ever released. p keeps its
// state; the caller resets it.
func (p *Ptr[T]) ReleaseIfFree(n int, id AllocatorID) {
	if p.state == ptrFree {
		id.Allocator().Deallocate(unsafe.Pointer(p.addr), storageSize[T](n))
	}
}

func (p *Ptr[T]) String() string {
	switch p.state {
	case ptrFree:
		return fmt.Sprintf("free 0x%x", p.addr)
	case ptrCompact:
		return fmt.Sprintf("compact %+d", p.off)
	default:
		return "uninitialized"
	}
}

// storageSize is the byte size of an allocation for n values of T. Zero-size
// types still get a non-empty block so that they have a distinct address.
func storageSize[T any](n int) int {
	var zero T
	return max(n*int(unsafe.Sizeof(zero)), 1)
}
