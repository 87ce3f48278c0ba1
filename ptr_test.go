package compact

import (
	"testing"
	"unsafe"
)

func TestPtr_Uninitialized(t *testing.T) {
	var p Ptr[int64]
	if p.Get() != nil {
		t.Fatalf("Get() = %p, wanted nil", p.Get())
	}
	eq(t, p.IsCompact(), true)
	eq(t, p.IsFree(), false)
	eq(t, p.String(), "uninitialized")
	eq(t, len(p.Slice(0)), 0)
	assertPanics(t, "uninitialized", func() { p.Slice(1) })
}

func TestPtr_Free(t *testing.T) {
	x := int64(42)
	p := FreePtr(&x)
	eq(t, p.Get(), &x)
	eq(t, p.IsFree(), true)
	eq(t, p.IsCompact(), false)

	q := p // free pointers survive being copied
	eq(t, *q.Get(), int64(42))
}

func TestPtr_CompactIsRelative(t *testing.T) {
	buf := make([]uint64, 4)
	p := (*Ptr[uint64])(unsafe.Pointer(&buf[0]))
	buf[3] = 77
	p.SetCompact(&buf[3])
	eq(t, p.IsCompact(), true)
	eq(t, p.String(), "compact +24")
	eq(t, p.Get(), &buf[3])

	moved := make([]uint64, 4)
	copy(moved, buf)
	q := (*Ptr[uint64])(unsafe.Pointer(&moved[0]))
	eq(t, q.Get(), &moved[3])
	eq(t, *q.Get(), uint64(77))
}

func TestPtr_CompactBackwards(t *testing.T) {
	buf := make([]uint64, 4)
	p := (*Ptr[uint64])(unsafe.Pointer(&buf[2]))
	p.SetCompact(&buf[0])
	eq(t, p.String(), "compact -16")
	eq(t, p.Get(), &buf[0])
}

func TestPtr_ReleaseIfFree(t *testing.T) {
	id, h := trackedHeap(t)
	p := FreePtr((*int64)(id.Allocator().Allocate(storageSize[int64](3))))
	p.ReleaseIfFree(3, id)
	n, _ := h.InUse()
	eq(t, n, 0)

	var q Ptr[int64]
	q.ReleaseIfFree(3, id) // no-op
}
