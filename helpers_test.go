package compact

import (
	"reflect"
	"strings"
	"testing"
	"unsafe"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func eq[T comparable](t testing.TB, a, e T) {
	if a != e {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func assertPanics(t *testing.T, substr string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("** did not panic, wanted panic containing %q", substr)
		}
		var msg string
		switch r := r.(type) {
		case string:
			msg = r
		case error:
			msg = r.Error()
		}
		if !strings.Contains(msg, substr) {
			t.Fatalf("** panicked with %q, wanted %q", msg, substr)
		}
	}()
	fn()
}

// trackedHeap registers a fresh heap allocator and fails the test if anything
// allocated through it is still live at the end.
func trackedHeap(t *testing.T) (AllocatorID, *HeapAllocator) {
	h := &HeapAllocator{}
	id := RegisterAllocator(h)
	t.Cleanup(func() {
		if n, size := h.InUse(); n != 0 {
			t.Errorf("** leaked %d blocks (%d bytes)", n, size)
		}
	})
	return id, h
}

// scratch is a block of allocator memory a test compacts values into.
type scratch struct {
	id   AllocatorID
	p    unsafe.Pointer
	size int
}

func newScratch(t *testing.T, id AllocatorID, size int) *scratch {
	s := &scratch{id, id.Allocator().Allocate(size), size}
	t.Cleanup(func() { id.Allocator().Deallocate(s.p, s.size) })
	return s
}

func (s *scratch) bytes() []byte {
	return unsafe.Slice((*byte)(s.p), s.size)
}

// compactInto compacts v into fresh scratch memory and returns the compacted
// copy.
func compactInto[T any](t *testing.T, id AllocatorID, v *T) *T {
	s := newScratch(t, id, TotalSizeBytes(v))
	dest := (*T)(s.p)
	CompactBehind(v, dest)
	return dest
}

// relocate copies the bytes of a compacted value to a new address.
func relocate[T any](t *testing.T, id AllocatorID, v *T) *T {
	n := TotalSizeBytes(v)
	s := newScratch(t, id, n)
	copy(s.bytes(), unsafe.Slice((*byte)(unsafe.Pointer(v)), n))
	return (*T)(s.p)
}

func strIn(id AllocatorID, s string) String {
	str := NewStringIn(id)
	str.PushStr(s)
	return str
}
