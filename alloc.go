package compact

import (
	"fmt"
	"sync"
	"unsafe"
)

// Allocator hands out raw memory for the dynamic parts of containers.
//
// Memory must be zeroed, 8-byte aligned and invisible to the garbage collector
// (or at least never scanned for pointers). Running out of memory is fatal, so
// Allocate panics rather than returning an error.
type Allocator interface {
	Allocate(size int) unsafe.Pointer
	Deallocate(p unsafe.Pointer, size int)
}

// AllocatorID names a registered Allocator. Containers store IDs rather than
// Allocator values because their fixed parts must stay plain data.
type AllocatorID uint32

// DefaultAllocator is the ID of Heap.
const DefaultAllocator AllocatorID = 0

// Heap is the default allocator, backed by the Go heap.
var Heap = &HeapAllocator{}

var (
	allocatorsMu sync.RWMutex
	allocators   = []Allocator{Heap}
)

// RegisterAllocator makes a available to containers and returns its ID.
// Registration is permanent; register each allocator once.
func RegisterAllocator(a Allocator) AllocatorID {
	if a == nil {
		panic("compact: nil allocator")
	}
	allocatorsMu.Lock()
	defer allocatorsMu.Unlock()
	allocators = append(allocators, a)
	return AllocatorID(len(allocators) - 1)
}

// Allocator returns the allocator registered under id.
func (id AllocatorID) Allocator() Allocator {
	allocatorsMu.RLock()
	defer allocatorsMu.RUnlock()
	if int(id) >= len(allocators) {
		panic(fmt.Sprintf("compact: unknown allocator %d", id))
	}
	return allocators[id]
}

// HeapAllocator allocates noscan blocks on the Go heap and keeps them
// reachable until they are deallocated. Addresses stored in Free pointers stay
// valid because the Go heap does not move objects.
//
// HeapAllocator is safe for concurrent use.
type HeapAllocator struct {
	mu     sync.Mutex
	blocks map[uintptr][]uint64
	inuse  int64
}

func (h *HeapAllocator) Allocate(size int) unsafe.Pointer {
	if size <= 0 {
		panic(fmt.Sprintf("compact: invalid allocation size %d", size))
	}
	block := make([]uint64, (size+7)/8)
	p := unsafe.Pointer(&block[0])

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.blocks == nil {
		h.blocks = make(map[uintptr][]uint64)
	}
	h.blocks[uintptr(p)] = block
	h.inuse += int64(len(block) * 8)
	return p
}

func (h *HeapAllocator) Deallocate(p unsafe.Pointer, size int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	block, ok := h.blocks[uintptr(p)]
	if !ok {
		panic(fmt.Sprintf("compact: deallocating unknown block %p", p))
	}
	if size > len(block)*8 {
		panic(fmt.Sprintf("compact: deallocating %d bytes from a block of %d bytes", size, len(block)*8))
	}
	delete(h.blocks, uintptr(p))
	h.inuse -= int64(len(block) * 8)
}

// InUse reports the number of live blocks and their total size in bytes.
func (h *HeapAllocator) InUse() (blocks int, bytes int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.blocks), h.inuse
}
