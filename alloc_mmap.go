//go:build unix

package compact

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/andreyvit/compact/mmap"
)

// MmapAllocator gives every allocation its own anonymous private mapping.
// Allocations are rounded up to whole pages, so it suits large, long-lived
// regions and boxes rather than small growable buffers.
//
// MmapAllocator is safe for concurrent use.
type MmapAllocator struct {
	mu       sync.Mutex
	mappings map[uintptr][]byte
}

func (m *MmapAllocator) Allocate(size int) unsafe.Pointer {
	b, err := mmap.Anonymous(size)
	if err != nil {
		panic(fmt.Errorf("compact: cannot map %d bytes: %w", size, err))
	}
	p := unsafe.Pointer(&b[0])

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mappings == nil {
		m.mappings = make(map[uintptr][]byte)
	}
	m.mappings[uintptr(p)] = b
	return p
}

func (m *MmapAllocator) Deallocate(p unsafe.Pointer, size int) {
	m.mu.Lock()
	b, ok := m.mappings[uintptr(p)]
	delete(m.mappings, uintptr(p))
	m.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("compact: deallocating unknown mapping %p", p))
	}
	if err := mmap.Unmap(b); err != nil {
		panic(fmt.Errorf("compact: cannot unmap %d bytes: %w", len(b), err))
	}
}

// Mappings returns the number of live mappings.
func (m *MmapAllocator) Mappings() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mappings)
}
