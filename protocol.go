package compact

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// Relocatable is implemented, on pointer receivers, by every value that has a
// dynamic part reachable through Ptr fields.
//
// Plain types that don't implement Relocatable are treated as trivially
// relocatable: they are copied bitwise and have no dynamic part. Use the
// generic functions in this file rather than calling the methods directly.
type Relocatable interface {
	// IsStillCompact reports whether every Ptr reachable from the value is
	// Compact or Uninitialized, i.e. nothing has spilled into free storage.
	IsStillCompact() bool

	// DynamicSizeBytes is the number of bytes the dynamic part would occupy
	// if the value were compacted now. Always a multiple of 8.
	DynamicSizeBytes() int

	// CompactTo moves the receiver into dest (a slot of the receiver's type)
	// with its dynamic part written at dynamic, which must have room for
	// DynamicSizeBytes() bytes. The receiver is consumed: its free storage is
	// released and it is left as an empty placeholder.
	CompactTo(dest, dynamic unsafe.Pointer)

	// DecompactTo writes a fully free-mode copy of the receiver into dest,
	// allocating fresh storage for every dynamic part. The receiver is only read.
	DecompactTo(dest unsafe.Pointer)
}

// Releaser is implemented by values that own allocator storage.
type Releaser interface {
	Release()
}

func IsStillCompact[T any](v *T) bool {
	if r, ok := any(v).(Relocatable); ok {
		return r.IsStillCompact()
	}
	return true
}

func DynamicSizeBytes[T any](v *T) int {
	if r, ok := any(v).(Relocatable); ok {
		return r.DynamicSizeBytes()
	}
	return 0
}

// FixedSizeBytes is the size of T's fixed part, rounded up to 8 bytes so that
// a dynamic part placed behind it stays aligned.
func FixedSizeBytes[T any]() int {
	var zero T
	return align8(int(unsafe.Sizeof(zero)))
}

func TotalSizeBytes[T any](v *T) int {
	return FixedSizeBytes[T]() + DynamicSizeBytes(v)
}

// Compact moves src into dest, writing its dynamic part at dynamic.
func Compact[T any](src, dest *T, dynamic unsafe.Pointer) {
	if r, ok := any(src).(Relocatable); ok {
		r.CompactTo(unsafe.Pointer(dest), dynamic)
	} else {
		mustBePlain[T]()
		*dest = *src
	}
}

// CompactBehind compacts src into dest with the dynamic part immediately
// following dest's fixed part. dest must have room for TotalSizeBytes(src).
func CompactBehind[T any](src, dest *T) {
	Compact(src, dest, unsafe.Add(unsafe.Pointer(dest), FixedSizeBytes[T]()))
}

// Decompact returns a free-mode copy of src that shares no storage with it.
func Decompact[T any](src *T) T {
	var out T
	if r, ok := any(src).(Relocatable); ok {
		r.DecompactTo(unsafe.Pointer(&out))
	} else {
		out = *src
	}
	return out
}

// Release returns all free storage owned by v to its allocators and resets v.
// Storage that lives inside a region is left alone; the region owns it.
func Release[T any](v *T) {
	if r, ok := any(v).(Releaser); ok {
		r.Release()
	}
}

// Take moves the value out of v and leaves the zero value behind. The result
// does not depend on v's address, even if v sits inside a region.
func Take[T any](v *T) T {
	var out T
	if _, ok := any(v).(Relocatable); ok {
		out = Decompact(v)
		Release(v)
	} else {
		out = *v
	}
	var zero T
	*v = zero
	return out
}

// Cursor is the write position inside a dynamic part being filled.
type Cursor struct {
	next unsafe.Pointer
}

func CursorAt(p unsafe.Pointer) Cursor {
	return Cursor{p}
}

func (c *Cursor) Next() unsafe.Pointer {
	return c.next
}

// Skip reserves n bytes and returns their start.
func (c *Cursor) Skip(n int) unsafe.Pointer {
	p := c.next
	if n > 0 {
		c.next = unsafe.Add(c.next, n)
	}
	return p
}

// CompactField compacts one field of a composite value at the cursor and
// advances the cursor by exactly the field's dynamic size. Calling it for each
// field in declaration order lays out the composite's dynamic part the same
// way the composite's DynamicSizeBytes counts it.
func CompactField[T any](c *Cursor, src, dest *T) {
	n := DynamicSizeBytes(src) // before src is consumed
	Compact(src, dest, c.next)
	c.Skip(n)
}

func isTrivial[T any]() bool {
	_, ok := any((*T)(nil)).(Relocatable)
	return !ok
}

type typeInfo struct {
	plain bool

	// hidden is set for a non-relocatable struct or array holding
	// relocatable parts that would be copied bitwise.
	hidden bool
}

var (
	typeInfos       sync.Map // reflect.Type -> typeInfo
	relocatableType = reflect.TypeFor[Relocatable]()
)

// mustBePlain panics unless T can be stored in memory the garbage collector
// doesn't scan, and can be relocated correctly.
func mustBePlain[T any]() {
	t := reflect.TypeFor[T]()
	ti := infoFor(t)
	if !ti.plain {
		panic(fmt.Sprintf("compact: %v contains Go pointers and cannot live in allocator memory", t))
	}
	if ti.hidden {
		panic(fmt.Sprintf("compact: %v has relocatable fields and must implement Relocatable itself", t))
	}
}

func infoFor(t reflect.Type) typeInfo {
	if v, ok := typeInfos.Load(t); ok {
		return v.(typeInfo)
	}
	ti := typeInfo{plain: isPlain(t)}
	if !reflect.PointerTo(t).Implements(relocatableType) {
		ti.hidden = hasRelocatableParts(t)
	}
	typeInfos.Store(t, ti)
	return ti
}

func isPlain(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || isPlain(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !isPlain(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func hasRelocatableParts(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Array:
		return t.Len() > 0 && (reflect.PointerTo(t.Elem()).Implements(relocatableType) || hasRelocatableParts(t.Elem()))
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			ft := t.Field(i).Type
			if reflect.PointerTo(ft).Implements(relocatableType) || hasRelocatableParts(ft) {
				return true
			}
		}
	}
	return false
}

func align8(n int) int {
	return (n + 7) &^ 7
}
