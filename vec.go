package compact

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"strings"
	"unsafe"
)

// Vec is a growable contiguous buffer of T.
//
// Its storage is either free (allocated through the Vec's allocator) or
// compact (inside the region the Vec itself lives in). A compact Vec has
// cap == len, so the first growth moves it into free storage.
//
// T must be plain data. Element pointers returned by At, Iter and All stay
// valid until the next operation that changes the Vec's length or order.
type Vec[T any] struct {
	ptr   Ptr[T]
	len   uint32
	cap   uint32
	alloc AllocatorID
	_     uint32
}

func NewVec[T any]() Vec[T] {
	return Vec[T]{}
}

// NewVecIn returns an empty Vec that allocates through the given allocator.
func NewVecIn[T any](id AllocatorID) Vec[T] {
	id.Allocator()
	return Vec[T]{alloc: id}
}

func VecWithCapacity[T any](n int) Vec[T] {
	return VecWithCapacityIn[T](DefaultAllocator, n)
}

func VecWithCapacityIn[T any](id AllocatorID, n int) Vec[T] {
	v := NewVecIn[T](id)
	if n > 0 {
		v.realloc(n)
	}
	return v
}

// VecOf returns a Vec holding the given items, which must be free-mode values.
func VecOf[T any](items ...T) Vec[T] {
	v := VecWithCapacity[T](len(items))
	v.ExtendFromSlice(items)
	return v
}

func (v *Vec[T]) Len() int {
	return int(v.len)
}

func (v *Vec[T]) Cap() int {
	return int(v.cap)
}

func (v *Vec[T]) IsEmpty() bool {
	return v.len == 0
}

func (v *Vec[T]) Allocator() AllocatorID {
	return v.alloc
}

// IsFree reports whether the Vec's own storage is free (not inside a region).
func (v *Vec[T]) IsFree() bool {
	return v.ptr.IsFree()
}

func (v *Vec[T]) elemSize() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func (v *Vec[T]) slot(i int) *T {
	return &v.ptr.Slice(int(v.cap))[i]
}

func (v *Vec[T]) checkIndex(i int, op string) {
	if i < 0 || i >= int(v.len) {
		panic(fmt.Sprintf("compact: %s index %d out of range [0:%d]", op, i, v.len))
	}
}

// Slice returns the elements as a Go slice aliasing the Vec's storage.
func (v *Vec[T]) Slice() []T {
	return v.ptr.Slice(int(v.len))
}

func (v *Vec[T]) At(i int) *T {
	v.checkIndex(i, "At")
	return &v.Slice()[i]
}

// Set replaces element i with x, releasing the previous element.
func (v *Vec[T]) Set(i int, x T) {
	p := v.At(i)
	Release(p)
	*p = x
}

// Push appends x, which must be a free-mode value.
func (v *Vec[T]) Push(x T) {
	if v.len == v.cap {
		v.realloc(max(2*int(v.cap), int(v.len)+1, 4))
	}
	*v.slot(int(v.len)) = x
	v.len++
}

// Pop removes and returns the last element.
func (v *Vec[T]) Pop() (T, bool) {
	var zero T
	if v.len == 0 {
		return zero, false
	}
	v.spill()
	s := v.Slice()
	out := s[len(s)-1]
	s[len(s)-1] = zero
	v.len--
	return out, true
}

// Remove removes element i, shifting the following elements down.
func (v *Vec[T]) Remove(i int) T {
	v.checkIndex(i, "Remove")
	v.spill()
	s := v.Slice()
	out := s[i]
	copy(s[i:], s[i+1:])
	var zero T
	s[len(s)-1] = zero
	v.len--
	return out
}

// Insert inserts x at index i, shifting the following elements up.
func (v *Vec[T]) Insert(i int, x T) {
	if i < 0 || i > int(v.len) {
		panic(fmt.Sprintf("compact: Insert index %d out of range [0:%d]", i, v.len))
	}
	if v.len == v.cap {
		v.realloc(max(2*int(v.cap), int(v.len)+1, 4))
	} else {
		v.spill()
	}
	v.len++
	s := v.Slice()
	copy(s[i+1:], s[i:])
	s[i] = x
}

func (v *Vec[T]) Swap(i, j int) {
	v.checkIndex(i, "Swap")
	v.checkIndex(j, "Swap")
	if i == j {
		return
	}
	v.spill()
	s := v.Slice()
	s[i], s[j] = s[j], s[i]
}

// Reserve makes room for at least n more elements.
func (v *Vec[T]) Reserve(n int) {
	if need := int(v.len) + n; need > int(v.cap) {
		v.realloc(max(2*int(v.cap), need))
	}
}

// ExtendFromSlice appends copies of items, which must be free-mode values.
func (v *Vec[T]) ExtendFromSlice(items []T) {
	if len(items) == 0 {
		return
	}
	v.Reserve(len(items))
	n := int(v.len)
	v.len += uint32(len(items))
	copy(v.Slice()[n:], items)
}

// Clear releases all elements but keeps the storage.
func (v *Vec[T]) Clear() {
	if !isTrivial[T]() {
		s := v.Slice()
		for i := range s {
			Release(&s[i])
		}
	}
	v.len = 0
}

func (v *Vec[T]) Iter() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for i := 0; i < int(v.len); i++ {
			if !yield(&v.Slice()[i]) {
				return
			}
		}
	}
}

func (v *Vec[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := 0; i < int(v.len); i++ {
			if !yield(i, &v.Slice()[i]) {
				return
			}
		}
	}
}

func (v *Vec[T]) Clone() Vec[T] {
	return Decompact(v)
}

// Release returns the Vec's free storage, and that of its elements, to the
// allocator and leaves v empty.
func (v *Vec[T]) Release() {
	if !isTrivial[T]() {
		s := v.Slice()
		for i := range s {
			Release(&s[i])
		}
	}
	v.ptr.ReleaseIfFree(int(v.cap), v.alloc)
	*v = Vec[T]{alloc: v.alloc}
}

// realloc moves the elements into newly allocated free storage of the given
// capacity.
func (v *Vec[T]) realloc(newCap int) {
	if uint64(newCap) > math.MaxUint32 {
		panic(fmt.Sprintf("compact: capacity %d is too large", newCap))
	}
	mustBePlain[T]()
	dst := unsafe.Slice((*T)(v.alloc.Allocator().Allocate(storageSize[T](newCap))), newCap)

	old := v.Slice()
	if v.ptr.IsCompact() && !isTrivial[T]() {
		// compact elements are address-sensitive and can't be moved bitwise
		for i := range old {
			dst[i] = Decompact(&old[i])
			Release(&old[i])
		}
	} else {
		copy(dst, old)
	}
	v.ptr.ReleaseIfFree(int(v.cap), v.alloc)
	v.ptr.SetFree(&dst[0])
	v.cap = uint32(newCap)
}

// spill moves compact storage of relocatable elements into free storage ahead
// of an operation that would move elements around.
func (v *Vec[T]) spill() {
	if v.len > 0 && !v.ptr.IsFree() && !isTrivial[T]() {
		v.realloc(int(v.cap))
	}
}

func (v *Vec[T]) IsStillCompact() bool {
	if !v.ptr.IsCompact() {
		return false
	}
	if !isTrivial[T]() {
		for p := range v.Iter() {
			if !IsStillCompact(p) {
				return false
			}
		}
	}
	return true
}

// DynamicSizeBytes is the aligned size of the elements' fixed parts followed
// by every element's dynamic part.
func (v *Vec[T]) DynamicSizeBytes() int {
	n := align8(int(v.len) * v.elemSize())
	if !isTrivial[T]() {
		for p := range v.Iter() {
			n += DynamicSizeBytes(p)
		}
	}
	return n
}

func (v *Vec[T]) CompactTo(dest, dynamic unsafe.Pointer) {
	d := (*Vec[T])(dest)
	n, alloc := int(v.len), v.alloc
	if n == 0 {
		v.Release()
		*d = Vec[T]{alloc: alloc}
		return
	}

	elems := unsafe.Slice((*T)(dynamic), n)
	src := v.Slice()
	if isTrivial[T]() {
		copy(elems, src)
	} else {
		c := CursorAt(unsafe.Add(dynamic, align8(n*v.elemSize())))
		for i := range src {
			CompactField(&c, &src[i], &elems[i])
		}
	}
	v.ptr.ReleaseIfFree(int(v.cap), alloc)
	*v = Vec[T]{alloc: alloc}

	*d = Vec[T]{len: uint32(n), cap: uint32(n), alloc: alloc}
	d.ptr.SetCompact(&elems[0])
}

func (v *Vec[T]) DecompactTo(dest unsafe.Pointer) {
	out := Vec[T]{alloc: v.alloc}
	if n := int(v.len); n > 0 {
		out.realloc(n)
		dst := out.ptr.Slice(n)
		src := v.Slice()
		if isTrivial[T]() {
			copy(dst, src)
		} else {
			for i := range src {
				dst[i] = Decompact(&src[i])
			}
		}
		out.len = uint32(n)
	}
	*(*Vec[T])(dest) = out
}

func (v *Vec[T]) String() string {
	var buf strings.Builder
	buf.WriteByte('[')
	for i, p := range v.All() {
		if i > 0 {
			buf.WriteByte(' ')
		}
		writeElem(&buf, p)
	}
	buf.WriteByte(']')
	return buf.String()
}

// Contains reports whether v holds an element equal to x.
func Contains[T comparable](v *Vec[T], x T) bool {
	return slices.Contains(v.Slice(), x)
}

// Index returns the index of the first element equal to x, or -1.
func Index[T comparable](v *Vec[T], x T) int {
	return slices.Index(v.Slice(), x)
}

func writeElem[T any](buf *strings.Builder, p *T) {
	if s, ok := any(p).(fmt.Stringer); ok {
		buf.WriteString(s.String())
	} else {
		fmt.Fprint(buf, *p)
	}
}
