package compact

import (
	"iter"
	"slices"
	"strings"
	"unsafe"
)

// Dict is a linear-search key-value dictionary made of two index-aligned
// Vecs, one for keys and one for values. Entry i of keys always belongs to
// entry i of values, and a key occurs at most once.
//
// Keys must be plain comparable values without a dynamic part. Values may be
// any plain type, including other containers.
type Dict[K comparable, V any] struct {
	keys   Vec[K]
	values Vec[V]
}

func NewDict[K comparable, V any]() Dict[K, V] {
	return Dict[K, V]{}
}

func NewDictIn[K comparable, V any](id AllocatorID) Dict[K, V] {
	return Dict[K, V]{NewVecIn[K](id), NewVecIn[V](id)}
}

func DictWithCapacity[K comparable, V any](n int) Dict[K, V] {
	return Dict[K, V]{VecWithCapacity[K](n), VecWithCapacity[V](n)}
}

// DictFrom builds a Dict from key-value pairs; later pairs replace earlier
// ones with the same key.
func DictFrom[K comparable, V any](pairs iter.Seq2[K, V]) Dict[K, V] {
	d := NewDict[K, V]()
	d.Extend(pairs)
	return d
}

func (d *Dict[K, V]) Len() int {
	return d.keys.Len()
}

func (d *Dict[K, V]) IsEmpty() bool {
	return d.keys.IsEmpty()
}

func (d *Dict[K, V]) index(key K) int {
	return slices.Index(d.keys.Slice(), key)
}

// Get looks up the value for key. The returned pointer is valid until the
// next mutation of d.
func (d *Dict[K, V]) Get(key K) (*V, bool) {
	if i := d.index(key); i >= 0 {
		return d.values.At(i), true
	}
	return nil, false
}

// GetMut is Get for callers that modify the value in place. For a Dict that
// lives inside a region, the modification happens inside the region; a
// value that grows spills into free storage.
func (d *Dict[K, V]) GetMut(key K) (*V, bool) {
	return d.Get(key)
}

// GetMRU looks up the value for key and swaps the entry to the front, so that
// a repeated lookup for it is faster.
func (d *Dict[K, V]) GetMRU(key K) (*V, bool) {
	i := d.index(key)
	if i < 0 {
		return nil, false
	}
	d.swap(0, i)
	return d.values.At(0), true
}

// GetMFU looks up the value for key and moves the entry one step towards the
// front, so frequently used entries gradually gather at the beginning.
func (d *Dict[K, V]) GetMFU(key K) (*V, bool) {
	i := d.index(key)
	if i < 0 {
		return nil, false
	}
	if i > 0 {
		d.swap(i-1, i)
		i--
	}
	return d.values.At(i), true
}

func (d *Dict[K, V]) swap(i, j int) {
	if i != j {
		d.keys.Swap(i, j)
		d.values.Swap(i, j)
	}
}

func (d *Dict[K, V]) ContainsKey(key K) bool {
	return d.index(key) >= 0
}

// Insert stores value under key. If the key was present, the previous value
// is returned (and now belongs to the caller).
func (d *Dict[K, V]) Insert(key K, value V) (V, bool) {
	if i := d.index(key); i >= 0 {
		d.values.spill()
		p := d.values.At(i)
		old := *p
		*p = value
		return old, true
	}
	if !isTrivial[K]() {
		panic("compact: Dict keys must not have a dynamic part")
	}
	d.keys.Push(key)
	d.values.Push(value)
	var zero V
	return zero, false
}

// Remove deletes the entry for key and returns its value. The remaining
// entries keep their relative order.
func (d *Dict[K, V]) Remove(key K) (V, bool) {
	i := d.index(key)
	if i < 0 {
		var zero V
		return zero, false
	}
	d.keys.Remove(i)
	return d.values.Remove(i), true
}

func (d *Dict[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for _, k := range d.keys.Slice() {
			if !yield(k) {
				return
			}
		}
	}
}

func (d *Dict[K, V]) Values() iter.Seq[*V] {
	return d.values.Iter()
}

// ValuesMut yields pointers suitable for modifying the values in place.
func (d *Dict[K, V]) ValuesMut() iter.Seq[*V] {
	return d.values.Iter()
}

func (d *Dict[K, V]) Pairs() iter.Seq2[K, *V] {
	return func(yield func(K, *V) bool) {
		for i := 0; i < d.keys.Len(); i++ {
			if !yield(*d.keys.At(i), d.values.At(i)) {
				return
			}
		}
	}
}

// Extend inserts all pairs, releasing any values they displace.
func (d *Dict[K, V]) Extend(pairs iter.Seq2[K, V]) {
	for k, v := range pairs {
		if old, ok := d.Insert(k, v); ok {
			Release(&old)
		}
	}
}

func (d *Dict[K, V]) Clone() Dict[K, V] {
	return Decompact(d)
}

func (d *Dict[K, V]) Release() {
	d.keys.Release()
	d.values.Release()
}

func (d *Dict[K, V]) IsStillCompact() bool {
	return d.keys.IsStillCompact() && d.values.IsStillCompact()
}

func (d *Dict[K, V]) DynamicSizeBytes() int {
	return d.keys.DynamicSizeBytes() + d.values.DynamicSizeBytes()
}

// CompactTo places the keys' dynamic part at dynamic and the values' right
// after it.
func (d *Dict[K, V]) CompactTo(dest, dynamic unsafe.Pointer) {
	dd := (*Dict[K, V])(dest)
	c := CursorAt(dynamic)
	CompactField(&c, &d.keys, &dd.keys)
	CompactField(&c, &d.values, &dd.values)
}

func (d *Dict[K, V]) DecompactTo(dest unsafe.Pointer) {
	*(*Dict[K, V])(dest) = Dict[K, V]{Decompact(&d.keys), Decompact(&d.values)}
}

func (d *Dict[K, V]) String() string {
	var buf strings.Builder
	buf.WriteByte('{')
	for k, v := range d.Pairs() {
		if buf.Len() > 1 {
			buf.WriteString(", ")
		}
		writeElem(&buf, &k)
		buf.WriteString(": ")
		writeElem(&buf, v)
	}
	buf.WriteByte('}')
	return buf.String()
}

// PushAt appends item to the sequence stored under key, creating it if absent.
func PushAt[K comparable, I any](d *Dict[K, Vec[I]], key K, item I) {
	if seq, ok := d.Get(key); ok {
		seq.Push(item)
		return
	}
	seq := NewVecIn[I](d.values.alloc)
	seq.Push(item)
	d.Insert(key, seq)
}

// IterAt iterates over the sequence stored under key, if any.
func IterAt[K comparable, I any](d *Dict[K, Vec[I]], key K) iter.Seq[*I] {
	return func(yield func(*I) bool) {
		seq, ok := d.Get(key)
		if !ok {
			return
		}
		for p := range seq.Iter() {
			if !yield(p) {
				return
			}
		}
	}
}

// RemoveIterAt removes the sequence stored under key right away and returns
// an iterator over its elements, which now belong to the caller.
func RemoveIterAt[K comparable, I any](d *Dict[K, Vec[I]], key K) iter.Seq[I] {
	seq, ok := d.Remove(key)
	if !ok {
		return func(func(I) bool) {}
	}
	items := slices.Clone(seq.Slice())
	seq.ptr.ReleaseIfFree(seq.Cap(), seq.alloc)
	return slices.Values(items)
}
