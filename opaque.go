package compact

import (
	"unsafe"
)

// Opaque is a type-erasing box: a byte buffer holding a compacted snapshot of
// one value, fixed part first, sized exactly to the value's total size.
//
// The erased type is not recorded and cannot be recovered from the box.
// Callers that need the value back have to know its type out of band and
// reinterpret the bytes themselves.
type Opaque struct {
	data Vec[byte]
}

// NewOpaque compacts v into a new box and consumes v: all of v's storage now
// lives in (or has been released into) the box, and v is reset to zero.
func NewOpaque[T any](v *T) Opaque {
	return NewOpaqueIn(DefaultAllocator, v)
}

func NewOpaqueIn[T any](id AllocatorID, v *T) Opaque {
	mustBePlain[T]()
	n := TotalSizeBytes(v)
	if n == 0 {
		var zero T
		*v = zero
		return Opaque{NewVecIn[byte](id)}
	}
	data := VecWithCapacityIn[byte](id, n)
	data.len = uint32(n)
	CompactBehind(v, (*T)(unsafe.Pointer(data.ptr.Get())))
	var zero T
	*v = zero
	return Opaque{data}
}

// SizeBytes is the total size of the boxed value.
func (o *Opaque) SizeBytes() int {
	return o.data.Len()
}

// Bytes returns the box contents without copying.
func (o *Opaque) Bytes() []byte {
	return o.data.Slice()
}

func (o *Opaque) Clone() Opaque {
	return Decompact(o)
}

// Release frees the box. Storage that the boxed value spilled into after
// construction is beyond the box's knowledge and is not released.
func (o *Opaque) Release() {
	o.data.Release()
}

func (o *Opaque) IsStillCompact() bool {
	return o.data.IsStillCompact()
}

func (o *Opaque) DynamicSizeBytes() int {
	return o.data.DynamicSizeBytes()
}

// CompactTo moves the snapshot as one block of bytes, which keeps the
// relative offsets inside it valid.
func (o *Opaque) CompactTo(dest, dynamic unsafe.Pointer) {
	o.data.CompactTo(unsafe.Pointer(&(*Opaque)(dest).data), dynamic)
}

func (o *Opaque) DecompactTo(dest unsafe.Pointer) {
	*(*Opaque)(dest) = Opaque{Decompact(&o.data)}
}
