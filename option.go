package compact

import (
	"strings"
	"unsafe"
)

// Option holds zero or one value. An empty Option has no dynamic part.
type Option[T any] struct {
	some  bool
	value T
}

func Some[T any](v T) Option[T] {
	return Option[T]{true, v}
}

func None[T any]() Option[T] {
	return Option[T]{}
}

func (o *Option[T]) IsSome() bool {
	return o.some
}

func (o *Option[T]) IsNone() bool {
	return !o.some
}

// Get returns a pointer to the contained value, valid while o holds it.
func (o *Option[T]) Get() (*T, bool) {
	if !o.some {
		return nil, false
	}
	return &o.value, true
}

// Set stores v, releasing the previously contained value.
func (o *Option[T]) Set(v T) {
	o.Release()
	o.some, o.value = true, v
}

// Take moves the contained value out and leaves o empty.
func (o *Option[T]) Take() (T, bool) {
	if !o.some {
		var zero T
		return zero, false
	}
	v := Take(&o.value)
	o.some = false
	return v, true
}

func (o *Option[T]) Release() {
	if o.some {
		Release(&o.value)
	}
	*o = Option[T]{}
}

func (o *Option[T]) Clone() Option[T] {
	return Decompact(o)
}

func (o *Option[T]) IsStillCompact() bool {
	return !o.some || IsStillCompact(&o.value)
}

func (o *Option[T]) DynamicSizeBytes() int {
	if !o.some {
		return 0
	}
	return DynamicSizeBytes(&o.value)
}

// CompactTo writes an empty marker for an empty Option. Otherwise the fixed
// part, occupied tag included, goes to dest first, and then the value is
// compacted into dest's slot.
func (o *Option[T]) CompactTo(dest, dynamic unsafe.Pointer) {
	d := (*Option[T])(dest)
	if !o.some {
		*d = Option[T]{}
		return
	}
	*d = *o
	Compact(&o.value, &d.value, dynamic)
	*o = Option[T]{}
}

func (o *Option[T]) DecompactTo(dest unsafe.Pointer) {
	d := (*Option[T])(dest)
	if !o.some {
		*d = Option[T]{}
		return
	}
	*d = Option[T]{true, Decompact(&o.value)}
}

func (o *Option[T]) String() string {
	if !o.some {
		return "None"
	}
	var buf strings.Builder
	buf.WriteString("Some(")
	writeElem(&buf, &o.value)
	buf.WriteByte(')')
	return buf.String()
}
