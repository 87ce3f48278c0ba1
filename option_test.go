package compact

import "testing"

func TestOption_Basics(t *testing.T) {
	o := None[int]()
	eq(t, o.IsNone(), true)
	eq(t, o.String(), "None")
	_, ok := o.Get()
	eq(t, ok, false)
	_, ok = o.Take()
	eq(t, ok, false)

	o.Set(5)
	eq(t, o.IsSome(), true)
	eq(t, o.String(), "Some(5)")
	p, _ := o.Get()
	*p = 6
	v, ok := o.Take()
	eq(t, v, 6)
	eq(t, ok, true)
	eq(t, o.IsNone(), true)
}

func TestOption_EmptyHasNoDynamicPart(t *testing.T) {
	id, _ := trackedHeap(t)
	o := None[Vec[int64]]()
	eq(t, DynamicSizeBytes(&o), 0)
	eq(t, IsStillCompact(&o), true)
	eq(t, TotalSizeBytes(&o), 40)

	c := compactInto(t, id, &o)
	eq(t, c.IsNone(), true)
	eq(t, IsStillCompact(c), true)
}

func TestOption_CompactValue(t *testing.T) {
	id, _ := trackedHeap(t)
	inner := NewVecIn[int64](id)
	inner.ExtendFromSlice([]int64{1, 2})
	o := Some(inner)
	eq(t, DynamicSizeBytes(&o), DynamicSizeBytes(&inner))
	eq(t, DynamicSizeBytes(&o), 16)
	eq(t, IsStillCompact(&o), false)

	c := compactInto(t, id, &o)
	eq(t, o.IsNone(), true)
	m := relocate(t, id, c)
	eq(t, IsStillCompact(m), true)
	eq(t, m.String(), "Some([1 2])")

	cl := m.Clone()
	eq(t, IsStillCompact(&cl), false)
	cl.Release()

	v, ok := m.Take()
	eq(t, ok, true)
	eq(t, v.IsFree(), true)
	deepEqual(t, v.Slice(), []int64{1, 2})
	eq(t, m.IsNone(), true)
	v.Release()
}

func TestOption_SetReleasesPrevious(t *testing.T) {
	id, _ := trackedHeap(t)
	o := Some(strIn(id, "a"))
	o.Set(strIn(id, "b"))
	p, _ := o.Get()
	eq(t, p.Str(), "b")
	o.Release()
	eq(t, o.IsNone(), true)
}
