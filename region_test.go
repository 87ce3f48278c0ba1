package compact

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type catalog = Dict[int32, String]

func newCatalog(id AllocatorID, names ...string) catalog {
	d := NewDictIn[int32, String](id)
	for i, s := range names {
		d.Insert(int32(i+1), strIn(id, s))
	}
	return d
}

func TestRegion_RoundTrip(t *testing.T) {
	id, _ := trackedHeap(t)
	opt := RegionOptions{Allocator: id}
	d := newCatalog(id, "one", "two", "three")
	want := TotalSizeBytes(&d)

	r := NewRegion(&d, opt)
	defer r.Close()
	eq(t, d.Len(), 0)
	eq(t, r.PayloadSize(), want)
	eq(t, r.Size(), regionHeaderSize+want)
	eq(t, r.IsStillCompact(), true)

	blob := bytes.Clone(must(r.Bytes()))
	loaded := must(LoadRegion[catalog](blob, opt))
	defer loaded.Close()
	if loaded.Root() == r.Root() {
		t.Fatalf("** loaded region shares memory with the original")
	}
	eq(t, loaded.Root().String(), "{1: one, 2: two, 3: three}")
	deepEqual(t, must(loaded.Bytes()), blob)
}

func TestRegion_RejectsBadData(t *testing.T) {
	id, _ := trackedHeap(t)
	opt := RegionOptions{Allocator: id}
	d := newCatalog(id, "x")
	r := NewRegion(&d, opt)
	blob := bytes.Clone(must(r.Bytes()))
	must(0, r.Close())

	corrupt := func(f func(b []byte) []byte) []byte {
		return f(bytes.Clone(blob))
	}
	tests := []struct {
		name   string
		data   []byte
		target error
	}{
		{"short", blob[:10], nil},
		{"magic", corrupt(func(b []byte) []byte { b[0]++; return b }), nil},
		{"version", corrupt(func(b []byte) []byte { b[8] = 2; return b }), ErrUnsupportedVersion},
		{"payload size", corrupt(func(b []byte) []byte { return b[:len(b)-8] }), nil},
		{"checksum", corrupt(func(b []byte) []byte { b[len(b)-1] ^= 0xFF; return b }), ErrChecksumMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRegion[catalog](tt.data, opt)
			var de *DataError
			if !errors.As(err, &de) {
				t.Fatalf("** got %v, wanted *DataError", err)
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Fatalf("** got %v, wanted %v", err, tt.target)
			}
		})
	}

	_, err := LoadRegion[Vec[int64]](blob, opt)
	var de *DataError
	if !errors.As(err, &de) || de.Off != 12 {
		t.Fatalf("** loading as another type: got %v, wanted root size DataError", err)
	}
}

func TestRegion_Recompact(t *testing.T) {
	id, _ := trackedHeap(t)
	d := newCatalog(id, "a", "b")
	r := NewRegion(&d, RegionOptions{Allocator: id})
	defer r.Close()

	v, _ := r.Root().GetMut(2)
	v.PushStr(" and more")
	eq(t, r.IsStillCompact(), false)
	_, err := r.Bytes()
	if !errors.Is(err, ErrNotCompact) {
		t.Fatalf("** Bytes() = %v, wanted ErrNotCompact", err)
	}

	r.Recompact()
	eq(t, r.IsStillCompact(), true)
	eq(t, r.Root().String(), "{1: a, 2: b and more}")
	must(r.Bytes())

	r.Recompact() // no-op when compact
	eq(t, r.Root().String(), "{1: a, 2: b and more}")
}

func TestRegion_DetachOutlivesRegion(t *testing.T) {
	id, _ := trackedHeap(t)
	d := newCatalog(id, "kept")
	r := NewRegion(&d, RegionOptions{Allocator: id})
	out := r.Detach()
	must(0, r.Close())
	must(0, r.Close())
	assertPanics(t, "closed region", func() { r.Root() })

	v, _ := out.Get(1)
	eq(t, v.Str(), "kept")
	out.Release()
}

func TestRegionFile(t *testing.T) {
	id, _ := trackedHeap(t)
	path := filepath.Join(t.TempDir(), "nums.region")
	v := NewVecIn[int64](id)
	v.ExtendFromSlice([]int64{1, 2, 3})
	r := NewRegion(&v, RegionOptions{Allocator: id})
	if err := WriteRegionFile(path, r); err != nil {
		t.Fatal(err)
	}
	must(0, r.Close())

	m := must(OpenRegionFile[Vec[int64]](path, RegionOptions{}))
	deepEqual(t, m.Root().Slice(), []int64{1, 2, 3})
	m.Root().Set(0, 99) // private mapping, the file stays intact
	deepEqual(t, m.Root().Slice(), []int64{99, 2, 3})

	again := must(OpenRegionFile[Vec[int64]](path, RegionOptions{}))
	deepEqual(t, again.Root().Slice(), []int64{1, 2, 3})
	must(0, again.Close())

	m.Root().Push(4)
	eq(t, m.IsStillCompact(), false)
	m.Recompact() // moves the region out of the mapping
	deepEqual(t, m.Root().Slice(), []int64{99, 2, 3, 4})
	if err := WriteRegionFile(path, m); err != nil {
		t.Fatal(err)
	}
	must(0, m.Close())

	m = must(OpenRegionFile[Vec[int64]](path, RegionOptions{}))
	deepEqual(t, m.Root().Slice(), []int64{99, 2, 3, 4})
	must(0, m.Close())
}

func TestRegionFile_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := OpenRegionFile[Vec[int64]](filepath.Join(dir, "missing"), RegionOptions{})
	if !os.IsNotExist(err) {
		t.Fatalf("** got %v, wanted not-exist error", err)
	}

	short := filepath.Join(dir, "short")
	must(0, os.WriteFile(short, []byte("tiny"), 0666))
	_, err = OpenRegionFile[Vec[int64]](short, RegionOptions{})
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("** got %v, wanted *DataError", err)
	}

	bad := filepath.Join(dir, "bad")
	must(0, os.WriteFile(bad, bytes.Repeat([]byte{0xAB}, 64), 0666))
	_, err = OpenRegionFile[Vec[int64]](bad, RegionOptions{})
	if !errors.As(err, &de) {
		t.Fatalf("** got %v, wanted *DataError", err)
	}
	eq(t, len(de.Data), regionHeaderSize)
}
