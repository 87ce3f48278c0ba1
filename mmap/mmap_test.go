package mmap

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOptionsHas(t *testing.T) {
	var o Options = Writable | Prefault
	if !o.Has(Writable) || o.Has(SequentialAccess) {
		t.Fatalf("Options.Has returned unexpected results for %v", o)
	}
	if !CopyOnWrite.writable() || SequentialAccess.writable() {
		t.Fatalf("writable() returned unexpected results")
	}
}

func TestMapAndUnmap(t *testing.T) {
	f := tempFile(t, 4096)

	b := must(Map(f, 4096, Writable|RandomAccess))
	if len(b) != 4096 {
		t.Fatalf("len(mapping) = %d, wanted 4096", len(b))
	}
	b[0] = 0x42
	if err := Sync(f, b); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := Unmap(b); err != nil {
		t.Fatalf("Unmap: %v", err)
	}

	var got [1]byte
	if _, err := f.ReadAt(got[:], 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if got[0] != 0x42 {
		t.Fatalf("file byte = %x, wanted 42", got[0])
	}
}

func TestMap_CopyOnWriteLeavesFileIntact(t *testing.T) {
	f := tempFile(t, 4096)

	b := must(Map(f, 4096, CopyOnWrite|SequentialAccess))
	b[10] = 0x99
	if b[10] != 0x99 {
		t.Fatalf("private write not visible in mapping")
	}
	if err := Unmap(b); err != nil {
		t.Fatalf("Unmap: %v", err)
	}

	var got [1]byte
	if _, err := f.ReadAt(got[:], 10); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if got[0] != 0 {
		t.Fatalf("file byte = %x, wanted 00", got[0])
	}
}

func TestMap_RejectsInvalidSize(t *testing.T) {
	f := tempFile(t, 16)
	if _, err := Map(f, 0, 0); err == nil {
		t.Fatalf("Map(size=0) succeeded, wanted error")
	}
	if err := Unmap(nil); err != nil {
		t.Fatalf("Unmap(nil) = %v, wanted nil", err)
	}
}

func tempFile(t testing.TB, size int64) *os.File {
	f := must(os.Create(filepath.Join(t.TempDir(), "mapped.bin")))
	t.Cleanup(func() { f.Close() })
	if err := f.Truncate(size); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	return f
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
