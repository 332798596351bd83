package arrayfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestArrayRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "values.dat")

	a, err := Open[uint64](path, 4096, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	vs := []uint64{1, 2, 3, 70000, 1 << 40}
	for _, v := range vs {
		if err := a.Append(v); err != nil {
			t.Fatalf("Append(%d): %v", v, err)
		}
	}
	if got := a.Len(); got != len(vs) {
		t.Fatalf("Len() = %d, want %d", got, len(vs))
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	a2, err := Open[uint64](path, 4096, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer a2.Close()

	if got := a2.Len(); got != len(vs) {
		t.Fatalf("reopened Len() = %d, want %d", got, len(vs))
	}
	for i, want := range vs {
		got, err := a2.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if got != want {
			t.Fatalf("Get(%d) = %d, want %d", i, got, want)
		}
	}

	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if got, want := st.Size(), int64(len(vs))*8; got != want {
		t.Fatalf("on-disk size = %d, want %d (len*sizeof(u64))", got, want)
	}
}

func TestArrayNegativeIndex(t *testing.T) {
	dir := t.TempDir()
	a, err := Open[uint32](filepath.Join(dir, "v.dat"), 4096, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	for _, v := range []uint32{10, 20, 30} {
		if err := a.Append(v); err != nil {
			t.Fatal(err)
		}
	}

	got, err := a.Get(-1)
	if err != nil {
		t.Fatalf("Get(-1): %v", err)
	}
	if got != 30 {
		t.Fatalf("Get(-1) = %d, want 30", got)
	}

	if _, err := a.Get(3); err == nil {
		t.Fatalf("Get(3) should be out of range")
	}
	if _, err := a.Get(-4); err == nil {
		t.Fatalf("Get(-4) should be out of range")
	}
}

func TestArraySetOverwrites(t *testing.T) {
	dir := t.TempDir()
	a, err := Open[uint16](filepath.Join(dir, "w.dat"), 4096, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	if err := a.Append(uint16(5)); err != nil {
		t.Fatal(err)
	}
	if err := a.Set(0, 65535); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := a.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 65535 {
		t.Fatalf("Get(0) = %d, want 65535", got)
	}
}

func TestArrayGrowsAcrossChunkBoundary(t *testing.T) {
	dir := t.TempDir()
	// chunk=16 bytes, element=4 bytes -> 4 elements per chunk; force
	// several resizes well past the first chunk.
	a, err := Open[uint32](filepath.Join(dir, "g.dat"), 16, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	const n = 100
	for i := 0; i < n; i++ {
		if err := a.Append(uint32(i)); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	for i := 0; i < n; i++ {
		got, err := a.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if got != uint32(i) {
			t.Fatalf("Get(%d) = %d, want %d", i, got, i)
		}
	}
}

func TestArrayExtend(t *testing.T) {
	dir := t.TempDir()
	a, err := Open[uint64](filepath.Join(dir, "e.dat"), 4096, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	vs := make([]uint64, 0, 5000)
	for i := uint64(0); i < 5000; i++ {
		vs = append(vs, i*i)
	}
	if err := a.Extend(vs); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if got := a.Len(); got != len(vs) {
		t.Fatalf("Len() = %d, want %d", got, len(vs))
	}
	for _, i := range []int{0, 1, 2499, 4999} {
		got, err := a.Get(i)
		if err != nil {
			t.Fatal(err)
		}
		if got != vs[i] {
			t.Fatalf("Get(%d) = %d, want %d", i, got, vs[i])
		}
	}
}
