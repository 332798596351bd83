//go:build unix

package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStatStableAcrossRename(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "app.log")
	if err := os.WriteFile(orig, []byte("hello\n"), 0644); err != nil {
		t.Fatal(err)
	}

	id1, err := Stat(orig)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	renamed := filepath.Join(dir, "app.log.1")
	if err := os.Rename(orig, renamed); err != nil {
		t.Fatal(err)
	}

	id2, err := Stat(renamed)
	if err != nil {
		t.Fatalf("Stat after rename: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("identity changed across rename: %v != %v", id1, id2)
	}
}

func TestStatDiffersAcrossDistinctFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.log")
	b := filepath.Join(dir, "b.log")
	os.WriteFile(a, []byte("a"), 0644)
	os.WriteFile(b, []byte("b"), 0644)

	idA, err := Stat(a)
	if err != nil {
		t.Fatal(err)
	}
	idB, err := Stat(b)
	if err != nil {
		t.Fatal(err)
	}
	if idA == idB {
		t.Fatalf("distinct files got the same identity tuple: %v", idA)
	}
}

func TestCacheDirNameSanitizesAndSuffixesIdentity(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "weird name!@#.log")
	os.WriteFile(p, nil, 0644)

	id, err := Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	name := CacheDirName(p, id)
	if filepath.Base(name) != name {
		t.Fatalf("CacheDirName produced path separators: %q", name)
	}
	if name == id.tag {
		t.Fatalf("CacheDirName dropped the basename prefix entirely: %q", name)
	}
	for _, r := range name {
		if r == '!' || r == '@' || r == '#' || r == ' ' {
			t.Fatalf("CacheDirName left an unsafe character in %q", name)
		}
	}
}

func TestGuardRejectsSecondAcquire(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "cache.lock")

	g1, err := Acquire(lockPath)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	defer g1.Release()

	if _, err := Acquire(lockPath); !IsCacheLocked(err) {
		t.Fatalf("second Acquire = %v, want IsCacheLocked", err)
	}

	if err := g1.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	g2, err := Acquire(lockPath)
	if err != nil {
		t.Fatalf("Acquire after Release: %v", err)
	}
	defer g2.Release()
}
