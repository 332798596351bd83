//go:build windows

package identity

import (
	"os"

	"golang.org/x/sys/windows"

	llerrors "github.com/kbazzad/logloglog/internal/errors"
)

// Guard is an advisory, non-blocking exclusive lock on a cache
// directory's lock file, held for the lifetime of one Indexer.
type Guard struct {
	f *os.File
}

// Acquire opens (creating if needed) the lock file at lockPath and
// takes a non-blocking exclusive byte-range lock on it via
// LockFileEx. lockPath should live outside the cache directory it
// guards, since that directory may be wiped and recreated across a
// rebuild.
func Acquire(lockPath string) (*Guard, error) {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, llerrors.IO("open cache lock file", err)
	}
	ol := new(windows.Overlapped)
	err = windows.LockFileEx(windows.Handle(f.Fd()), windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, 1, 0, ol)
	if err != nil {
		f.Close()
		if err == windows.ERROR_LOCK_VIOLATION {
			return nil, errCacheLocked
		}
		return nil, llerrors.IO("lock cache directory", err)
	}
	return &Guard{f: f}, nil
}

// Release unlocks and closes the guard's lock file.
func (g *Guard) Release() error {
	if g == nil || g.f == nil {
		return nil
	}
	ol := new(windows.Overlapped)
	err := windows.UnlockFileEx(windows.Handle(g.f.Fd()), 0, 1, 0, ol)
	cerr := g.f.Close()
	g.f = nil
	if err != nil {
		return llerrors.IO("unlock cache directory", err)
	}
	return llerrors.IO("close cache lock file", cerr)
}
