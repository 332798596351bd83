//go:build unix

package identity

import (
	"os"

	"golang.org/x/sys/unix"

	llerrors "github.com/kbazzad/logloglog/internal/errors"
)

// Guard is an advisory, non-blocking exclusive lock on a cache
// directory's lock file, held for the lifetime of one Indexer.
type Guard struct {
	f *os.File
}

// Acquire opens (creating if needed) the lock file at lockPath and
// takes a non-blocking exclusive flock on it. lockPath should live
// outside the cache directory it guards, since that directory may be
// wiped and recreated across a rebuild. The lock is released by
// Release or when the process exits.
func Acquire(lockPath string) (*Guard, error) {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, llerrors.IO("open cache lock file", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, errCacheLocked
		}
		return nil, llerrors.IO("flock cache directory", err)
	}
	return &Guard{f: f}, nil
}

// Release unlocks and closes the guard's lock file.
func (g *Guard) Release() error {
	if g == nil || g.f == nil {
		return nil
	}
	err := unix.Flock(int(g.f.Fd()), unix.LOCK_UN)
	cerr := g.f.Close()
	g.f = nil
	if err != nil {
		return llerrors.IO("unlock cache directory", err)
	}
	return llerrors.IO("close cache lock file", cerr)
}
