// Package identity derives a cache-directory name from a log file's OS
// file identity rather than its path (spec §6 "Subdirectory naming"),
// and guards that directory with an advisory lock so a second Open
// against an already-open cache fails fast.
//
// Grounded on the teacher's internal/docdb/path.go convention of one
// small file per storage concern, generalized from path manipulation
// to the platform-specific stat calls in identity_unix.go/identity_windows.go.
package identity

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
)

// errCacheLocked is returned by Acquire when another process (or
// another Indexer in this process) already holds the cache guard.
var errCacheLocked = errors.New("cache directory is locked by another indexer")

// IsCacheLocked reports whether err indicates the cache directory's
// advisory lock is already held.
func IsCacheLocked(err error) bool {
	return errors.Is(err, errCacheLocked)
}

// Tuple is the OS-reported identity of an open file: device+inode on
// POSIX, volume-serial+file-index on Windows. Two tuples are equal iff
// the files are the same inode/volume-entry, independent of path.
type Tuple struct {
	// tag is the platform-specific "{a}_{b}" / "{a}_{b}_{c}" rendering
	// of the tuple, already formatted per spec §6.
	tag string
}

func (t Tuple) String() string { return t.tag }

var unsafeDirChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// CacheDirName returns the subdirectory name for a log at path with
// identity id: a sanitized basename prefix (for debuggability) plus
// the identity tag (required, so unrelated files never collide).
func CacheDirName(path string, id Tuple) string {
	base := filepath.Base(path)
	base = unsafeDirChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")
	if base == "" || base == "." {
		return id.tag
	}
	return base + "_" + id.tag
}
