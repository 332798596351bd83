//go:build unix

package identity

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	llerrors "github.com/kbazzad/logloglog/internal/errors"
)

// Stat returns the device+inode identity tuple for the file at path.
func Stat(path string) (Tuple, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return Tuple{}, llerrors.IO("stat log file identity", err)
	}
	return Tuple{tag: fmt.Sprintf("%d_%d", st.Dev, st.Ino)}, nil
}

// StatFile is the same as Stat but operates on an already-open file,
// avoiding a second path lookup (used after the initial Open so a
// rename between stat and fstat can't change identity out from under
// the caller).
func StatFile(f *os.File) (Tuple, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return Tuple{}, llerrors.IO("fstat log file identity", err)
	}
	return Tuple{tag: fmt.Sprintf("%d_%d", st.Dev, st.Ino)}, nil
}
