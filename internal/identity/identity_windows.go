//go:build windows

package identity

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"

	llerrors "github.com/kbazzad/logloglog/internal/errors"
)

// Stat returns the volume-serial+file-index identity tuple for the
// file at path.
func Stat(path string) (Tuple, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tuple{}, llerrors.IO("open log file for identity", err)
	}
	defer f.Close()
	return StatFile(f)
}

// StatFile is the same as Stat but operates on an already-open file.
func StatFile(f *os.File) (Tuple, error) {
	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(windows.Handle(f.Fd()), &info); err != nil {
		return Tuple{}, llerrors.IO("get file information by handle", err)
	}
	tag := fmt.Sprintf("%d_%d_%d", info.VolumeSerialNumber, info.FileIndexHigh, info.FileIndexLow)
	return Tuple{tag: tag}, nil
}
