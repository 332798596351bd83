//go:build unix

package arrayfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmapMapping backs an Array with a POSIX mmap(2) region, grown by
// munmap + ftruncate + remap — the same grow sequence used by the
// dittofs mmap-backed WAL persister this package is grounded on.
type mmapMapping struct {
	data []byte
}

func newMapping(f *os.File, size int64) (mapping, error) {
	m := &mmapMapping{}
	if err := m.remap(f, size); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *mmapMapping) bytes() []byte {
	return m.data
}

func (m *mmapMapping) remap(f *os.File, size int64) error {
	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			return err
		}
		m.data = nil
	}
	if err := f.Truncate(size); err != nil {
		return err
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

func (m *mmapMapping) unmap() error {
	if m.data == nil {
		return nil
	}
	if err := unix.Munmap(m.data); err != nil {
		return err
	}
	m.data = nil
	return nil
}
