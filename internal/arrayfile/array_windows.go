//go:build windows

package arrayfile

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// mmapMapping backs an Array with a Windows file mapping
// (CreateFileMapping + MapViewOfFile), grown by tearing down the view
// and mapping, extending the file, and remapping.
type mmapMapping struct {
	data      []byte
	mapHandle windows.Handle
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
	if err := m.unmap(); err != nil {
		return err
	}
	if err := f.Truncate(size); err != nil {
		return err
	}

	sizeHi := uint32(size >> 32)
	sizeLo := uint32(size & 0xffffffff)
	h, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READWRITE, sizeHi, sizeLo, nil)
	if err != nil {
		return err
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(h)
		return err
	}

	m.mapHandle = h
	m.data = unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	return nil
}

func (m *mmapMapping) unmap() error {
	if m.data == nil {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&m.data[0]))
	if err := windows.UnmapViewOfFile(addr); err != nil {
		return err
	}
	if err := windows.CloseHandle(m.mapHandle); err != nil {
		return err
	}
	m.data = nil
	m.mapHandle = 0
	return nil
}
