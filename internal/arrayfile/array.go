// Package arrayfile implements Array[T]: a typed, fixed-element-width,
// file-backed growable vector (spec §4.1 "Chunked mmap array").
//
// Capacity grows in CHUNK-byte increments; logical length is tracked
// separately from capacity and the file is truncated to the exact
// byte length on Close. All reads and writes go through Get/Set/Append
// rather than retained pointers, since a grow remaps the backing
// memory and invalidates anything held across it (spec §5 "Memory
// model").
package arrayfile

import (
	"encoding/binary"
	"os"
	"sync"
	"unsafe"

	llerrors "github.com/kbazzad/logloglog/internal/errors"
)

// nativeEndian is the host's native byte order, detected once at
// package init so encode/decode can convert to the spec's on-disk
// little-endian layout (§6) without paying for a byte-order check on
// every element access.
var nativeEndian = detectNativeEndian()

func detectNativeEndian() binary.ByteOrder {
	var x uint16 = 1
	if *(*byte)(unsafe.Pointer(&x)) == 1 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Number is the set of fixed-size scalar element types Array supports.
// Open fails with ErrUnsupported for any other T.
type Number interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64
}

// mapping is the platform-specific backing store for an Array's bytes.
// Implementations live in array_unix.go / array_windows.go.
type mapping interface {
	// bytes returns the current mapped region, len == capacity in bytes.
	bytes() []byte
	// remap closes any existing mapping, truncates f to size bytes, and
	// maps the new region. size must be > 0.
	remap(f *os.File, size int64) error
	// unmap drops the current mapping without touching the file.
	unmap() error
}

// Array is a random-access, appendable vector of fixed-size elements
// backed by a single file, with O(1) indexed read/write and amortized
// O(1) append.
type Array[T Number] struct {
	mu            sync.Mutex
	path          string
	file          *os.File
	m             mapping
	elemSize      int
	length        int
	capacityBytes int64
	chunk         int
	closed        bool
}

// Open opens or creates the array at path. If the file is absent, the
// logical length is 0 and the file is allocated to hold at least
// initialElements, rounded up to a chunk multiple. Otherwise the
// logical length is derived from the file size and the file is
// extended (never truncated) up to the next chunk boundary.
//
// chunk is the growth granularity in bytes (spec CHUNK, reference
// value 4096); callers pass config.ChunkSize.
func Open[T Number](path string, chunk, initialElements int) (*Array[T], error) {
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	if !isSupportedSize(elemSize) {
		return nil, llerrors.ErrUnsupported
	}
	if chunk <= 0 {
		chunk = 4096
	}

	create := false
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		create = true
	} else if err != nil {
		return nil, llerrors.IO("stat array file", err)
	}

	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, llerrors.IO("open array file", err)
	}

	a := &Array[T]{
		path:     path,
		file:     f,
		elemSize: elemSize,
		chunk:    chunk,
	}

	var length int
	var minBytes int64
	if create {
		length = 0
		minBytes = int64(initialElements) * int64(elemSize)
	} else {
		length = int(info.Size()) / elemSize
		minBytes = info.Size()
	}
	a.length = length

	capBytes := roundUpToChunk(minBytes, int64(chunk))
	if capBytes == 0 {
		// Nothing mapped yet; first Append will allocate on demand.
		a.capacityBytes = 0
		return a, nil
	}
	if err := a.growTo(capBytes); err != nil {
		f.Close()
		return nil, err
	}
	return a, nil
}

func isSupportedSize(n int) bool {
	switch n {
	case 1, 2, 4, 8:
		return true
	default:
		return false
	}
}

func roundUpToChunk(n, chunk int64) int64 {
	if n <= 0 {
		return 0
	}
	chunks := (n + chunk - 1) / chunk
	return chunks * chunk
}

// growTo truncates the file to at least size bytes (rounded up to a
// chunk boundary) and remaps it. size must already be chunk-aligned.
func (a *Array[T]) growTo(size int64) error {
	if a.m == nil {
		m, err := newMapping(a.file, size)
		if err != nil {
			return llerrors.IO("mmap array file", err)
		}
		a.m = m
	} else if err := a.m.remap(a.file, size); err != nil {
		return llerrors.IO("remap array file", err)
	}
	a.capacityBytes = size
	return nil
}

// Len returns the current logical length.
func (a *Array[T]) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.length
}

func (a *Array[T]) resolveIndex(index int) (int, error) {
	if index < 0 {
		index += a.length
	}
	if index < 0 || index >= a.length {
		return 0, llerrors.ErrOutOfRange
	}
	return index, nil
}

// Get returns the element at index, applying negative-index wraparound.
func (a *Array[T]) Get(index int) (T, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var zero T
	i, err := a.resolveIndex(index)
	if err != nil {
		return zero, err
	}
	off := i * a.elemSize
	return decode[T](a.m.bytes()[off : off+a.elemSize]), nil
}

// Set overwrites the element at index, applying negative-index
// wraparound.
func (a *Array[T]) Set(index int, v T) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	i, err := a.resolveIndex(index)
	if err != nil {
		return err
	}
	off := i * a.elemSize
	encode(a.m.bytes()[off:off+a.elemSize], v)
	return nil
}

// Append adds v as the new last element, growing capacity first if the
// array is full.
func (a *Array[T]) Append(v T) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.appendLocked(v)
}

func (a *Array[T]) appendLocked(v T) error {
	needed := int64(a.length+1) * int64(a.elemSize)
	if needed > a.capacityBytes {
		newCap := roundUpToChunk(needed, int64(a.chunk))
		if err := a.growTo(newCap); err != nil {
			return err
		}
	}
	off := a.length * a.elemSize
	encode(a.m.bytes()[off:off+a.elemSize], v)
	a.length++
	return nil
}

// Extend appends every value in vs; equivalent to repeated Append but
// resizes once for the whole batch.
func (a *Array[T]) Extend(vs []T) error {
	if len(vs) == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	needed := int64(a.length+len(vs)) * int64(a.elemSize)
	if needed > a.capacityBytes {
		newCap := roundUpToChunk(needed, int64(a.chunk))
		if err := a.growTo(newCap); err != nil {
			return err
		}
	}
	for _, v := range vs {
		if err := a.appendLocked(v); err != nil {
			return err
		}
	}
	return nil
}

// Flush pushes the mapping to disk without changing length or capacity.
func (a *Array[T]) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	return llerrors.IO("sync array file", a.file.Sync())
}

// Close flushes, drops the mapping, truncates the file to the exact
// logical length, and closes the handle. Idempotent.
func (a *Array[T]) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true

	if a.m != nil {
		if err := a.m.unmap(); err != nil {
			a.file.Close()
			return llerrors.IO("unmap array file", err)
		}
		a.m = nil
	}
	if a.file == nil {
		return nil
	}
	exact := int64(a.length) * int64(a.elemSize)
	if err := a.file.Truncate(exact); err != nil {
		a.file.Close()
		return llerrors.IO("truncate array file", err)
	}
	err := a.file.Close()
	a.file = nil
	if err != nil {
		return llerrors.IO("close array file", err)
	}
	return nil
}

// decode/encode translate between an element's native in-memory bit
// pattern and the spec's on-disk little-endian layout (§6).

func decode[T Number](b []byte) T {
	var v T
	dst := unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v))
	if nativeEndian == binary.LittleEndian {
		copy(dst, b)
	} else {
		for i, bb := range b {
			dst[len(b)-1-i] = bb
		}
	}
	return v
}

func encode[T Number](dst []byte, v T) {
	src := unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v))
	if nativeEndian == binary.LittleEndian {
		copy(dst, src)
	} else {
		for i, b := range src {
			dst[len(src)-1-i] = b
		}
	}
}
