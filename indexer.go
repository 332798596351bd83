// Package logloglog incrementally indexes a very large, append-only
// text log so that a terminal scrollback can answer "what display row
// does line i start at" and "what line covers display row R" without
// scanning the file.
package logloglog

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/kbazzad/logloglog/internal/config"
	llerrors "github.com/kbazzad/logloglog/internal/errors"
	"github.com/kbazzad/logloglog/internal/identity"
	"github.com/kbazzad/logloglog/internal/lineindex"
	"github.com/kbazzad/logloglog/internal/logger"
)

const (
	fileSizeSidecar = "file_size.dat"
	lockSuffix      = ".lock"
)

var errIndexerClosed = errors.New("logloglog: indexer is closed")

type indexerState int

const (
	stateIndexing indexerState = iota
	stateIdle
	stateClosed
)

// Indexer attaches to one append-only log file, reconciles its
// on-disk cache, and streams newly appended lines into a LineIndex.
// An Indexer is not safe for concurrent or re-entrant use (spec §5
// "Shared-resource policy"); each reader/writer task must open its
// own.
type Indexer struct {
	path string
	file *os.File
	cfg  *config.Config
	log  *logger.Logger
	width WidthFunc

	cacheDir string
	guard    *identity.Guard

	li *lineindex.LineIndex

	state       indexerState
	lastPos     int64 // in-memory witness: byte offset of the next unread byte
	witnessSize int64 // last value persisted to file_size.dat
}

// Open attaches to the log file at path, validating or rebuilding its
// on-disk cache, then eagerly streams it up to date before returning.
func Open(path string, opts ...Option) (*Indexer, error) {
	o := defaultOpenOptions()
	for _, opt := range opts {
		opt(o)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, llerrors.IO("open log file", err)
	}

	id, err := identity.StatFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	root := o.cacheDir
	if root == "" {
		root = o.cfg.CacheRoot
	}
	if root == "" {
		root, err = defaultCacheRoot()
		if err != nil {
			f.Close()
			return nil, llerrors.IO("resolve default cache root", err)
		}
	}
	cacheDir := filepath.Join(root, identity.CacheDirName(path, id))

	if err := os.MkdirAll(root, 0755); err != nil {
		f.Close()
		return nil, llerrors.IO("create cache root", err)
	}

	guard, err := identity.Acquire(cacheDir + lockSuffix)
	if err != nil {
		f.Close()
		return nil, err
	}

	ix := &Indexer{
		path:     path,
		file:     f,
		cfg:      o.cfg,
		log:      o.log,
		width:    o.widthFn,
		cacheDir: cacheDir,
		guard:    guard,
		state:    stateIndexing,
	}

	if err := ix.attachCache(); err != nil {
		guard.Release()
		f.Close()
		return nil, err
	}

	if err := ix.update(); err != nil {
		ix.Close()
		return nil, err
	}

	return ix, nil
}

func defaultCacheRoot() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "logloglog"), nil
}

// attachCache validates the existing cache directory (V1-V4) or wipes
// and recreates it, then opens (or (re)creates) the LineIndex.
func (ix *Indexer) attachCache() error {
	valid, witness := ix.validateCache()
	fresh := !valid
	if fresh {
		if err := ix.rebuildCacheDir(); err != nil {
			return err
		}
		witness = 0
	}

	li, err := lineindex.Open(ix.cacheDir, ix.cfg)
	if err != nil {
		// Corrupt despite passing the cheap checks above (e.g. a
		// mid-write crash between sidecar files); rebuild once more.
		ix.log.Warn("cache at %s failed to open cleanly, rebuilding: %v", ix.cacheDir, err)
		if rebErr := ix.rebuildCacheDir(); rebErr != nil {
			return rebErr
		}
		fresh = true
		witness = 0
		li, err = lineindex.Open(ix.cacheDir, ix.cfg)
		if err != nil {
			return err
		}
	}

	ix.li = li
	ix.lastPos = witness
	ix.witnessSize = witness
	if fresh {
		// Force update() to write file_size.dat on its first pass even
		// if the log turns out to be empty, so a later Open's V1 check
		// (all four sidecar files exist) finds it.
		ix.witnessSize = -1
	}
	return nil
}

// validateCache implements V1-V4 against the existing on-disk cache
// directory, returning the persisted file-size witness on success.
func (ix *Indexer) validateCache() (bool, int64) {
	if !cacheFilesExist(ix.cacheDir) { // V1
		return false, 0
	}

	li, err := lineindex.Open(ix.cacheDir, ix.cfg)
	if err != nil { // V2 (positions/widths length mismatch, or I/O failure)
		return false, 0
	}
	defer li.Close()

	witness, ok := readFileSizeWitness(ix.cacheDir)
	if !ok {
		return false, 0
	}

	if n := li.Len(); n > 0 { // V3
		lastPos, err := li.Position(n - 1)
		if err != nil {
			return false, 0
		}
		st, err := ix.file.Stat()
		if err != nil || int64(lastPos) >= st.Size() {
			return false, 0
		}
	}

	st, err := ix.file.Stat()
	if err != nil || st.Size() < witness { // V4
		return false, 0
	}

	return true, witness
}

func cacheFilesExist(dir string) bool {
	for _, name := range []string{"positions.dat", "widths.dat", "summaries.dat", fileSizeSidecar} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

func readFileSizeWitness(dir string) (int64, bool) {
	b, err := os.ReadFile(filepath.Join(dir, fileSizeSidecar))
	if err != nil {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func writeFileSizeWitness(dir string, size int64) error {
	path := filepath.Join(dir, fileSizeSidecar)
	return llerrors.IO("write file size witness", os.WriteFile(path, []byte(strconv.FormatInt(size, 10)), 0644))
}

// rebuildCacheDir atomically replaces ix.cacheDir with an empty cache
// directory: the replacement is built fully under a staging name and
// swapped in, so a crash mid-rebuild never leaves the identity with
// no cache directory at all.
func (ix *Indexer) rebuildCacheDir() error {
	staging := ix.cacheDir + ".rebuild-" + uuid.NewString()
	if err := os.MkdirAll(staging, 0755); err != nil {
		return llerrors.IO("create staging cache dir", err)
	}

	stale := ix.cacheDir + ".stale-" + uuid.NewString()
	hadOld := false
	if _, err := os.Stat(ix.cacheDir); err == nil {
		if err := os.Rename(ix.cacheDir, stale); err != nil {
			os.RemoveAll(staging)
			return llerrors.IO("move aside stale cache dir", err)
		}
		hadOld = true
	}
	if err := os.Rename(staging, ix.cacheDir); err != nil {
		return llerrors.IO("install rebuilt cache dir", err)
	}
	if hadOld {
		os.RemoveAll(stale)
	}
	return nil
}

// Close releases the Indexer's cache guard, backing arrays, and log
// file handle. Idempotent.
func (ix *Indexer) Close() error {
	// A failed update also sets stateClosed while still holding its
	// resources, so only a nil log handle means Close already ran.
	if ix.state == stateClosed && ix.file == nil {
		return nil
	}
	ix.state = stateClosed

	var firstErr error
	if ix.li != nil {
		if err := ix.li.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		ix.li = nil
	}
	if ix.guard != nil {
		if err := ix.guard.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if ix.file != nil {
		if err := ix.file.Close(); err != nil && firstErr == nil {
			firstErr = llerrors.IO("close log file", err)
		}
		ix.file = nil
	}
	return firstErr
}

// Len returns N, the number of indexed logical lines.
func (ix *Indexer) Len() (int, error) {
	if ix.state == stateClosed {
		return 0, errIndexerClosed
	}
	return ix.li.Len(), nil
}

// Get returns the decoded text of logical line i (spec §4.3
// "line_text"), without its trailing EOL. Negative i wraps from the
// end; out-of-range raises ErrOutOfRange.
func (ix *Indexer) Get(i int) (string, error) {
	if ix.state == stateClosed {
		return "", errIndexerClosed
	}
	n := ix.li.Len()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return "", llerrors.ErrOutOfRange
	}
	pos, err := ix.li.Position(i)
	if err != nil {
		return "", err
	}

	st, err := ix.file.Stat()
	if err != nil {
		return "", llerrors.IO("stat log file", err)
	}
	raw, _, err := readOneLine(ix.file, int64(pos), st.Size())
	if err != nil {
		return "", llerrors.IO("read line", err)
	}
	return decodeLine(raw), nil
}

// Append writes line (plus a trailing newline) to the end of the log,
// then indexes it, then persists the new size witness. The Indexer
// must be in Idle (i.e. a prior Open/Update has completed).
func (ix *Indexer) Append(line string) error {
	if ix.state == stateClosed {
		return errIndexerClosed
	}
	st, err := ix.file.Stat()
	if err != nil {
		return llerrors.IO("stat log file", err)
	}
	prevSize := st.Size()

	data := []byte(line + "\n")
	if _, err := ix.file.WriteAt(data, prevSize); err != nil {
		return llerrors.IO("append line", err)
	}
	if err := ix.file.Sync(); err != nil {
		return llerrors.IO("sync log file after append", err)
	}

	w := ix.width(line)
	if err := ix.li.AppendLine(uint64(prevSize), w); err != nil {
		return err
	}

	newSize := prevSize + int64(len(data))
	ix.lastPos = newSize
	if err := writeFileSizeWitness(ix.cacheDir, newSize); err != nil {
		return err
	}
	ix.witnessSize = newSize
	return nil
}

// Update re-enters Indexing from Idle: it streams any bytes appended
// to the log since the last successful Update (or Open), detecting
// and recovering from truncation, then returns to Idle.
func (ix *Indexer) Update() error {
	if ix.state == stateClosed {
		return errIndexerClosed
	}
	return ix.update()
}

func (ix *Indexer) update() error {
	ix.state = stateIndexing

	st, err := ix.file.Stat()
	if err != nil {
		ix.state = stateClosed
		return llerrors.IO("stat log file", err)
	}
	size := st.Size()

	if size < ix.lastPos {
		ix.log.Warn("%s: log %s shrank from %s to %s, rebuilding index", llerrors.Truncated(), ix.path, humanize.Bytes(uint64(ix.lastPos)), humanize.Bytes(uint64(size)))
		if err := ix.li.Close(); err != nil {
			ix.state = stateClosed
			return err
		}
		if err := ix.rebuildCacheDir(); err != nil {
			ix.state = stateClosed
			return err
		}
		li, err := lineindex.Open(ix.cacheDir, ix.cfg)
		if err != nil {
			ix.state = stateClosed
			return err
		}
		ix.li = li
		ix.lastPos = 0
		ix.witnessSize = -1 // force the witness rewrite below
	}

	from := ix.lastPos
	linesRead := 0
	err = streamLines(ix.file, from, size, func(pos int64, text string) error {
		w := ix.width(text)
		if err := ix.li.AppendLine(uint64(pos), w); err != nil {
			return err
		}
		linesRead++
		return nil
	}, func(consumed int64) { ix.lastPos = from + consumed })

	if err != nil {
		ix.state = stateClosed
		return llerrors.IO("stream log updates", err)
	}

	if linesRead > 0 || ix.witnessSize != size {
		if err := writeFileSizeWitness(ix.cacheDir, size); err != nil {
			ix.state = stateClosed
			return err
		}
		ix.witnessSize = size
		if linesRead > 0 {
			ix.log.Info("indexed %d new line(s) from %s (%s total)", linesRead, ix.path, humanize.Bytes(uint64(size)))
		}
	}

	ix.state = stateIdle
	return nil
}

// Width returns a WidthView over the full row space of the indexer at
// terminal width w.
func (ix *Indexer) Width(w int) (*WidthView, error) {
	if ix.state == stateClosed {
		return nil, errIndexerClosed
	}
	total, err := ix.li.TotalRows(w)
	if err != nil {
		return nil, err
	}
	return &WidthView{ix: ix, width: w, start: 0, length: total}, nil
}

// FileInfo reports the log's path, current size, and the byte offset
// through which it has been indexed.
type FileInfo struct {
	Path     string
	Size     int64
	Position int64
}

// FileInfo returns introspection data about the underlying log file,
// useful for a status line in an embedding terminal UI.
func (ix *Indexer) FileInfo() (FileInfo, error) {
	if ix.state == stateClosed {
		return FileInfo{}, errIndexerClosed
	}
	st, err := ix.file.Stat()
	if err != nil {
		return FileInfo{}, llerrors.IO("stat log file", err)
	}
	return FileInfo{Path: ix.path, Size: st.Size(), Position: ix.lastPos}, nil
}

// CacheInfo reports the on-disk cache location and indexed line count.
type CacheInfo struct {
	Dir   string
	Lines int
}

// CacheInfo returns introspection data about the on-disk cache.
func (ix *Indexer) CacheInfo() (CacheInfo, error) {
	if ix.state == stateClosed {
		return CacheInfo{}, errIndexerClosed
	}
	return CacheInfo{Dir: ix.cacheDir, Lines: ix.li.Len()}, nil
}

// streamLines reads logical lines from f over [from, to), invoking cb
// with each line's start offset and decoded text, and reporting total
// bytes consumed via progress after each line (so a caller can track
// an authoritative in-memory cursor even if cb itself fails midway).
func streamLines(f *os.File, from, to int64, cb func(pos int64, text string) error, progress func(consumed int64)) error {
	if to <= from {
		return nil
	}
	sr := io.NewSectionReader(f, from, to-from)
	br := bufio.NewReader(sr)

	var consumed int64
	for {
		raw, err := br.ReadBytes('\n')
		if len(raw) == 0 && err == io.EOF {
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}
		lineLen := int64(len(raw))
		pos := from + consumed
		text := decodeLine(raw)
		if cbErr := cb(pos, text); cbErr != nil {
			return cbErr
		}
		consumed += lineLen
		progress(consumed)
		if err == io.EOF {
			return nil
		}
	}
}

// readOneLine reads the single logical line starting at offset pos in
// f, whose size is size, without disturbing any other reader's use of
// the file (it never calls Seek, only ReadAt by way of
// io.SectionReader).
func readOneLine(f *os.File, pos, size int64) ([]byte, int64, error) {
	if pos >= size {
		return nil, pos, io.EOF
	}
	sr := io.NewSectionReader(f, pos, size-pos)
	br := bufio.NewReader(sr)
	raw, err := br.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, pos, err
	}
	return raw, pos + int64(len(raw)), nil
}

// decodeLine strips a trailing "\n", then a trailing "\r" (covering
// both "\r\n" and a lone trailing "\r" at EOF), and decodes the
// remaining bytes as UTF-8 with the standard replacement character
// for invalid sequences.
func decodeLine(raw []byte) string {
	if n := len(raw); n > 0 && raw[n-1] == '\n' {
		raw = raw[:n-1]
	}
	if n := len(raw); n > 0 && raw[n-1] == '\r' {
		raw = raw[:n-1]
	}
	return strings.ToValidUTF8(string(raw), "�")
}
