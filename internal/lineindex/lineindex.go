// Package lineindex implements LineIndex (spec §4.2): three Arrays —
// line byte-positions, line display-widths, and a per-width summary
// table — plus the summary-construction and display-row arithmetic
// that make total_rows/row_for_line/line_for_row sublinear in N.
//
// Grounded on the teacher's internal/docdb/index.go sharded-index
// organization (one component owning several backing stores behind a
// small, bounds-checked surface) and internal/docdb/datafile.go's
// Open/Close lifecycle, generalized from a map-backed document index
// to three flat Arrays.
package lineindex

import (
	"os"
	"path/filepath"

	"github.com/kbazzad/logloglog/internal/arrayfile"
	"github.com/kbazzad/logloglog/internal/config"
	llerrors "github.com/kbazzad/logloglog/internal/errors"
)

const (
	positionsFile = "positions.dat"
	widthsFile    = "widths.dat"
	summariesFile = "summaries.dat"
)

// LineIndex owns positions, widths and summaries for one log's cache
// directory.
type LineIndex struct {
	dir  string
	cfg  *config.Config
	n    int
	pos  *arrayfile.Array[uint64]
	wid  *arrayfile.Array[uint16]
	summ *arrayfile.Array[uint32]
}

// Open creates or opens the three backing arrays under dir, creating
// dir itself if it does not exist yet.
func Open(dir string, cfg *config.Config) (*LineIndex, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, llerrors.IO("create line index dir", err)
	}
	pos, err := arrayfile.Open[uint64](filepath.Join(dir, positionsFile), cfg.ChunkSize, 0)
	if err != nil {
		return nil, err
	}
	wid, err := arrayfile.Open[uint16](filepath.Join(dir, widthsFile), cfg.ChunkSize, 0)
	if err != nil {
		pos.Close()
		return nil, err
	}
	summ, err := arrayfile.Open[uint32](filepath.Join(dir, summariesFile), cfg.ChunkSize, 0)
	if err != nil {
		pos.Close()
		wid.Close()
		return nil, err
	}

	if pos.Len() != wid.Len() {
		pos.Close()
		wid.Close()
		summ.Close()
		return nil, llerrors.Corrupt("positions/widths length mismatch")
	}

	return &LineIndex{
		dir:  dir,
		cfg:  cfg,
		n:    pos.Len(),
		pos:  pos,
		wid:  wid,
		summ: summ,
	}, nil
}

// Close closes all three arrays.
func (li *LineIndex) Close() error {
	var firstErr error
	for _, c := range []interface{ Close() error }{li.pos, li.wid, li.summ} {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Len returns N, the number of indexed lines.
func (li *LineIndex) Len() int {
	return li.n
}

// AppendLine appends a new line; pos must be strictly increasing
// across calls. If N becomes a multiple of S, the summary row for the
// just-closed block is built (spec §4.2 "Summary construction").
func (li *LineIndex) AppendLine(pos uint64, width int) error {
	if width < 0 {
		width = 0
	}
	if width > 65535 {
		width = 65535
	}
	if err := li.pos.Append(pos); err != nil {
		return err
	}
	if err := li.wid.Append(uint16(width)); err != nil {
		return err
	}
	li.n++

	if li.n%li.cfg.SummaryInterval == 0 {
		if err := li.buildSummary(li.n/li.cfg.SummaryInterval - 1); err != nil {
			return err
		}
	}
	return nil
}

// buildSummary computes and appends the WMax-entry summary row for
// block b (lines [b*S, (b+1)*S)).
func (li *LineIndex) buildSummary(b int) error {
	start := b * li.cfg.SummaryInterval
	end := start + li.cfg.SummaryInterval

	widths := make([]uint16, end-start)
	for i := start; i < end; i++ {
		w, err := li.wid.Get(i)
		if err != nil {
			return err
		}
		widths[i-start] = w
	}

	row := make([]uint32, li.cfg.WMax)
	for w := 1; w <= li.cfg.WMax; w++ {
		var total uint32
		for _, lw := range widths {
			total += uint32(rowsAt(int(lw), w))
		}
		row[w-1] = total
	}
	return li.summ.Extend(row)
}

// rowsAt is the spec's rows_at(x, w) = max(1, ceil(x/w)); an empty
// line still occupies one display row.
func rowsAt(x, w int) int {
	if w <= 0 {
		return 1
	}
	if x <= 0 {
		return 1
	}
	return (x + w - 1) / w
}

func (li *LineIndex) resolveIndex(i int) (int, error) {
	if i < 0 || i >= li.n {
		return 0, llerrors.ErrOutOfRange
	}
	return i, nil
}

// Position returns the byte offset of line i. Negative indices do NOT
// wrap (spec §4.2).
func (li *LineIndex) Position(i int) (uint64, error) {
	idx, err := li.resolveIndex(i)
	if err != nil {
		return 0, err
	}
	return li.pos.Get(idx)
}

// Width returns the clamped display width of line i.
func (li *LineIndex) Width(i int) (int, error) {
	idx, err := li.resolveIndex(i)
	if err != nil {
		return 0, err
	}
	w, err := li.wid.Get(idx)
	if err != nil {
		return 0, err
	}
	return int(w), nil
}

func (li *LineIndex) clampWidth(w int) int {
	return li.cfg.ClampWidth(w)
}

// TotalRows returns the total display rows at width w across all N
// lines (spec §4.2 algorithm). A w <= 0 returns 0.
func (li *LineIndex) TotalRows(w int) (int, error) {
	if w <= 0 {
		return 0, nil
	}
	w = li.clampWidth(w)

	completed := li.n / li.cfg.SummaryInterval
	total := 0
	for b := 0; b < completed; b++ {
		s, err := li.summaryAt(b, w)
		if err != nil {
			return 0, err
		}
		total += int(s)
	}
	for i := completed * li.cfg.SummaryInterval; i < li.n; i++ {
		lw, err := li.wid.Get(i)
		if err != nil {
			return 0, err
		}
		total += rowsAt(int(lw), w)
	}
	return total, nil
}

// RowForLine returns the display row at which logical line i begins
// at width w (spec §4.2).
func (li *LineIndex) RowForLine(i, w int) (int, error) {
	idx, err := li.resolveIndex(i)
	if err != nil {
		return 0, err
	}
	w = li.clampWidth(w)

	b := idx / li.cfg.SummaryInterval
	row := 0
	for k := 0; k < b; k++ {
		s, err := li.summaryAt(k, w)
		if err != nil {
			return 0, err
		}
		row += int(s)
	}
	start := b * li.cfg.SummaryInterval
	for j := start; j < idx; j++ {
		lw, err := li.wid.Get(j)
		if err != nil {
			return 0, err
		}
		row += rowsAt(int(lw), w)
	}
	return row, nil
}

// LineForRow finds the logical line containing display row r at width
// w, returning (line, rowOffsetWithinLine) (spec §4.2).
func (li *LineIndex) LineForRow(r, w int) (int, int, error) {
	if w <= 0 {
		return 0, 0, llerrors.ErrOutOfRange
	}
	if r < 0 {
		return 0, 0, llerrors.ErrOutOfRange
	}
	w = li.clampWidth(w)

	completed := li.n / li.cfg.SummaryInterval
	acc := 0
	cursor := completed * li.cfg.SummaryInterval

	for b := 0; b < completed; b++ {
		s, err := li.summaryAt(b, w)
		if err != nil {
			return 0, 0, err
		}
		if acc+int(s) > r {
			cursor = b * li.cfg.SummaryInterval
			break
		}
		acc += int(s)
	}

	for i := cursor; i < li.n; i++ {
		lw, err := li.wid.Get(i)
		if err != nil {
			return 0, 0, err
		}
		rows := rowsAt(int(lw), w)
		if acc+rows > r {
			return i, r - acc, nil
		}
		acc += rows
	}
	return 0, 0, llerrors.ErrOutOfRange
}

func (li *LineIndex) summaryAt(block, w int) (uint32, error) {
	return li.summ.Get(block*li.cfg.WMax + (w - 1))
}
