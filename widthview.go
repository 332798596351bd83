package logloglog

import (
	llerrors "github.com/kbazzad/logloglog/internal/errors"
)

// WidthView presents a 1-D, row-indexable view over an Indexer's
// display rows at a fixed terminal width (spec §4.4). Its length is
// computed once, at construction, from total_rows(W); unlike the
// Indexer, a WidthView does cache a width-specific row count, since it
// represents a single rendering of one fixed width rather than the
// width-agnostic core.
type WidthView struct {
	ix     *Indexer
	width  int
	start  int
	length int
}

// Len returns the number of display rows in the view.
func (wv *WidthView) Len() int {
	return wv.length
}

// Get returns the text of display row r: the logical line covering
// that row, sliced to the columns it contributes to row r. Negative r
// wraps from the end of the view; out-of-range raises ErrOutOfRange.
//
// Slicing is by code point (rune) index, while the default width
// function counts display columns; a line containing wide characters
// may therefore not slice at exact column boundaries — the core does
// not perform grapheme- or column-aware re-splitting (see design
// notes). If the row's starting rune index falls past the end of the
// decoded line (possible when the stored width exceeds the line's
// rune count, as with wide characters or a custom width function),
// Get returns "".
func (wv *WidthView) Get(r int) (string, error) {
	if r < 0 {
		r += wv.length
	}
	if r < 0 || r >= wv.length {
		return "", llerrors.ErrOutOfRange
	}

	i, o, err := wv.ix.li.LineForRow(wv.start+r, wv.width)
	if err != nil {
		return "", err
	}
	text, err := wv.ix.Get(i)
	if err != nil {
		return "", err
	}

	runes := []rune(text)
	from := o * wv.width
	if from >= len(runes) {
		return "", nil
	}
	to := from + wv.width
	if to > len(runes) {
		to = len(runes)
	}
	return string(runes[from:to]), nil
}

// LineAt returns the logical line index and within-line row offset
// for view-relative row r.
func (wv *WidthView) LineAt(r int) (int, int, error) {
	if r < 0 {
		r += wv.length
	}
	if r < 0 || r >= wv.length {
		return 0, 0, llerrors.ErrOutOfRange
	}
	return wv.ix.li.LineForRow(wv.start+r, wv.width)
}

// RowFor returns the view-relative row at which logical line i begins,
// or ErrOutOfRange if that row falls outside the view.
func (wv *WidthView) RowFor(i int) (int, error) {
	row, err := wv.ix.li.RowForLine(i, wv.width)
	if err != nil {
		return 0, err
	}
	r := row - wv.start
	if r < 0 || r >= wv.length {
		return 0, llerrors.ErrOutOfRange
	}
	return r, nil
}
