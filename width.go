package logloglog

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mattn/go-runewidth"
)

// WidthFunc measures the display width of a decoded line. It must
// return a non-negative integer; the Indexer clamps the result to
// [0, 65535] before storing it.
type WidthFunc func(line string) int

// defaultWidthCacheSize mirrors the Python original's
// functools.lru_cache(maxsize=100000) around its default width
// function.
const defaultWidthCacheSize = 100000

// newDefaultWidthFunc returns the ASCII-fast-path, Unicode-aware
// fallback width function (spec §4.3 "Width function"), memoized in a
// bounded LRU so repeated lines (blank lines, log prefixes) don't
// re-walk runewidth on every call. Only the default function is
// cached; a caller-supplied WidthFunc is always invoked uncached,
// since caching is documented as an implementation detail of this
// default, not part of the width-function contract.
func newDefaultWidthFunc() WidthFunc {
	cache, err := lru.New[string, int](defaultWidthCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which never
		// happens with the constant above.
		panic(err)
	}
	return func(line string) int {
		if v, ok := cache.Get(line); ok {
			return v
		}
		w := measureWidth(line)
		cache.Add(line, w)
		return w
	}
}

func measureWidth(line string) int {
	if isASCII(line) {
		return len(line)
	}
	return runewidth.StringWidth(line)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
