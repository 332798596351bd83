// Package errors holds the sentinel error values for the index stack.
//
// These map onto the error kinds from the spec this package implements:
// OutOfRange, TypeMismatch, IoError and CorruptIndex. Callers check them
// with errors.Is; IO and Corrupt wrap an underlying cause via %w.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned when an index or display row falls outside
	// the valid extent of an Array, LineIndex, Indexer or WidthView.
	ErrOutOfRange = errors.New("out of range")

	// ErrTypeMismatch names a value that cannot be encoded as an Array's
	// declared element type. Array's Number type constraint rules such a
	// value out at compile time, so no function in this module returns it.
	ErrTypeMismatch = errors.New("value does not fit element type")

	// ErrUnsupported is returned by Array.Open for an element type that
	// is not a recognized fixed-size scalar.
	ErrUnsupported = errors.New("unsupported element type")

	// ErrIoError wraps an underlying I/O failure from the filesystem.
	ErrIoError = errors.New("i/o error")

	// ErrCorruptIndex is returned when an on-disk index sidecar could not
	// be parsed or is internally inconsistent, and recovery could not
	// happen locally (e.g. during a query instead of during Open).
	ErrCorruptIndex = errors.New("corrupt index")

	// errTruncated is internal: it signals the log file shrank below its
	// recorded witness. It never escapes Open/Update; both recover from
	// it by wiping and rebuilding the cache, per the propagation policy.
	errTruncated = errors.New("log truncated")
)

// IsTruncated reports whether err is (or wraps) the internal truncation
// signal. The rebuild itself is triggered by a size comparison in the
// Indexer, not by this error.
func IsTruncated(err error) bool {
	return errors.Is(err, errTruncated)
}

// Truncated returns the internal truncation-detected sentinel.
func Truncated() error {
	return errTruncated
}

// IO wraps a filesystem error as ErrIoError, preserving the cause for
// errors.Is/As and for logging.
func IO(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrIoError, cause)
}

// Corrupt wraps a reason as ErrCorruptIndex.
func Corrupt(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrCorruptIndex)
}
