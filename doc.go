// Package logloglog indexes a very large, append-only text log so a
// terminal scrollback can answer two questions in sublinear time:
// which display row does logical line i start at, and which logical
// line covers display row R, at an arbitrary terminal width.
//
// An Indexer attaches to a log file, maintains a persistent on-disk
// cache keyed by the file's OS identity (not its path), and streams
// newly appended bytes on each Update. A WidthView presents one fixed
// width as a row-indexable slice of the Indexer's row space.
//
// The package does not parse log content, search, filter, compress,
// or support concurrent writers; callers drive one Indexer per task.
package logloglog
