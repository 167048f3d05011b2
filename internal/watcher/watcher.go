// Package watcher detects external changes to open documents.
//
// Editors and the vfs package save by writing a temporary file and renaming
// it over the target, which replaces the inode a per-file watch is attached
// to. Watchers therefore observe each document's parent directory and report
// only events for the files that were registered. Rapid sequences of events
// for one file are coalesced by the Debounced wrapper.
package watcher

import (
	"errors"
	"time"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("path is already being watched")
	ErrNotWatching     = errors.New("path is not being watched")
	ErrPathNotExist    = errors.New("path does not exist")
)

// Op represents the type of file system operation.
type Op uint32

const (
	// OpCreate indicates a file was created, including by rename.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file was removed.
	OpRemove
	// OpRename indicates a file was renamed away.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	names := []struct {
		op   Op
		name string
	}{
		{OpCreate, "CREATE"},
		{OpWrite, "WRITE"},
		{OpRemove, "REMOVE"},
		{OpRename, "RENAME"},
	}

	s := ""
	for _, n := range names {
		if op.Has(n.op) {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

// Has returns true if the operation includes the given op.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Changed reports whether the file content may differ after the operation.
func (op Op) Changed() bool {
	return op.Has(OpWrite) || op.Has(OpCreate)
}

// Gone reports whether the file no longer exists at its path.
func (op Op) Gone() bool {
	return !op.Changed() && (op.Has(OpRemove) || op.Has(OpRename))
}

// Event represents a change to a watched document.
type Event struct {
	// Path is the absolute path of the document.
	Path string

	// Op is the operation that occurred.
	Op Op

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Watcher monitors documents for external changes.
type Watcher interface {
	// Watch starts watching a file. Returns ErrAlreadyWatching if the file is
	// already being watched.
	Watch(path string) error

	// Unwatch stops watching a file.
	// Returns ErrNotWatching if the file isn't being watched.
	Unwatch(path string) error

	// IsWatching returns true if the file is being watched.
	IsWatching(path string) bool

	// Events returns the channel of change events.
	// The channel is closed when the watcher is closed.
	Events() <-chan Event

	// Errors returns the channel of watcher errors.
	// The channel is closed when the watcher is closed.
	Errors() <-chan error

	// Close stops the watcher and releases resources.
	Close() error
}
