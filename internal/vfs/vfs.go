// Package vfs is the file I/O collaborator: it reads markdown documents from
// and writes them to a file system.
//
// The FS interface allows swapping the underlying implementation, so tests
// run against MemFS while the application uses OSFS. Documents are UTF-8;
// a UTF-8 byte order mark is stripped on read and other encodings are
// rejected.
package vfs

import (
	"errors"
	"io/fs"
	"time"
)

// Errors returned by vfs operations.
var (
	// ErrInvalidEncoding indicates content that is not valid UTF-8.
	ErrInvalidEncoding = errors.New("content is not valid UTF-8")

	// ErrUnsupportedEncoding indicates a UTF-16 byte order mark.
	ErrUnsupportedEncoding = errors.New("unsupported text encoding")

	// ErrIsDirectory indicates a directory where a file was expected.
	ErrIsDirectory = errors.New("path is a directory")
)

// DefaultPerm is the permission used for newly created documents.
const DefaultPerm fs.FileMode = 0o644

// FS is the subset of file system operations the editor needs.
type FS interface {
	// ReadFile reads the entire file content.
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces the file content, creating the file if necessary.
	WriteFile(path string, data []byte, perm fs.FileMode) error

	// Stat returns file information.
	Stat(path string) (FileInfo, error)

	// Abs returns the absolute form of path.
	Abs(path string) (string, error)
}

// FileInfo describes a file.
type FileInfo struct {
	Path    string
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
	IsDir   bool
}
