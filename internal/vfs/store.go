package vfs

import (
	"fmt"
)

// Store loads and saves documents as UTF-8 text.
type Store struct {
	fs FS
}

// NewStore creates a Store on top of fsys. A nil fsys uses the OS.
func NewStore(fsys FS) *Store {
	if fsys == nil {
		fsys = NewOSFS()
	}
	return &Store{fs: fsys}
}

// FS returns the underlying file system.
func (s *Store) FS() FS {
	return s.fs
}

// Load reads the document at path and returns its absolute path and text.
func (s *Store) Load(path string) (string, string, error) {
	abs, err := s.fs.Abs(path)
	if err != nil {
		return "", "", err
	}

	info, err := s.fs.Stat(abs)
	if err != nil {
		return "", "", err
	}
	if info.IsDir {
		return "", "", fmt.Errorf("%s: %w", abs, ErrIsDirectory)
	}

	data, err := s.fs.ReadFile(abs)
	if err != nil {
		return "", "", err
	}

	text, err := DecodeText(data)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", abs, err)
	}
	return abs, text, nil
}

// Save writes text to path and returns the absolute path written.
func (s *Store) Save(path, text string) (string, error) {
	abs, err := s.fs.Abs(path)
	if err != nil {
		return "", err
	}

	data, err := EncodeText(text)
	if err != nil {
		return "", fmt.Errorf("%s: %w", abs, err)
	}
	if err := s.fs.WriteFile(abs, data, DefaultPerm); err != nil {
		return "", err
	}
	return abs, nil
}
