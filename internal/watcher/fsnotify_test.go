package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFSNotifyWatcher_WatchUnwatch(t *testing.T) {
	w, err := NewFSNotifyWatcher()
	if err != nil {
		t.Fatalf("NewFSNotifyWatcher error = %v", err)
	}
	defer w.Close()

	path := filepath.Join(t.TempDir(), "doc.md")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch error = %v", err)
	}
	if !w.IsWatching(path) {
		t.Error("should be watching path")
	}
	if err := w.Watch(path); err != ErrAlreadyWatching {
		t.Errorf("Watch again error = %v, want ErrAlreadyWatching", err)
	}

	if err := w.Unwatch(path); err != nil {
		t.Fatalf("Unwatch error = %v", err)
	}
	if w.IsWatching(path) {
		t.Error("should not be watching path after Unwatch")
	}
	if err := w.Unwatch(path); err != ErrNotWatching {
		t.Errorf("Unwatch again error = %v, want ErrNotWatching", err)
	}
}

func TestFSNotifyWatcher_WatchNonexistent(t *testing.T) {
	w, err := NewFSNotifyWatcher()
	if err != nil {
		t.Fatalf("NewFSNotifyWatcher error = %v", err)
	}
	defer w.Close()

	if err := w.Watch("/nonexistent/path/doc.md"); err != ErrPathNotExist {
		t.Errorf("Watch nonexistent error = %v, want ErrPathNotExist", err)
	}
}

func TestFSNotifyWatcher_SharedDirectory(t *testing.T) {
	w, err := NewFSNotifyWatcher()
	if err != nil {
		t.Fatalf("NewFSNotifyWatcher error = %v", err)
	}
	defer w.Close()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.md")
	b := filepath.Join(dir, "b.md")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile error = %v", err)
		}
		if err := w.Watch(p); err != nil {
			t.Fatalf("Watch error = %v", err)
		}
	}

	if err := w.Unwatch(a); err != nil {
		t.Fatalf("Unwatch error = %v", err)
	}
	if w.dirs[dir] != 1 {
		t.Errorf("dir refcount = %d, want 1", w.dirs[dir])
	}
}

func TestFSNotifyWatcher_DetectsWrites(t *testing.T) {
	w, err := NewFSNotifyWatcher()
	if err != nil {
		t.Fatalf("NewFSNotifyWatcher error = %v", err)
	}
	defer w.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	other := filepath.Join(dir, "other.md")
	if err := os.WriteFile(path, []byte("one"), 0o644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch error = %v", err)
	}

	if err := os.WriteFile(other, []byte("ignored"), 0o644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	if err := os.WriteFile(path, []byte("two"), 0o644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Path != path {
				t.Fatalf("got event for unwatched file %q", ev.Path)
			}
			if ev.Op.Changed() {
				return
			}
		case <-timeout:
			t.Fatal("timeout waiting for write event")
		}
	}
}

func TestFSNotifyWatcher_Closed(t *testing.T) {
	w, err := NewFSNotifyWatcher()
	if err != nil {
		t.Fatalf("NewFSNotifyWatcher error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	if err := w.Watch("/tmp"); err != ErrWatcherClosed {
		t.Errorf("Watch after close error = %v, want ErrWatcherClosed", err)
	}
}
