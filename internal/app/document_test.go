package app

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/mdscribe/internal/document"
	"github.com/dshills/mdscribe/internal/format"
)

func addSession(t *testing.T, dm *DocumentManager, path string) *Session {
	t.Helper()
	s := NewSession(document.New())
	dm.Add(s, path)
	return s
}

func TestDocumentManagerAdd(t *testing.T) {
	dm := NewDocumentManager()
	defer dm.CloseAll()

	a := addSession(t, dm, "/a.md")
	b := addSession(t, dm, "")

	if dm.Count() != 2 {
		t.Errorf("expected 2 documents, got %d", dm.Count())
	}
	if dm.Active() != b {
		t.Error("expected last added session to be active")
	}
	if got, ok := dm.ByPath("/a.md"); !ok || got != a {
		t.Error("expected lookup by path to find a")
	}
	if got, ok := dm.Get(b.ID()); !ok || got != b {
		t.Error("expected lookup by id to find b")
	}
}

func TestDocumentManagerSetPath(t *testing.T) {
	dm := NewDocumentManager()
	defer dm.CloseAll()

	s := addSession(t, dm, "/old.md")
	if err := dm.SetPath(s.ID(), "/new.md"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := dm.ByPath("/old.md"); ok {
		t.Error("expected old path to be released")
	}
	if _, ok := dm.ByPath("/new.md"); !ok {
		t.Error("expected new path to be indexed")
	}
	if err := dm.SetPath("missing", "/x.md"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestDocumentManagerClose(t *testing.T) {
	dm := NewDocumentManager()

	a := addSession(t, dm, "/a.md")
	b := addSession(t, dm, "/b.md")

	if err := dm.Close(b.ID()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dm.Active() != a {
		t.Error("expected remaining session to become active")
	}
	if _, err := b.Snapshot(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected closed session, got %v", err)
	}
	if err := dm.Close(b.ID()); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}

	dm.CloseAll()
	if dm.Count() != 0 || dm.Active() != nil {
		t.Error("expected no documents after CloseAll")
	}
}

func TestDocumentManagerNavigation(t *testing.T) {
	dm := NewDocumentManager()
	defer dm.CloseAll()

	if dm.Next() != nil {
		t.Error("expected nil from empty manager")
	}

	a := addSession(t, dm, "")
	b := addSession(t, dm, "")
	c := addSession(t, dm, "")

	if dm.Next() != a {
		t.Error("expected Next to wrap to a")
	}
	if dm.Next() != b {
		t.Error("expected Next to reach b")
	}
	if dm.Previous() != a {
		t.Error("expected Previous to return a")
	}
	if dm.Previous() != c {
		t.Error("expected Previous to wrap to c")
	}
	if err := dm.SetActive(b.ID()); err != nil || dm.Active() != b {
		t.Errorf("expected b active, err %v", err)
	}
}

func TestDocumentManagerDirty(t *testing.T) {
	dm := NewDocumentManager()
	defer dm.CloseAll()
	ctx := context.Background()

	addSession(t, dm, "")
	dirty := addSession(t, dm, "")
	_, _ = dirty.ApplyCommand(ctx, format.Bold)

	got, err := dm.Dirty(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != dirty {
		t.Errorf("expected only the edited document, got %d", len(got))
	}
}
