package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/mdscribe/internal/document"
	"github.com/dshills/mdscribe/internal/format"
	"github.com/dshills/mdscribe/internal/voice"
)

func newTestSession(t *testing.T, text string, opts ...SessionOption) *Session {
	t.Helper()
	s := NewSession(document.New(document.WithWelcome(text)), opts...)
	t.Cleanup(s.Close)
	return s
}

func TestSessionApplyCommand(t *testing.T) {
	s := newTestSession(t, "")
	ctx := context.Background()

	res, err := s.ApplyCommand(ctx, format.Bold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Cursor != 2 {
		t.Errorf("expected cursor 2, got %d", res.Cursor)
	}

	snap, _ := s.Snapshot(ctx)
	if snap.Text != "****" || !snap.Modified {
		t.Errorf("expected modified %q, got %+v", "****", snap)
	}
}

func TestSessionSay(t *testing.T) {
	s := newTestSession(t, "hello")
	ctx := context.Background()

	action, err := s.Say(ctx, "please make header now")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !action.IsCommand() || action.Commands[0] != format.Header1 {
		t.Errorf("expected header1, got %+v", action)
	}

	if _, err := s.Say(ctx, "The weather is nice today"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, _ := s.Snapshot(ctx)
	if snap.Text != "# hello The weather is nice today" {
		t.Errorf("unexpected text %q", snap.Text)
	}
	if s.LastCommand() != "The weather is nice today" {
		t.Errorf("unexpected last command %q", s.LastCommand())
	}
}

func TestSessionNewParagraphIsOneChange(t *testing.T) {
	s := newTestSession(t, "a")
	var changes int
	s.OnChange(func(document.Snapshot) { changes++ })

	if _, err := s.Say(context.Background(), "new paragraph"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, _ := s.Snapshot(context.Background())
	if snap.Text != "a\n\n" {
		t.Errorf("expected %q, got %q", "a\n\n", snap.Text)
	}
	if changes != 1 {
		t.Errorf("expected 1 change notification, got %d", changes)
	}
}

func TestSessionApplyName(t *testing.T) {
	s := newTestSession(t, "")
	ctx := context.Background()

	results, err := s.ApplyName(ctx, "bold", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || results[1].Cursor != 4 {
		t.Errorf("unexpected results %+v", results)
	}

	if _, err := s.ApplyName(ctx, "sparkle", 1); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestSessionSetTextAndCursor(t *testing.T) {
	s := newTestSession(t, "hello world", WithPreviewPartials(false))
	ctx := context.Background()

	if err := s.SetCursor(ctx, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, _ := s.Snapshot(ctx)
	if snap.Cursor != 11 {
		t.Errorf("expected clamped cursor 11, got %d", snap.Cursor)
	}

	if err := s.SetText(ctx, "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, _ = s.Snapshot(ctx)
	if snap.Text != "hi" || snap.Cursor != 2 {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, _ = s.Snapshot(ctx)
	if snap.Text != "hello world" || snap.Modified {
		t.Errorf("expected welcome text after reset, got %+v", snap)
	}
}

func TestSessionChangeHandlers(t *testing.T) {
	s := newTestSession(t, "")
	ctx := context.Background()

	var got []string
	s.OnChange(func(snap document.Snapshot) { got = append(got, snap.Text) })

	_, _ = s.ApplyCommand(ctx, format.Italic)
	_, _ = s.Snapshot(ctx)
	_ = s.SetCursor(ctx, 1)
	_, _ = s.AppendText(ctx, "x")

	want := []string{"**", "** x"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSessionSerializesConcurrentMutations(t *testing.T) {
	s := newTestSession(t, "")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.ApplyCommand(ctx, format.LineBreak)
		}()
	}
	wg.Wait()

	snap, _ := s.Snapshot(ctx)
	if snap.Text != strings.Repeat("\n", 50) || snap.Cursor != 50 {
		t.Errorf("expected 50 newlines with cursor 50, got %d runes, cursor %d", len(snap.Text), snap.Cursor)
	}
}

func TestSessionCancelledCallIsSkipped(t *testing.T) {
	s := newTestSession(t, "")

	block := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = s.Do(context.Background(), func(*document.Document) error {
			close(started)
			<-block
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := s.ApplyCommand(ctx, format.Bold)
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	close(block)

	snap, _ := s.Snapshot(context.Background())
	if snap.Text != "" {
		t.Errorf("expected cancelled command to be skipped, got %q", snap.Text)
	}
}

func TestSessionClose(t *testing.T) {
	s := NewSession(document.New())
	s.Close()
	s.Close()

	if _, err := s.ApplyCommand(context.Background(), format.Bold); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestSessionCallQueuedAfterClose(t *testing.T) {
	for i := 0; i < 100; i++ {
		s := NewSession(document.New())
		s.Close()
		// Simulates a caller that passed the closed check just before Close.
		s.closed.Store(false)

		result := make(chan error, 1)
		go func() {
			result <- s.Do(context.Background(), func(*document.Document) error { return nil })
		}()

		select {
		case err := <-result:
			if !errors.Is(err, ErrSessionClosed) {
				t.Fatalf("expected ErrSessionClosed, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("call queued after close never returned")
		}
	}
}

func TestSessionPanicRecovered(t *testing.T) {
	s := newTestSession(t, "")

	err := s.Do(context.Background(), func(*document.Document) error {
		panic("boom")
	})
	var pe *RecoveredPanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected RecoveredPanicError, got %v", err)
	}

	if _, err := s.Snapshot(context.Background()); err != nil {
		t.Errorf("expected session to keep running, got %v", err)
	}
}

func TestSessionListen(t *testing.T) {
	s := newTestSession(t, "")
	ctx := context.Background()

	var previews []string
	s.OnPreview(func(text string, _ voice.Action) { previews = append(previews, text) })

	transcript := "~ make\nmake header\n~ hello\nhello there\nnew paragraph\n"
	if err := s.ListenLines(ctx, strings.NewReader(transcript)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, _ := s.Snapshot(ctx)
	if snap.Text != "# hello there\n\n" {
		t.Errorf("unexpected text %q", snap.Text)
	}
	if len(previews) != 2 {
		t.Errorf("expected 2 previews, got %v", previews)
	}
	if s.LastCommand() != "new paragraph" {
		t.Errorf("unexpected last command %q", s.LastCommand())
	}
}

func TestSessionListenWithoutPreviews(t *testing.T) {
	s := newTestSession(t, "", WithPreviewPartials(false), WithPartialMarker("?"))

	var previews int
	s.OnPreview(func(string, voice.Action) { previews++ })

	if err := s.ListenLines(context.Background(), strings.NewReader("? bold\nbold that\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if previews != 0 {
		t.Errorf("expected previews to be suppressed, got %d", previews)
	}

	snap, _ := s.Snapshot(context.Background())
	if snap.Text != "****" {
		t.Errorf("expected %q, got %q", "****", snap.Text)
	}
}
