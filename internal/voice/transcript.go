package voice

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Errors returned by transcript sources.
var (
	// ErrFeedClosed indicates a push to a closed Feed.
	ErrFeedClosed = errors.New("transcript feed is closed")
)

// Transcript is one recognition result. Partial results are revised until a
// final result for the same utterance arrives.
type Transcript struct {
	Text  string
	Final bool
}

// Source produces transcription events until ctx is cancelled or the
// capture session ends. The events channel is closed when the source is done.
// The error channel carries at most one error.
type Source interface {
	Transcripts(ctx context.Context) (<-chan Transcript, <-chan error)
}

// Feed is a Source driven by callbacks, for recognizers that report results
// through a delegate.
type Feed struct {
	mu     sync.RWMutex
	events chan Transcript
	errs   chan error
	done   chan struct{}
	once   sync.Once
	closed bool
}

// NewFeed creates a Feed that buffers up to size events.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 64
	}
	return &Feed{
		events: make(chan Transcript, size),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
}

// Push delivers a recognition result. It blocks while the buffer is full,
// until the feed is closed.
func (f *Feed) Push(text string, final bool) error {
	return f.PushContext(context.Background(), text, final)
}

// PushContext is like Push but also gives up when ctx ends.
func (f *Feed) PushContext(ctx context.Context, text string, final bool) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return ErrFeedClosed
	}
	select {
	case f.events <- Transcript{Text: text, Final: final}:
		return nil
	case <-f.done:
		return ErrFeedClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fail reports a recognizer failure and closes the feed.
func (f *Feed) Fail(err error) {
	f.shutdown(err)
}

// Close ends the capture session. Pushes blocked on a full buffer return
// ErrFeedClosed.
func (f *Feed) Close() {
	f.shutdown(nil)
}

func (f *Feed) shutdown(err error) {
	f.once.Do(func() {
		// Wakes blocked pushes so they release the read lock.
		close(f.done)

		f.mu.Lock()
		defer f.mu.Unlock()

		if err != nil {
			f.errs <- err
		}
		f.closed = true
		close(f.events)
	})
}

// Transcripts implements Source. The context is honored by the Listener.
func (f *Feed) Transcripts(_ context.Context) (<-chan Transcript, <-chan error) {
	return f.events, f.errs
}

// DefaultPartialMarker marks a partial result in a line transcript.
const DefaultPartialMarker = "~"

// LineSource reads a transcript from a reader, one event per line. Lines
// starting with the partial marker are partial results; all other non-blank
// lines are final.
type LineSource struct {
	r      io.Reader
	marker string
}

// LineOption configures a LineSource.
type LineOption func(*LineSource)

// WithPartialMarker sets the prefix that marks a partial result. An empty
// marker is ignored.
func WithPartialMarker(marker string) LineOption {
	return func(s *LineSource) {
		if marker != "" {
			s.marker = marker
		}
	}
}

// NewLineSource creates a LineSource reading from r.
func NewLineSource(r io.Reader, opts ...LineOption) *LineSource {
	s := &LineSource{r: r, marker: DefaultPartialMarker}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transcripts implements Source.
func (s *LineSource) Transcripts(ctx context.Context) (<-chan Transcript, <-chan error) {
	events := make(chan Transcript)
	errs := make(chan error, 1)

	go func() {
		defer close(events)

		scanner := bufio.NewScanner(s.r)
		for scanner.Scan() {
			ev, ok := s.parse(scanner.Text())
			if !ok {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- fmt.Errorf("reading transcript: %w", err)
		}
	}()

	return events, errs
}

func (s *LineSource) parse(line string) (Transcript, bool) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return Transcript{}, false
	}
	if rest, ok := strings.CutPrefix(line, s.marker); ok {
		return Transcript{Text: strings.TrimSpace(rest)}, true
	}
	return Transcript{Text: strings.TrimSpace(line), Final: true}, true
}
