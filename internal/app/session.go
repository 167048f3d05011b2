package app

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/dshills/mdscribe/internal/document"
	"github.com/dshills/mdscribe/internal/engine"
	"github.com/dshills/mdscribe/internal/format"
	"github.com/dshills/mdscribe/internal/voice"
)

// DefaultQueueSize is the number of mutations a session buffers.
const DefaultQueueSize = 64

// ChangeHandler observes a document after each mutation that changed it.
type ChangeHandler func(document.Snapshot)

// PreviewHandler observes partial voice results.
type PreviewHandler func(text string, action voice.Action)

// call is one queued operation on a session's document.
type call struct {
	ctx    context.Context
	fn     func(doc *document.Document) error
	result chan error
}

// Session owns one document and serializes every mutation of it through a
// single goroutine. Formatting commands, dictated text, direct text edits and
// cursor moves from any goroutine are applied in the order they were queued.
//
// Change handlers run on the session goroutine after each mutation that
// changed the document. They must not call back into the session.
type Session struct {
	id       string
	doc      *document.Document
	engine   *engine.Engine
	interp   *voice.Interpreter
	logger   *Logger
	previews bool
	marker   string

	queue     chan *call
	done      chan struct{}
	stopped   chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once

	mu              sync.RWMutex
	changeHandlers  []ChangeHandler
	previewHandlers []PreviewHandler
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithEngine sets the command engine.
func WithEngine(e *engine.Engine) SessionOption {
	return func(s *Session) {
		s.engine = e
	}
}

// WithLogger sets the session logger.
func WithLogger(l *Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

// WithPreviewPartials controls whether partial voice results reach preview
// handlers.
func WithPreviewPartials(enabled bool) SessionOption {
	return func(s *Session) {
		s.previews = enabled
	}
}

// WithPartialMarker sets the marker that identifies partial results in line
// transcripts read by ListenLines.
func WithPartialMarker(marker string) SessionOption {
	return func(s *Session) {
		s.marker = marker
	}
}

// NewSession creates a session owning doc and starts its goroutine.
// Call Close to stop it.
func NewSession(doc *document.Document, opts ...SessionOption) *Session {
	s := &Session{
		id:       doc.ID(),
		doc:      doc,
		engine:   engine.New(),
		interp:   voice.NewInterpreter(),
		logger:   NullLogger(),
		previews: true,
		marker:   voice.DefaultPartialMarker,
		queue:    make(chan *call, DefaultQueueSize),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("doc", s.id[:8])

	go s.run()
	return s
}

// ID returns the document ID.
func (s *Session) ID() string {
	return s.id
}

// run processes queued calls until Close.
func (s *Session) run() {
	defer close(s.stopped)

	for {
		select {
		case <-s.done:
			s.drainQueue()
			return
		case c := <-s.queue:
			c.result <- s.execute(c)
			close(c.result)
		}
	}
}

// execute runs a single call. A call whose context ended while it waited
// in the queue is skipped, so cancellation never leaves half an action.
func (s *Session) execute(c *call) (err error) {
	if err := c.ctx.Err(); err != nil {
		return err
	}

	before := s.doc.Snapshot()
	defer func() {
		if r := recover(); r != nil {
			err = &RecoveredPanicError{Value: r}
			s.logger.Error("mutation panicked: %v", r)
		}
		if after := s.doc.Snapshot(); after != before {
			s.notifyChange(after)
		}
	}()

	return c.fn(s.doc)
}

// drainQueue fails calls still waiting after Close.
func (s *Session) drainQueue() {
	for {
		select {
		case c := <-s.queue:
			c.result <- ErrSessionClosed
			close(c.result)
		default:
			return
		}
	}
}

// Do runs fn on the session goroutine and waits for its result.
// If ctx ends before fn starts, fn is not run.
func (s *Session) Do(ctx context.Context, fn func(doc *document.Document) error) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	c := &call{ctx: ctx, fn: fn, result: make(chan error, 1)}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	case s.queue <- c:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-c.result:
		return err
	case <-s.stopped:
		// The call may have been queued after the final drain.
		select {
		case err := <-c.result:
			return err
		default:
			return ErrSessionClosed
		}
	}
}

// Close stops the session goroutine. Queued calls fail with
// ErrSessionClosed.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
	})
	<-s.stopped
}

// OnChange registers a change handler.
func (s *Session) OnChange(h ChangeHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changeHandlers = append(s.changeHandlers, h)
}

// OnPreview registers a handler for partial voice results.
func (s *Session) OnPreview(h PreviewHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previewHandlers = append(s.previewHandlers, h)
}

func (s *Session) notifyChange(snap document.Snapshot) {
	s.mu.RLock()
	handlers := s.changeHandlers
	s.mu.RUnlock()

	for _, h := range handlers {
		h(snap)
	}
}

// ApplyCommand applies one formatting command.
func (s *Session) ApplyCommand(ctx context.Context, cmd format.Command) (engine.Result, error) {
	var res engine.Result
	err := s.Do(ctx, func(doc *document.Document) error {
		res = s.engine.Apply(doc, cmd)
		return nil
	})
	if err == nil {
		s.logger.Debug("applied %s at %d", cmd, res.Position)
	}
	return res, err
}

// ApplyName applies the named command n times as one mutation.
func (s *Session) ApplyName(ctx context.Context, name string, n int) ([]engine.Result, error) {
	var results []engine.Result
	err := s.Do(ctx, func(doc *document.Document) error {
		var err error
		results, err = s.engine.ApplyName(doc, name, n)
		return err
	})
	return results, err
}

// AppendText appends dictated text.
func (s *Session) AppendText(ctx context.Context, text string) (engine.Result, error) {
	var res engine.Result
	err := s.Do(ctx, func(doc *document.Document) error {
		res = s.engine.AppendLiteral(doc, text)
		return nil
	})
	return res, err
}

// Say interprets a final utterance and applies the resulting action.
func (s *Session) Say(ctx context.Context, utterance string) (voice.Action, error) {
	var action voice.Action
	err := s.Do(ctx, func(doc *document.Document) error {
		action = s.interp.Interpret(utterance)
		s.perform(doc, action)
		return nil
	})
	return action, err
}

// Perform applies an already interpreted action as one mutation.
func (s *Session) Perform(ctx context.Context, action voice.Action) error {
	return s.Do(ctx, func(doc *document.Document) error {
		s.perform(doc, action)
		return nil
	})
}

func (s *Session) perform(doc *document.Document, action voice.Action) {
	s.engine.Run(doc, action)
	if action.IsCommand() {
		s.logger.Debug("voice command %q", action.Trigger)
	}
}

// SetText applies a direct text edit; the cursor follows the document's
// cursor policy.
func (s *Session) SetText(ctx context.Context, text string) error {
	return s.Do(ctx, func(doc *document.Document) error {
		doc.SetText(text)
		return nil
	})
}

// SetCursor moves the cursor, clamped to the text.
func (s *Session) SetCursor(ctx context.Context, offset int) error {
	return s.Do(ctx, func(doc *document.Document) error {
		doc.SetCursor(offset)
		return nil
	})
}

// Reset replaces the document with the welcome text.
func (s *Session) Reset(ctx context.Context) error {
	return s.Do(ctx, func(doc *document.Document) error {
		doc.Reset()
		return nil
	})
}

// Load replaces the document with text read from path.
func (s *Session) Load(ctx context.Context, path, text string) error {
	return s.Do(ctx, func(doc *document.Document) error {
		doc.Load(path, text)
		return nil
	})
}

// Snapshot returns the current document state.
func (s *Session) Snapshot(ctx context.Context) (document.Snapshot, error) {
	var snap document.Snapshot
	err := s.Do(ctx, func(doc *document.Document) error {
		snap = doc.Snapshot()
		return nil
	})
	return snap, err
}

// Interpreter returns the session's voice interpreter.
func (s *Session) Interpreter() *voice.Interpreter {
	return s.interp
}

// LastCommand returns the raw text of the last final utterance.
func (s *Session) LastCommand() string {
	return s.interp.LastCommand()
}

// Listen consumes src until it ends, fails, or ctx is cancelled. Final
// results are applied in order; partial results only reach preview handlers.
func (s *Session) Listen(ctx context.Context, src voice.Source) error {
	s.logger.Info("listening")
	err := voice.NewListener(s.interp).Listen(ctx, src, &sessionSink{s: s, ctx: ctx})
	s.logger.Info("stopped listening")
	return err
}

// ListenLines listens to a line transcript read from r, as produced by an
// external recognizer. See voice.LineSource for the format.
func (s *Session) ListenLines(ctx context.Context, r io.Reader) error {
	return s.Listen(ctx, voice.NewLineSource(r, voice.WithPartialMarker(s.marker)))
}

// sessionSink adapts a Session to voice.Sink for one Listen call.
type sessionSink struct {
	s   *Session
	ctx context.Context
}

func (k *sessionSink) Preview(text string, action voice.Action) {
	if !k.s.previews {
		return
	}

	k.s.mu.RLock()
	handlers := k.s.previewHandlers
	k.s.mu.RUnlock()

	for _, h := range handlers {
		h(text, action)
	}
}

func (k *sessionSink) Commit(action voice.Action) error {
	return k.s.Perform(k.ctx, action)
}
