package voice

import (
	"context"
	"fmt"
)

// Sink receives the output of a Listener.
type Sink interface {
	// Preview receives partial results. It must not mutate the document.
	Preview(text string, action Action)

	// Commit applies a finalized action. Commits arrive in the order the
	// utterances were finalized.
	Commit(action Action) error
}

// Listener drives a Source through an Interpreter into a Sink.
type Listener struct {
	interp *Interpreter
}

// NewListener creates a Listener using interp to classify final results.
func NewListener(interp *Interpreter) *Listener {
	if interp == nil {
		interp = NewInterpreter()
	}
	return &Listener{interp: interp}
}

// Interpreter returns the interpreter used for final results.
func (l *Listener) Interpreter() *Interpreter {
	return l.interp
}

// Listen consumes src until it ends, fails, or ctx is cancelled.
//
// Partial results are classified without being recorded and passed to
// sink.Preview. Final results go through Interpret and sink.Commit one at a
// time. After cancellation nothing further is committed, and a pending
// partial result is dropped.
//
// Listen returns nil when the source ends normally, ctx.Err() when cancelled,
// and the first source or commit error otherwise.
func (l *Listener) Listen(ctx context.Context, src Source, sink Sink) error {
	events, errs := src.Transcripts(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err, ok := <-errs:
			if ok && err != nil {
				return fmt.Errorf("transcription: %w", err)
			}
			errs = nil

		case ev, ok := <-events:
			if !ok {
				return l.drainError(errs)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !ev.Final {
				sink.Preview(ev.Text, Classify(ev.Text))
				continue
			}
			if ev.Text == "" {
				continue
			}
			if err := sink.Commit(l.interp.Interpret(ev.Text)); err != nil {
				return fmt.Errorf("commit %q: %w", ev.Text, err)
			}
		}
	}
}

func (l *Listener) drainError(errs <-chan error) error {
	if errs == nil {
		return nil
	}
	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("transcription: %w", err)
		}
	default:
	}
	return nil
}
