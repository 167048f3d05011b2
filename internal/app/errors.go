package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrSessionClosed indicates an operation on a closed session.
	ErrSessionClosed = errors.New("session closed")

	// ErrNoActiveDocument indicates no document is currently active.
	ErrNoActiveDocument = errors.New("no active document")

	// ErrDocumentNotFound indicates a document was not found.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrUnsavedChanges indicates a document with unsaved edits changed on
	// disk and was not reloaded.
	ErrUnsavedChanges = errors.New("unsaved changes")

	// ErrNoPath indicates a save of a document that was never saved, with no
	// destination given.
	ErrNoPath = errors.New("document has no file path")
)

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op      string // Operation name (e.g., "save", "open", "export")
	Target  string // Target of the operation (e.g., file path, document name)
	Context string // Additional context
	Err     error  // Underlying error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{
		Op:     op,
		Target: target,
		Err:    err,
	}
}

// WithContext adds context to the error.
// Safe to call on nil receiver - returns nil.
func (e *OperationError) WithContext(ctx string) *OperationError {
	if e == nil {
		return nil
	}
	e.Context = ctx
	return e
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Context != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Context)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is implements errors.Is for OperationError.
// Matches both the wrapper itself and the wrapped error.
func (e *OperationError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*OperationError); ok {
		return e == t
	}
	return errors.Is(e.Err, target)
}

// RecoveredPanicError wraps a panic value as an error.
type RecoveredPanicError struct {
	Value any
}

func (e *RecoveredPanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Alert is a user-facing error report: a short title and a message.
type Alert struct {
	Title   string
	Message string
}

// IsZero reports whether the alert is empty.
func (a Alert) IsZero() bool {
	return a == Alert{}
}

// alertMessages prefixes the message for known operations.
var alertMessages = map[string]string{
	"open":   "Failed to open the file",
	"save":   "Failed to save the file",
	"export": "Failed to save the HTML file",
	"render": "Failed to create the HTML",
	"script": "Failed to run the script",
	"listen": "Voice input stopped",
	"reload": "Failed to reload the file",
}

// AlertFor maps an error to the alert shown to the user. A nil error yields
// the zero Alert.
func AlertFor(err error) Alert {
	if err == nil {
		return Alert{}
	}

	var opErr *OperationError
	if errors.As(err, &opErr) {
		if prefix, ok := alertMessages[opErr.Op]; ok {
			cause := err.Error()
			if opErr.Err != nil {
				cause = opErr.Err.Error()
			}
			return Alert{Title: "Error", Message: fmt.Sprintf("%s: %s", prefix, cause)}
		}
	}
	return Alert{Title: "Error", Message: err.Error()}
}
