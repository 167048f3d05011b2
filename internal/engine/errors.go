package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrUnknownCommand indicates a command name that is not in the catalog.
	ErrUnknownCommand = errors.New("unknown formatting command")

	// ErrRepeatLimit indicates a repeat count above MaxRepeat.
	ErrRepeatLimit = errors.New("repeat count too large")
)
