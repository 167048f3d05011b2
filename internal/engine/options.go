package engine

// DefaultSeparator is placed between existing text and appended dictation.
const DefaultSeparator = " "

// Option configures an Engine during creation.
type Option func(*Engine)

// WithSeparator sets the text placed between existing content and appended
// dictation.
func WithSeparator(sep string) Option {
	return func(e *Engine) {
		e.separator = sep
	}
}
