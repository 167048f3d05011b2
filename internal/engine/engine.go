package engine

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/mdscribe/internal/document"
	"github.com/dshills/mdscribe/internal/format"
	"github.com/dshills/mdscribe/internal/voice"
)

// MaxRepeat bounds how many times one request may apply a command.
const MaxRepeat = 1000

// Result describes a completed mutation.
type Result struct {
	// Command is the applied command. Zero for literal appends.
	Command format.Command

	// Literal is true when Result describes appended dictation.
	Literal bool

	// Position is the rune offset where the insertion started.
	Position int

	// Inserted is the text spliced into the document.
	Inserted string

	// Cursor is the cursor offset after the mutation.
	Cursor int
}

// Engine applies formatting commands to documents.
// An Engine holds no document state and may be shared.
type Engine struct {
	separator string
}

// New creates an Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{separator: DefaultSeparator}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply applies cmd to doc.
func (e *Engine) Apply(doc *document.Document, cmd format.Command) Result {
	return Apply(doc, cmd)
}

// ApplyName resolves name in the catalog and applies it n times.
// n below 1 is treated as 1; n above MaxRepeat fails with ErrRepeatLimit
// and leaves doc untouched.
func (e *Engine) ApplyName(doc *document.Document, name string, n int) ([]Result, error) {
	cmd, ok := format.Parse(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	if n > MaxRepeat {
		return nil, fmt.Errorf("%w: %d", ErrRepeatLimit, n)
	}
	return e.ApplyRepeated(doc, cmd, n), nil
}

// ApplyRepeated applies cmd n times, each application starting from the
// cursor left by the previous one. n is clamped to [1, MaxRepeat].
func (e *Engine) ApplyRepeated(doc *document.Document, cmd format.Command, n int) []Result {
	n = max(1, min(n, MaxRepeat))
	results := make([]Result, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, Apply(doc, cmd))
	}
	return results
}

// Run applies an interpreted voice action: its commands in order, or its
// text as dictation.
func (e *Engine) Run(doc *document.Document, action voice.Action) []Result {
	if !action.IsCommand() {
		return []Result{e.AppendLiteral(doc, action.Text)}
	}
	results := make([]Result, 0, len(action.Commands))
	for _, cmd := range action.Commands {
		results = append(results, Apply(doc, cmd))
	}
	return results
}

// AppendLiteral appends dictated text using the engine's separator.
func (e *Engine) AppendLiteral(doc *document.Document, text string) Result {
	return appendLiteral(doc, text, e.separator)
}

// Apply splices cmd's markup into doc at the cursor and marks doc modified.
//
// Line-start commands insert their prefix at the beginning of the line that
// holds the cursor; the cursor ends up just after the prefix. Inline commands
// insert prefix and suffix at the cursor; the cursor ends up between them.
func Apply(doc *document.Document, cmd format.Command) Result {
	runes := []rune(doc.Text())
	position := max(0, min(doc.Cursor(), len(runes)))
	prefix := []rune(cmd.Prefix())

	if cmd.IsLineStart() {
		lineStart := LineStart(runes, position)

		var b strings.Builder
		b.WriteString(string(runes[:lineStart]))
		b.WriteString(string(prefix))
		b.WriteString(string(runes[lineStart:]))

		cursor := lineStart + len(prefix)
		doc.Replace(b.String(), cursor)
		return Result{
			Command:  cmd,
			Position: lineStart,
			Inserted: string(prefix),
			Cursor:   cursor,
		}
	}

	inserted := cmd.Prefix() + cmd.Suffix()

	var b strings.Builder
	b.WriteString(string(runes[:position]))
	b.WriteString(inserted)
	b.WriteString(string(runes[position:]))

	cursor := position + len(prefix)
	doc.Replace(b.String(), cursor)
	return Result{
		Command:  cmd,
		Position: position,
		Inserted: inserted,
		Cursor:   cursor,
	}
}

// LineStart returns the offset just after the last newline before position,
// or 0 when there is none. position is clamped to the slice.
func LineStart(runes []rune, position int) int {
	position = max(0, min(position, len(runes)))
	for i := position - 1; i >= 0; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

// AppendLiteral appends text to the end of doc, separated from existing
// content by a single space. No space is added to an empty document or after
// trailing whitespace. The cursor moves to the end of the text.
func AppendLiteral(doc *document.Document, text string) Result {
	return appendLiteral(doc, text, DefaultSeparator)
}

func appendLiteral(doc *document.Document, text, sep string) Result {
	current := doc.Text()
	position := len([]rune(current))

	inserted := text
	if needsSeparator(current) && strings.TrimSpace(text) != "" {
		inserted = sep + text
	}

	updated := current + inserted
	cursor := len([]rune(updated))
	doc.Replace(updated, cursor)

	return Result{
		Literal:  true,
		Position: position,
		Inserted: inserted,
		Cursor:   cursor,
	}
}

func needsSeparator(text string) bool {
	if text == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(text)
	return !unicode.IsSpace(last)
}
