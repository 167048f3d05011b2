// Package document holds the in-memory model of a markdown document being
// edited: its text, the caret position, the modified flag and the location it
// was loaded from.
//
// Offsets are measured in runes, not bytes. Every setter clamps the cursor to
// [0, RuneLen()], so callers never see an out-of-range error.
//
// A Document is not safe for concurrent mutation. Callers that share one
// between goroutines must serialize access (see app.Session).
package document

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/adrg/frontmatter"
	"github.com/google/uuid"
)

// Welcome is the built-in document shown for new, unsaved documents.
const Welcome = `# Welcome to mdscribe

Open a markdown file, or start writing here.

- Use the formatting commands to insert **bold**, *italic*, lists, tables and more.
- Dictate text and say "make header", "start list" or "new paragraph" to format by voice.
`

// CursorPolicy decides where the cursor lands after a direct text edit.
type CursorPolicy int

const (
	// CursorCaret keeps the caret where it was, clamped to the new text.
	CursorCaret CursorPolicy = iota
	// CursorEnd moves the caret to the end of the text after every edit.
	CursorEnd
)

// String returns the configuration name of the policy.
func (p CursorPolicy) String() string {
	switch p {
	case CursorCaret:
		return "caret"
	case CursorEnd:
		return "end"
	default:
		return "unknown"
	}
}

// ParseCursorPolicy parses "caret" or "end". Unknown values yield CursorCaret.
func ParseCursorPolicy(s string) CursorPolicy {
	if strings.EqualFold(strings.TrimSpace(s), "end") {
		return CursorEnd
	}
	return CursorCaret
}

// LoadCursor decides where the cursor lands after Load.
type LoadCursor int

const (
	// LoadAtStart places the cursor at offset 0.
	LoadAtStart LoadCursor = iota
	// LoadAtEnd places the cursor after the last rune.
	LoadAtEnd
)

// ParseLoadCursor parses "start" or "end". Unknown values yield LoadAtStart.
func ParseLoadCursor(s string) LoadCursor {
	if strings.EqualFold(strings.TrimSpace(s), "end") {
		return LoadAtEnd
	}
	return LoadAtStart
}

// Document is the mutable model of one markdown document.
type Document struct {
	id       string
	text     string
	cursor   int
	modified bool
	path     string

	welcome    string
	policy     CursorPolicy
	loadCursor LoadCursor
}

// Option configures a Document during creation.
type Option func(*Document)

// WithWelcome replaces the built-in welcome text.
func WithWelcome(text string) Option {
	return func(d *Document) {
		d.welcome = text
	}
}

// WithCursorPolicy sets how SetText moves the cursor.
func WithCursorPolicy(p CursorPolicy) Option {
	return func(d *Document) {
		d.policy = p
	}
}

// WithLoadCursor sets where Load places the cursor.
func WithLoadCursor(lc LoadCursor) Option {
	return func(d *Document) {
		d.loadCursor = lc
	}
}

// New creates a document holding the welcome text, cursor at its end.
func New(opts ...Option) *Document {
	d := &Document{
		id:      uuid.NewString(),
		welcome: Welcome,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.Reset()
	return d
}

// Snapshot is an immutable copy of a document's observable state.
type Snapshot struct {
	ID       string
	Text     string
	Cursor   int
	Modified bool
	Path     string
}

// Snapshot returns a copy of the current state.
func (d *Document) Snapshot() Snapshot {
	return Snapshot{
		ID:       d.id,
		Text:     d.text,
		Cursor:   d.cursor,
		Modified: d.modified,
		Path:     d.path,
	}
}

// ID returns the identifier of this editing session's document.
func (d *Document) ID() string { return d.id }

// Text returns the full document content.
func (d *Document) Text() string { return d.text }

// Cursor returns the caret offset in runes.
func (d *Document) Cursor() int { return d.cursor }

// IsModified reports whether the document changed since it was loaded or saved.
func (d *Document) IsModified() bool { return d.modified }

// Path returns the persisted location, or "" for unsaved documents.
func (d *Document) Path() string { return d.path }

// HasPath reports whether the document has a persisted location.
func (d *Document) HasPath() bool { return d.path != "" }

// CursorPolicy returns the policy applied by SetText.
func (d *Document) CursorPolicy() CursorPolicy { return d.policy }

// RuneLen returns the length of the text in runes.
func (d *Document) RuneLen() int {
	return utf8.RuneCountInString(d.text)
}

// Name returns the base name of the document path, or "Untitled".
func (d *Document) Name() string {
	if d.path == "" {
		return "Untitled"
	}
	return filepath.Base(d.path)
}

// Title returns the front matter title when present, otherwise Name.
func (d *Document) Title() string {
	if title := FrontMatterTitle(d.text); title != "" {
		return title
	}
	return d.Name()
}

// Reset replaces the document with the welcome text, as for "new document".
func (d *Document) Reset() {
	d.text = d.welcome
	d.cursor = utf8.RuneCountInString(d.text)
	d.modified = false
	d.path = ""
}

// Load replaces the document with content read from path.
func (d *Document) Load(path, text string) {
	d.text = text
	d.path = path
	d.modified = false
	if d.loadCursor == LoadAtEnd {
		d.cursor = utf8.RuneCountInString(text)
	} else {
		d.cursor = 0
	}
}

// MarkSaved records a successful save to path and clears the modified flag.
func (d *Document) MarkSaved(path string) {
	if path != "" {
		d.path = path
	}
	d.modified = false
}

// Replace swaps in new text and cursor. The cursor is clamped.
func (d *Document) Replace(text string, cursor int) {
	d.text = text
	d.cursor = clamp(cursor, utf8.RuneCountInString(text))
	d.modified = true
}

// SetText applies a direct edit reported by the UI. The cursor follows the
// document's CursorPolicy.
func (d *Document) SetText(text string) {
	n := utf8.RuneCountInString(text)
	d.text = text
	if d.policy == CursorEnd {
		d.cursor = n
	} else {
		d.cursor = clamp(d.cursor, n)
	}
	d.modified = true
}

// SetCursor moves the caret, clamping to the text bounds.
func (d *Document) SetCursor(offset int) {
	d.cursor = clamp(offset, d.RuneLen())
}

func clamp(offset, n int) int {
	return max(0, min(offset, n))
}

type frontMatter struct {
	Title string `yaml:"title" toml:"title" json:"title"`
}

// FrontMatterTitle extracts the title field from a YAML, TOML or JSON front
// matter block. It returns "" when there is no block or no title.
func FrontMatterTitle(text string) string {
	if !HasFrontMatter(text) {
		return ""
	}
	var meta frontMatter
	if _, err := frontmatter.Parse(strings.NewReader(text), &meta); err != nil {
		return ""
	}
	return strings.TrimSpace(meta.Title)
}

// StripFrontMatter returns text without its front matter block. A block
// that holds no metadata is kept, since "---\n---" is also two thematic
// breaks.
func StripFrontMatter(text string) string {
	if !HasFrontMatter(text) {
		return text
	}
	var meta map[string]any
	body, err := frontmatter.Parse(strings.NewReader(text), &meta)
	if err != nil || len(meta) == 0 {
		return text
	}
	return string(body)
}

// HasFrontMatter reports whether text opens with a front matter delimiter.
func HasFrontMatter(text string) bool {
	return strings.HasPrefix(text, "---\n") ||
		strings.HasPrefix(text, "+++\n") ||
		strings.HasPrefix(text, "---\r\n") ||
		strings.HasPrefix(text, "+++\r\n")
}
