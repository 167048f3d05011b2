package engine

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dshills/mdscribe/internal/document"
	"github.com/dshills/mdscribe/internal/format"
	"github.com/dshills/mdscribe/internal/voice"
)

func newDoc(text string, cursor int) *document.Document {
	d := document.New(document.WithWelcome(""))
	d.Replace(text, cursor)
	return d
}

// ============================================================================
// Inline Commands
// ============================================================================

func TestApplyBoldEmptyDocument(t *testing.T) {
	d := document.New(document.WithWelcome(""))

	Apply(d, format.Bold)

	if d.Text() != "****" {
		t.Errorf("expected %q, got %q", "****", d.Text())
	}
	if d.Cursor() != 2 {
		t.Errorf("expected cursor 2, got %d", d.Cursor())
	}
	if !d.IsModified() {
		t.Error("expected document to be modified")
	}
}

func TestApplyInlineMidText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		cursor  int
		cmd     format.Command
		want    string
		cursor2 int
	}{
		{"italic", "ab", 1, format.Italic, "a**b", 2},
		{"code", "ab", 1, format.InlineCode, "a``b", 2},
		{"strike", "ab", 2, format.Strikethrough, "ab~~~~", 4},
		{"link", "see ", 4, format.Link, "see [](url)", 5},
		{"image", "", 0, format.Image, "![](image.jpg)", 2},
		{"line break", "ab", 1, format.LineBreak, "a\nb", 2},
		{"code block", "x", 1, format.CodeBlock, "x```\n\n```", 5},
		{"multibyte", "héllo", 2, format.Bold, "hé****llo", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDoc(tt.text, tt.cursor)
			Apply(d, tt.cmd)
			if d.Text() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, d.Text())
			}
			if d.Cursor() != tt.cursor2 {
				t.Errorf("expected cursor %d, got %d", tt.cursor2, d.Cursor())
			}
		})
	}
}

func TestApplyTable(t *testing.T) {
	d := newDoc("", 0)
	Apply(d, format.Table)

	want := "| Column 1 | Column 2 |\n|----------|----------|\n|  |\n| Cell 1   | Cell 2   |"
	if d.Text() != want {
		t.Errorf("expected %q, got %q", want, d.Text())
	}
	if d.Cursor() != utf8.RuneCountInString(format.Table.Prefix()) {
		t.Errorf("expected cursor after table prefix, got %d", d.Cursor())
	}
}

func TestApplyInlineGrowth(t *testing.T) {
	texts := []string{"", "a", "hello world", "line one\nline two", "日本語テキスト"}

	for _, cmd := range format.All() {
		if cmd.IsLineStart() {
			continue
		}
		for _, text := range texts {
			n := utf8.RuneCountInString(text)
			for p := 0; p <= n; p++ {
				d := newDoc(text, p)
				Apply(d, cmd)

				got := []rune(d.Text())
				prefix := []rune(cmd.Prefix())
				suffix := []rune(cmd.Suffix())

				if len(got) != n+len(prefix)+len(suffix) {
					t.Fatalf("%s on %q@%d: expected length %d, got %d", cmd, text, p, n+len(prefix)+len(suffix), len(got))
				}
				if string(got[p:p+len(prefix)]) != cmd.Prefix() {
					t.Errorf("%s on %q@%d: prefix not at position", cmd, text, p)
				}
				if string(got[p+len(prefix):p+len(prefix)+len(suffix)]) != cmd.Suffix() {
					t.Errorf("%s on %q@%d: suffix not after prefix", cmd, text, p)
				}
				if d.Cursor() != p+len(prefix) {
					t.Errorf("%s on %q@%d: expected cursor %d, got %d", cmd, text, p, p+len(prefix), d.Cursor())
				}
			}
		}
	}
}

// ============================================================================
// Line-Start Commands
// ============================================================================

func TestApplyHeaderAtEndOfLine(t *testing.T) {
	d := newDoc("hello", 5)

	Apply(d, format.Header1)

	if d.Text() != "# hello" {
		t.Errorf("expected %q, got %q", "# hello", d.Text())
	}
	if d.Cursor() != 2 {
		t.Errorf("expected cursor 2, got %d", d.Cursor())
	}
}

func TestApplyLineStart(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		cursor  int
		cmd     format.Command
		want    string
		cursor2 int
	}{
		{"empty", "", 0, format.BulletList, "- ", 2},
		{"second line", "one\ntwo", 6, format.Blockquote, "one\n> two", 6},
		{"cursor at line start", "one\ntwo", 4, format.NumberedList, "one\n1. two", 7},
		{"cursor on newline", "one\ntwo", 3, format.Header2, "## one\ntwo", 3},
		{"trailing newline", "one\n", 4, format.CheckboxList, "one\n- [ ] ", 10},
		{"horizontal rule", "a\nb", 3, format.HorizontalRule, "a\n---\nb", 6},
		{"header6", "x", 0, format.Header6, "###### x", 7},
		{"multibyte line", "über\nçà", 7, format.Header3, "über\n### çà", 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDoc(tt.text, tt.cursor)
			Apply(d, tt.cmd)
			if d.Text() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, d.Text())
			}
			if d.Cursor() != tt.cursor2 {
				t.Errorf("expected cursor %d, got %d", tt.cursor2, d.Cursor())
			}
		})
	}
}

func TestApplyLineStartPrefixAtBoundary(t *testing.T) {
	text := "alpha\nbeta gamma\ndelta"
	runes := []rune(text)

	for _, cmd := range format.All() {
		if !cmd.IsLineStart() {
			continue
		}
		for p := 0; p <= len(runes); p++ {
			d := newDoc(text, p)
			res := Apply(d, cmd)

			start := LineStart(runes, p)
			if res.Position != start {
				t.Errorf("%s@%d: expected line start %d, got %d", cmd, p, start, res.Position)
			}
			got := []rune(d.Text())
			if string(got[start:start+len([]rune(cmd.Prefix()))]) != cmd.Prefix() {
				t.Errorf("%s@%d: line does not begin with prefix: %q", cmd, p, d.Text())
			}
			if start > 0 && got[start-1] != '\n' {
				t.Errorf("%s@%d: prefix not at a line boundary", cmd, p)
			}
		}
	}
}

func TestLineStart(t *testing.T) {
	runes := []rune("ab\ncd\n")
	tests := []struct {
		pos  int
		want int
	}{
		{-1, 0},
		{0, 0},
		{2, 0},
		{3, 3},
		{5, 3},
		{6, 6},
		{100, 6},
	}
	for _, tt := range tests {
		if got := LineStart(runes, tt.pos); got != tt.want {
			t.Errorf("LineStart(%d): expected %d, got %d", tt.pos, tt.want, got)
		}
	}
}

// ============================================================================
// Cursor Bounds and Ordering
// ============================================================================

func TestApplyClampsCursor(t *testing.T) {
	d := newDoc("abc", 3)
	d.SetText("a")
	d.SetCursor(50)

	Apply(d, format.Bold)
	if d.Text() != "a****" {
		t.Errorf("expected %q, got %q", "a****", d.Text())
	}
}

func TestCursorAlwaysInBounds(t *testing.T) {
	texts := []string{"", "x", "one\ntwo\n", "\n\n", "emoji 🎉 here"}
	for _, text := range texts {
		for _, cmd := range format.All() {
			for p := -2; p <= utf8.RuneCountInString(text)+2; p++ {
				d := newDoc(text, p)
				Apply(d, cmd)
				if d.Cursor() < 0 || d.Cursor() > d.RuneLen() {
					t.Fatalf("%s on %q@%d: cursor %d out of [0,%d]", cmd, text, p, d.Cursor(), d.RuneLen())
				}
			}
		}
	}
}

func TestRepeatedApplicationGrows(t *testing.T) {
	d := newDoc("word", 4)

	Apply(d, format.Bold)
	first := d.Text()
	Apply(d, format.Bold)
	second := d.Text()

	if first == second {
		t.Fatal("expected repeated bold to change the text")
	}
	if len(second) != len(first)+4 {
		t.Errorf("expected growth by 4, got %d -> %d", len(first), len(second))
	}
	if second != "word********" {
		t.Errorf("expected nested markers, got %q", second)
	}
}

func TestCommandOrderMatters(t *testing.T) {
	a := newDoc("x", 1)
	Apply(a, format.Bold)
	Apply(a, format.InlineCode)

	b := newDoc("x", 1)
	Apply(b, format.InlineCode)
	Apply(b, format.Bold)

	if a.Text() != "x**``**" {
		t.Errorf("expected %q, got %q", "x**``**", a.Text())
	}
	if b.Text() != "x`****`" {
		t.Errorf("expected %q, got %q", "x`****`", b.Text())
	}
}

func TestBoldItalicOrderMovesCursorDifferently(t *testing.T) {
	// Both orders produce six asterisks; the intermediate cursors differ.
	a := newDoc("x", 1)
	first := Apply(a, format.Bold)

	b := newDoc("x", 1)
	second := Apply(b, format.Italic)

	if first.Cursor == second.Cursor {
		t.Errorf("expected different intermediate cursors, both %d", first.Cursor)
	}

	Apply(a, format.Italic)
	Apply(b, format.Bold)
	if len(a.Text()) != len(b.Text()) {
		t.Errorf("expected equal lengths, got %q and %q", a.Text(), b.Text())
	}
}

// ============================================================================
// Engine Facade
// ============================================================================

func TestEngineApplyName(t *testing.T) {
	e := New()
	d := newDoc("", 0)

	results, err := e.ApplyName(d, "line-break", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if d.Text() != "\n\n" || d.Cursor() != 2 {
		t.Errorf("expected two newlines cursor 2, got %q cursor %d", d.Text(), d.Cursor())
	}
}

func TestEngineApplyNameUnknown(t *testing.T) {
	e := New()
	d := newDoc("keep", 4)

	_, err := e.ApplyName(d, "sparkles", 1)
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
	if d.Text() != "keep" {
		t.Errorf("expected document untouched, got %q", d.Text())
	}
}

func TestEngineApplyRepeatedMinimumOne(t *testing.T) {
	e := New()
	d := newDoc("", 0)
	if got := len(e.ApplyRepeated(d, format.LineBreak, 0)); got != 1 {
		t.Errorf("expected 1 application, got %d", got)
	}
}

func TestEngineApplyRepeatedCapped(t *testing.T) {
	e := New()
	d := newDoc("", 0)
	if got := len(e.ApplyRepeated(d, format.LineBreak, 2000000000)); got != MaxRepeat {
		t.Errorf("expected %d applications, got %d", MaxRepeat, got)
	}
}

func TestEngineApplyNameRepeatLimit(t *testing.T) {
	e := New()
	d := newDoc("keep", 4)

	_, err := e.ApplyName(d, "bold", MaxRepeat+1)
	if !errors.Is(err, ErrRepeatLimit) {
		t.Errorf("expected ErrRepeatLimit, got %v", err)
	}
	if d.Text() != "keep" {
		t.Errorf("expected document untouched, got %q", d.Text())
	}

	if _, err := e.ApplyName(d, "bold", MaxRepeat); err != nil {
		t.Errorf("expected MaxRepeat to be allowed, got %v", err)
	}
}

func TestEngineRun(t *testing.T) {
	e := New()

	tests := []struct {
		name      string
		text      string
		utterance string
		want      string
		results   int
	}{
		{"paragraph", "one", "new paragraph", "one\n\n", 2},
		{"header", "hello", "make header", "# hello", 1},
		{"literal", "one", "two three", "one two three", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDoc(tt.text, len([]rune(tt.text)))
			results := e.Run(d, voice.Classify(tt.utterance))
			if len(results) != tt.results {
				t.Errorf("expected %d results, got %d", tt.results, len(results))
			}
			if d.Text() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, d.Text())
			}
		})
	}
}

// ============================================================================
// Literal Append
// ============================================================================

func TestAppendLiteral(t *testing.T) {
	tests := []struct {
		name string
		text string
		add  string
		want string
	}{
		{"empty document", "", "hello", "hello"},
		{"existing text", "hello", "world", "hello world"},
		{"multibyte", "café", "olé", "café olé"},
		{"blank utterance", "hello", "  ", "hello  "},
		{"after newline", "hello\n", "world", "hello\nworld"},
		{"after space", "hello ", "world", "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDoc(tt.text, 0)
			res := AppendLiteral(d, tt.add)
			if d.Text() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, d.Text())
			}
			if d.Cursor() != d.RuneLen() {
				t.Errorf("expected cursor at end, got %d", d.Cursor())
			}
			if !res.Literal {
				t.Error("expected literal result")
			}
		})
	}
}

func TestEngineSeparator(t *testing.T) {
	e := New(WithSeparator("\n"))
	d := newDoc("one", 0)

	e.AppendLiteral(d, "two")
	if d.Text() != "one\ntwo" {
		t.Errorf("expected %q, got %q", "one\ntwo", d.Text())
	}
}

func TestAppendAfterCommand(t *testing.T) {
	d := newDoc("", 0)
	Apply(d, format.Header1)
	AppendLiteral(d, "Title")

	if !strings.HasPrefix(d.Text(), "# ") {
		t.Errorf("expected header prefix, got %q", d.Text())
	}
	if d.Text() != "# Title" {
		t.Errorf("expected %q, got %q", "# Title", d.Text())
	}
}
