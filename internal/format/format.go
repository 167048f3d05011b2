// Package format defines the closed catalog of markdown formatting commands.
//
// Every command carries the markup inserted before the target location
// (prefix), the markup inserted after it (suffix), and whether it must be
// anchored to the start of the current line. The catalog is static: commands
// cannot be registered at runtime.
package format

import "strings"

// Command identifies one formatting operation.
type Command int

// The catalog, in display order.
const (
	Bold Command = iota
	Italic
	InlineCode
	Strikethrough
	Header1
	Header2
	Header3
	Header4
	Header5
	Header6
	BulletList
	NumberedList
	CheckboxList
	Blockquote
	CodeBlock
	Link
	Image
	Table
	HorizontalRule
	LineBreak

	commandCount
)

// Spec is the static description of a command.
type Spec struct {
	Name        string
	DisplayName string
	Prefix      string
	Suffix      string
	LineStart   bool
}

const (
	tablePrefix = "| Column 1 | Column 2 |\n|----------|----------|\n| "
	tableSuffix = " |\n| Cell 1   | Cell 2   |"
)

var catalog = [commandCount]Spec{
	Bold:           {Name: "bold", DisplayName: "Bold", Prefix: "**", Suffix: "**"},
	Italic:         {Name: "italic", DisplayName: "Italic", Prefix: "*", Suffix: "*"},
	InlineCode:     {Name: "inlineCode", DisplayName: "Inline Code", Prefix: "`", Suffix: "`"},
	Strikethrough:  {Name: "strikethrough", DisplayName: "Strikethrough", Prefix: "~~", Suffix: "~~"},
	Header1:        {Name: "header1", DisplayName: "Header 1", Prefix: "# ", LineStart: true},
	Header2:        {Name: "header2", DisplayName: "Header 2", Prefix: "## ", LineStart: true},
	Header3:        {Name: "header3", DisplayName: "Header 3", Prefix: "### ", LineStart: true},
	Header4:        {Name: "header4", DisplayName: "Header 4", Prefix: "#### ", LineStart: true},
	Header5:        {Name: "header5", DisplayName: "Header 5", Prefix: "##### ", LineStart: true},
	Header6:        {Name: "header6", DisplayName: "Header 6", Prefix: "###### ", LineStart: true},
	BulletList:     {Name: "bulletList", DisplayName: "Bullet List", Prefix: "- ", LineStart: true},
	NumberedList:   {Name: "numberedList", DisplayName: "Numbered List", Prefix: "1. ", LineStart: true},
	CheckboxList:   {Name: "checkboxList", DisplayName: "Checkbox List", Prefix: "- [ ] ", LineStart: true},
	Blockquote:     {Name: "blockquote", DisplayName: "Blockquote", Prefix: "> ", LineStart: true},
	CodeBlock:      {Name: "codeBlock", DisplayName: "Code Block", Prefix: "```\n", Suffix: "\n```"},
	Link:           {Name: "link", DisplayName: "Link", Prefix: "[", Suffix: "](url)"},
	Image:          {Name: "image", DisplayName: "Image", Prefix: "![", Suffix: "](image.jpg)"},
	Table:          {Name: "table", DisplayName: "Table", Prefix: tablePrefix, Suffix: tableSuffix},
	HorizontalRule: {Name: "horizontalRule", DisplayName: "Horizontal Rule", Prefix: "---\n", LineStart: true},
	LineBreak:      {Name: "lineBreak", DisplayName: "Line Break", Prefix: "\n"},
}

// byName indexes the catalog by normalized name.
var byName = func() map[string]Command {
	m := make(map[string]Command, commandCount)
	for c := Command(0); c < commandCount; c++ {
		m[normalize(catalog[c].Name)] = c
	}
	return m
}()

// Lookup returns the static description of cmd.
func Lookup(cmd Command) (Spec, bool) {
	if !cmd.Valid() {
		return Spec{}, false
	}
	return catalog[cmd], true
}

// All returns every command in catalog order.
func All() []Command {
	cmds := make([]Command, commandCount)
	for i := range cmds {
		cmds[i] = Command(i)
	}
	return cmds
}

// Parse resolves a command by name. Matching ignores case, dashes,
// underscores and spaces, so "inline-code", "Inline Code" and "inlineCode"
// all resolve to InlineCode.
func Parse(name string) (Command, bool) {
	cmd, ok := byName[normalize(name)]
	return cmd, ok
}

// Header returns the header command for level 1 through 6.
func Header(level int) (Command, bool) {
	if level < 1 || level > 6 {
		return 0, false
	}
	return Header1 + Command(level-1), true
}

func normalize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch r {
		case '-', '_', ' ':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Valid reports whether c is a member of the catalog.
func (c Command) Valid() bool {
	return c >= 0 && c < commandCount
}

// Name returns the stable identifier, e.g. "bold" or "header3".
func (c Command) Name() string {
	if !c.Valid() {
		return ""
	}
	return catalog[c].Name
}

// DisplayName returns the human-readable label used for menus and toolbars.
func (c Command) DisplayName() string {
	if !c.Valid() {
		return ""
	}
	return catalog[c].DisplayName
}

// Prefix returns the markup inserted before the target location.
func (c Command) Prefix() string {
	if !c.Valid() {
		return ""
	}
	return catalog[c].Prefix
}

// Suffix returns the markup inserted after the target location.
func (c Command) Suffix() string {
	if !c.Valid() {
		return ""
	}
	return catalog[c].Suffix
}

// IsLineStart reports whether the command is anchored to column 0.
func (c Command) IsLineStart() bool {
	if !c.Valid() {
		return false
	}
	return catalog[c].LineStart
}

// String implements fmt.Stringer.
func (c Command) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return catalog[c].Name
}
