// Package voice turns transcribed speech into editing actions.
//
// The Interpreter matches an utterance against a fixed, ordered table of
// trigger phrases. Matching is case-insensitive substring containment, so it
// tolerates disfluent speech-to-text output at the cost of false positives:
// "please don't start list here" runs the bullet list command. An utterance
// that matches no phrase is dictated text to append.
//
// Transcription arrives as a stream of Transcript events (see Listener).
// Partial events are preview-only; only final events reach the document.
package voice

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/dshills/mdscribe/internal/format"
)

// Kind classifies an Action.
type Kind int

const (
	// AppendText appends the utterance to the document as dictated text.
	AppendText Kind = iota
	// RunCommand applies one or more formatting commands.
	RunCommand
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case AppendText:
		return "append"
	case RunCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Action is the outcome of interpreting one utterance.
type Action struct {
	Kind Kind

	// Commands holds the commands to apply in order when Kind is RunCommand.
	Commands []format.Command

	// Text holds the raw utterance when Kind is AppendText.
	Text string

	// Trigger is the phrase that matched, or "" for AppendText.
	Trigger string
}

// IsCommand reports whether the action runs formatting commands.
func (a Action) IsCommand() bool {
	return a.Kind == RunCommand
}

// Trigger maps a spoken phrase to a formatting command.
type Trigger struct {
	Phrase  string
	Command format.Command
	Repeat  int
}

// triggers is evaluated in order; the first contained phrase wins.
var triggers = []Trigger{
	{Phrase: "new paragraph", Command: format.LineBreak, Repeat: 2},
	{Phrase: "make header", Command: format.Header1, Repeat: 1},
	{Phrase: "bold that", Command: format.Bold, Repeat: 1},
	{Phrase: "italic that", Command: format.Italic, Repeat: 1},
	{Phrase: "add link", Command: format.Link, Repeat: 1},
	{Phrase: "insert image", Command: format.Image, Repeat: 1},
	{Phrase: "start list", Command: format.BulletList, Repeat: 1},
	{Phrase: "numbered list", Command: format.NumberedList, Repeat: 1},
	{Phrase: "code block", Command: format.CodeBlock, Repeat: 1},
	{Phrase: "new line", Command: format.LineBreak, Repeat: 1},
	{Phrase: "blockquote", Command: format.Blockquote, Repeat: 1},
	{Phrase: "table", Command: format.Table, Repeat: 1},
}

// Triggers returns a copy of the trigger table in evaluation order.
func Triggers() []Trigger {
	out := make([]Trigger, len(triggers))
	copy(out, triggers)
	return out
}

// Classify maps an utterance to an Action without recording it.
func Classify(utterance string) Action {
	// Casers are stateful, so each call gets its own.
	folded := cases.Fold().String(utterance)
	for _, tr := range triggers {
		if !strings.Contains(folded, tr.Phrase) {
			continue
		}
		cmds := make([]format.Command, tr.Repeat)
		for i := range cmds {
			cmds[i] = tr.Command
		}
		return Action{Kind: RunCommand, Commands: cmds, Trigger: tr.Phrase}
	}
	return Action{Kind: AppendText, Text: utterance}
}

// Interpreter classifies utterances and remembers the last one it saw.
// It is safe for concurrent use.
type Interpreter struct {
	mu   sync.RWMutex
	last string
}

// NewInterpreter creates an Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// Interpret classifies utterance and records it as the last voice command,
// whether or not it matched a trigger.
func (i *Interpreter) Interpret(utterance string) Action {
	i.mu.Lock()
	i.last = utterance
	i.mu.Unlock()

	return Classify(utterance)
}

// LastCommand returns the raw text of the most recent utterance.
func (i *Interpreter) LastCommand() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.last
}
