// Package engine implements the markdown formatting command engine.
//
// Given a document and a formatting command, the engine computes where the
// command's markup goes, splices it into the text and moves the cursor. All
// offsets are rune offsets.
//
// # Inline Commands
//
// Inline commands (bold, italic, code, links, tables...) insert prefix and
// suffix at the cursor and leave the cursor between them:
//
//	doc := document.New(document.WithWelcome(""))
//	engine.Apply(doc, format.Bold)
//	// doc.Text() == "****", doc.Cursor() == 2
//
// # Line-Start Commands
//
// Line-start commands (headers, lists, blockquotes, horizontal rules) are
// anchored to the beginning of the line holding the cursor:
//
//	doc.Replace("hello", 5)
//	engine.Apply(doc, format.Header1)
//	// doc.Text() == "# hello", doc.Cursor() == 2
//
// # Dictated Text
//
// AppendLiteral appends dictated text to the end of the document, separated
// from existing content by a single space.
//
// # Voice Actions
//
// Run applies a voice.Action: the commands of a matched trigger in order
// ("new paragraph" is two line breaks), or the utterance as dictation.
//
// # Errors
//
// Apply and AppendLiteral are total: offsets are clamped, never rejected.
// Only name resolution can fail:
//
//   - ErrUnknownCommand: ApplyName was given a name outside the catalog
//   - ErrRepeatLimit: ApplyName was asked for more than MaxRepeat applications
package engine
