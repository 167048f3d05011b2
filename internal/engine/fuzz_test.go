package engine

import (
	"testing"
	"unicode/utf8"

	"github.com/dshills/mdscribe/internal/format"
)

// FuzzApply checks cursor bounds and length growth for every command.
func FuzzApply(f *testing.F) {
	f.Add("", 0, 0)
	f.Add("hello", 5, 4)
	f.Add("one\ntwo", 6, 13)
	f.Add("日本語", 2, 17)
	f.Add("emoji 🎉 test", -3, 99)

	f.Fuzz(func(t *testing.T, text string, cursor int, cmdIndex int) {
		if !utf8.ValidString(text) {
			return
		}
		all := format.All()
		idx := cmdIndex % len(all)
		if idx < 0 {
			idx += len(all)
		}
		cmd := all[idx]

		d := newDoc(text, cursor)
		before := d.RuneLen()
		Apply(d, cmd)

		if d.Cursor() < 0 || d.Cursor() > d.RuneLen() {
			t.Fatalf("cursor %d out of [0,%d]", d.Cursor(), d.RuneLen())
		}

		grow := utf8.RuneCountInString(cmd.Prefix())
		if !cmd.IsLineStart() {
			grow += utf8.RuneCountInString(cmd.Suffix())
		}
		if d.RuneLen() != before+grow {
			t.Errorf("expected length %d, got %d", before+grow, d.RuneLen())
		}
	})
}
