// Package script runs Lua command batches against an editing session.
//
// Scripts execute in a sandboxed gopher-lua state with only the base, table,
// string and math libraries. The editor is exposed as global functions:
//
//	apply(name [, n])   apply a formatting command n times; returns the cursor
//	say(utterance)      interpret an utterance; returns "command" or "append"
//	insert_text(s)      append dictated text; returns the cursor
//	text()              current document text
//	cursor()            current cursor offset
//	set_cursor(n)       move the cursor (clamped)
//	commands()          list of command names
//	last_command()      raw text of the last utterance
//
// print writes to the runner's output instead of stdout. Every call goes
// through the Editor, so scripts observe the same serialized mutation order
// as voice input.
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/mdscribe/internal/document"
	"github.com/dshills/mdscribe/internal/engine"
	"github.com/dshills/mdscribe/internal/format"
	"github.com/dshills/mdscribe/internal/voice"
)

// DefaultTimeout bounds a single script run.
const DefaultTimeout = 5 * time.Second

// Errors returned by the runner.
var (
	// ErrRunnerClosed is returned when running on a closed Runner.
	ErrRunnerClosed = errors.New("script runner is closed")
)

// Editor is the editing surface a script drives.
type Editor interface {
	ApplyName(ctx context.Context, name string, n int) ([]engine.Result, error)
	AppendText(ctx context.Context, text string) (engine.Result, error)
	Say(ctx context.Context, utterance string) (voice.Action, error)
	SetCursor(ctx context.Context, offset int) error
	Snapshot(ctx context.Context) (document.Snapshot, error)
	LastCommand() string
}

// Error describes a failed script run.
type Error struct {
	Script string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("script %s: %v", e.Script, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Runner executes scripts. A Runner is not safe for concurrent use.
type Runner struct {
	L       *lua.LState
	editor  Editor
	out     io.Writer
	timeout time.Duration

	// ctx is the context of the run in progress.
	ctx    context.Context
	closed bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets where print writes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// WithTimeout bounds each run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// NewRunner creates a Runner bound to editor.
func NewRunner(editor Editor, opts ...Option) *Runner {
	r := &Runner{
		editor:  editor,
		out:     os.Stdout,
		timeout: DefaultTimeout,
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(r.L)
	r.install()
	return r
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// RunString executes code. name labels the script in errors.
func (r *Runner) RunString(ctx context.Context, name, code string) error {
	return r.run(ctx, name, func() error {
		return r.L.DoString(code)
	})
}

// RunFile executes the script at path.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	return r.run(ctx, path, func() error {
		return r.L.DoFile(path)
	})
}

// Close releases the Lua state.
func (r *Runner) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.L.Close()
}

func (r *Runner) run(ctx context.Context, name string, fn func() error) (err error) {
	if r.closed {
		return ErrRunnerClosed
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	r.ctx = ctx
	r.L.SetContext(ctx)
	defer func() {
		r.L.RemoveContext()
		r.ctx = context.Background()
	}()

	defer func() {
		if rec := recover(); rec != nil {
			err = &Error{Script: name, Err: fmt.Errorf("lua panic: %v", rec)}
		}
	}()

	if err := fn(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &Error{Script: name, Err: ctxErr}
		}
		return &Error{Script: name, Err: err}
	}
	return nil
}

// install registers the editor functions.
func (r *Runner) install() {
	funcs := map[string]lua.LGFunction{
		"apply":        r.luaApply,
		"say":          r.luaSay,
		"insert_text":  r.luaInsertText,
		"text":         r.luaText,
		"cursor":       r.luaCursor,
		"set_cursor":   r.luaSetCursor,
		"commands":     r.luaCommands,
		"last_command": r.luaLastCommand,
		"print":        r.luaPrint,
	}
	for name, fn := range funcs {
		r.L.SetGlobal(name, r.L.NewFunction(fn))
	}
}

func (r *Runner) luaApply(L *lua.LState) int {
	name := L.CheckString(1)
	n := L.OptInt(2, 1)

	results, err := r.editor.ApplyName(r.ctx, name, n)
	if err != nil {
		L.RaiseError("apply %s: %v", name, err)
		return 0
	}
	L.Push(lua.LNumber(results[len(results)-1].Cursor))
	return 1
}

func (r *Runner) luaSay(L *lua.LState) int {
	utterance := L.CheckString(1)

	action, err := r.editor.Say(r.ctx, utterance)
	if err != nil {
		L.RaiseError("say: %v", err)
		return 0
	}
	L.Push(lua.LString(action.Kind.String()))
	return 1
}

func (r *Runner) luaInsertText(L *lua.LState) int {
	res, err := r.editor.AppendText(r.ctx, L.CheckString(1))
	if err != nil {
		L.RaiseError("insert_text: %v", err)
		return 0
	}
	L.Push(lua.LNumber(res.Cursor))
	return 1
}

func (r *Runner) luaText(L *lua.LState) int {
	snap, err := r.editor.Snapshot(r.ctx)
	if err != nil {
		L.RaiseError("text: %v", err)
		return 0
	}
	L.Push(lua.LString(snap.Text))
	return 1
}

func (r *Runner) luaCursor(L *lua.LState) int {
	snap, err := r.editor.Snapshot(r.ctx)
	if err != nil {
		L.RaiseError("cursor: %v", err)
		return 0
	}
	L.Push(lua.LNumber(snap.Cursor))
	return 1
}

func (r *Runner) luaSetCursor(L *lua.LState) int {
	if err := r.editor.SetCursor(r.ctx, L.CheckInt(1)); err != nil {
		L.RaiseError("set_cursor: %v", err)
	}
	return 0
}

func (r *Runner) luaCommands(L *lua.LState) int {
	tbl := L.NewTable()
	for _, cmd := range format.All() {
		tbl.Append(lua.LString(cmd.Name()))
	}
	L.Push(tbl)
	return 1
}

func (r *Runner) luaLastCommand(L *lua.LState) int {
	L.Push(lua.LString(r.editor.LastCommand()))
	return 1
}

func (r *Runner) luaPrint(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, 0, top)
	for i := 1; i <= top; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	fmt.Fprintln(r.out, strings.Join(parts, "\t"))
	return 0
}
