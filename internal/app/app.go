// Package app wires mdscribe's components into an application: configured
// documents, each owned by a serialized editing Session, file I/O, HTML
// preview and export, external change detection, voice input and scripts.
//
// Errors returned from App methods are *OperationError values naming the
// failed operation; AlertFor turns them into user-facing alerts.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dshills/mdscribe/internal/config"
	"github.com/dshills/mdscribe/internal/document"
	"github.com/dshills/mdscribe/internal/engine"
	"github.com/dshills/mdscribe/internal/render"
	"github.com/dshills/mdscribe/internal/script"
	"github.com/dshills/mdscribe/internal/vfs"
	"github.com/dshills/mdscribe/internal/voice"
	"github.com/dshills/mdscribe/internal/watcher"
)

// App is the central coordinator for mdscribe components.
type App struct {
	cfg      config.Config
	logger   *Logger
	store    *vfs.Store
	renderer *render.Renderer
	engine   *engine.Engine
	docs     *DocumentManager
	docOpts  []document.Option
	output   io.Writer

	mu      sync.Mutex
	watcher watcher.Watcher
}

// Option configures an App.
type Option func(*App)

// WithFS sets the file system documents are read from and written to.
func WithFS(fsys vfs.FS) Option {
	return func(a *App) {
		a.store = vfs.NewStore(fsys)
	}
}

// WithAppLogger sets the application logger.
func WithAppLogger(l *Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// WithWatcher sets the watcher used for external change detection,
// overriding the watch configuration.
func WithWatcher(w watcher.Watcher) Option {
	return func(a *App) {
		a.watcher = w
	}
}

// WithOutput sets where scripts print. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) {
		a.output = w
	}
}

// New creates an App from cfg.
func New(cfg config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:    cfg,
		engine: engine.New(),
		docs:   NewDocumentManager(),
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		lc := DefaultLoggerConfig()
		lc.Level = ParseLogLevel(cfg.Logging.Level)
		a.logger = NewLogger(lc)
	}
	if a.store == nil {
		a.store = vfs.NewStore(nil)
	}
	a.renderer = render.New(render.Options{
		Extensions: cfg.Render.Extensions,
		HardWraps:  cfg.Render.HardWraps,
		Unsafe:     cfg.Render.Unsafe,
	})

	for _, name := range cfg.Render.Extensions {
		if !render.KnownExtension(name) {
			a.logger.Warn("unknown markdown extension %q ignored", name)
		}
	}

	a.docOpts = []document.Option{
		document.WithCursorPolicy(document.ParseCursorPolicy(cfg.Editor.CursorTracking)),
		document.WithLoadCursor(document.ParseLoadCursor(cfg.Editor.LoadCursor)),
	}
	if path := cfg.Editor.WelcomeFile; path != "" {
		_, text, err := a.store.Load(path)
		if err != nil {
			return nil, NewOperationError("open", path, err).WithContext("welcome file")
		}
		a.docOpts = append(a.docOpts, document.WithWelcome(text))
	}

	if a.watcher == nil && cfg.Watch.Enabled {
		w, err := watcher.NewFSNotifyWatcher()
		if err != nil {
			return nil, NewOperationError("watch", "", err)
		}
		a.watcher = watcher.NewDebounced(w, cfg.Watch.Debounce())
	}

	return a, nil
}

// Config returns the application configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the application logger.
func (a *App) Logger() *Logger {
	return a.logger
}

// Documents returns the document manager.
func (a *App) Documents() *DocumentManager {
	return a.docs
}

// Active returns the active session or ErrNoActiveDocument.
func (a *App) Active() (*Session, error) {
	s := a.docs.Active()
	if s == nil {
		return nil, ErrNoActiveDocument
	}
	return s, nil
}

func (a *App) newSession(doc *document.Document) *Session {
	return NewSession(doc,
		WithEngine(a.engine),
		WithLogger(a.logger.WithComponent("session")),
		WithPreviewPartials(a.cfg.Voice.PreviewPartials),
		WithPartialMarker(a.cfg.Voice.PartialMarker),
	)
}

// NewDocument opens a new untitled document holding the welcome text.
func (a *App) NewDocument() *Session {
	s := a.newSession(document.New(a.docOpts...))
	a.docs.Add(s, "")
	a.logger.Debug("new document %s", s.ID())
	return s
}

// Open loads the document at path, or activates it if already open.
func (a *App) Open(ctx context.Context, path string) (*Session, error) {
	abs, text, err := a.store.Load(path)
	if err != nil {
		return nil, NewOperationError("open", path, err)
	}

	if s, ok := a.docs.ByPath(abs); ok {
		if err := a.docs.SetActive(s.ID()); err != nil {
			return nil, NewOperationError("open", path, err)
		}
		return s, nil
	}

	doc := document.New(a.docOpts...)
	doc.Load(abs, text)
	s := a.newSession(doc)
	a.docs.Add(s, abs)
	a.watch(abs)

	a.logger.Info("opened %s", abs)
	return s, nil
}

// Save writes the active document to its path.
func (a *App) Save(ctx context.Context) error {
	return a.SaveAs(ctx, "")
}

// SaveAs writes the active document to path. An empty path uses the
// document's current path.
func (a *App) SaveAs(ctx context.Context, path string) error {
	s, err := a.Active()
	if err != nil {
		return NewOperationError("save", path, err)
	}

	var saved string
	err = s.Do(ctx, func(doc *document.Document) error {
		target := path
		if target == "" {
			target = doc.Path()
		}
		if target == "" {
			return ErrNoPath
		}

		abs, err := a.store.Save(target, doc.Text())
		if err != nil {
			return err
		}
		doc.MarkSaved(abs)
		saved = abs
		return nil
	})
	if err != nil {
		return NewOperationError("save", path, err)
	}

	if err := a.docs.SetPath(s.ID(), saved); err != nil {
		return NewOperationError("save", saved, err)
	}
	a.watch(saved)
	a.logger.Info("saved %s", saved)
	return nil
}

// Preview renders the active document to a standalone HTML page.
func (a *App) Preview(ctx context.Context) (string, error) {
	s, err := a.Active()
	if err != nil {
		return "", NewOperationError("render", "", err)
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return "", NewOperationError("render", "", err)
	}

	page, err := a.renderer.Page(pageTitle(snap), snap.Text)
	if err != nil {
		return "", NewOperationError("render", snap.Path, err)
	}
	return page, nil
}

// Export writes the rendered active document to path and returns the path
// written. An empty path uses ExportPath.
func (a *App) Export(ctx context.Context, path string) (string, error) {
	s, err := a.Active()
	if err != nil {
		return "", NewOperationError("export", path, err)
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return "", NewOperationError("export", path, err)
	}
	if path == "" {
		path = ExportPath(snap.Path)
	}

	page, err := a.renderer.Page(pageTitle(snap), snap.Text)
	if err != nil {
		return "", NewOperationError("export", path, err)
	}
	abs, err := a.store.Save(path, page)
	if err != nil {
		return "", NewOperationError("export", path, err)
	}

	a.logger.Info("exported %s", abs)
	return abs, nil
}

// ExportPath returns the default export destination for a document saved at
// docPath: the same name with an .html extension, or Untitled.html.
func ExportPath(docPath string) string {
	if docPath == "" {
		return "Untitled.html"
	}
	return strings.TrimSuffix(docPath, filepath.Ext(docPath)) + ".html"
}

func pageTitle(snap document.Snapshot) string {
	if title := document.FrontMatterTitle(snap.Text); title != "" {
		return title
	}
	if snap.Path == "" {
		return "Untitled"
	}
	return filepath.Base(snap.Path)
}

// Listen feeds src into the active document until it ends, fails, or ctx
// is cancelled. Cancellation is not an error.
func (a *App) Listen(ctx context.Context, src voice.Source) error {
	s, err := a.Active()
	if err != nil {
		return NewOperationError("listen", "", err)
	}

	err = s.Listen(ctx, src)
	if err != nil && !errors.Is(err, context.Canceled) {
		return NewOperationError("listen", "", err)
	}
	return nil
}

// RunScript runs a Lua script against the active document.
func (a *App) RunScript(ctx context.Context, path string) error {
	s, err := a.Active()
	if err != nil {
		return NewOperationError("script", path, err)
	}

	r := script.NewRunner(s, script.WithOutput(a.output))
	defer r.Close()

	if err := r.RunFile(ctx, path); err != nil {
		return NewOperationError("script", path, err)
	}
	return nil
}

// Report logs err and returns its alert.
func (a *App) Report(err error) Alert {
	alert := AlertFor(err)
	if !alert.IsZero() {
		a.logger.Error("%v", err)
	}
	return alert
}

// Close stops watching and closes all documents.
func (a *App) Close() error {
	a.mu.Lock()
	w := a.watcher
	a.watcher = nil
	a.mu.Unlock()

	a.docs.CloseAll()
	if w != nil {
		return w.Close()
	}
	return nil
}
