package app

import (
	"context"
	"errors"

	"github.com/dshills/mdscribe/internal/document"
	"github.com/dshills/mdscribe/internal/watcher"
)

// watch starts watching path when a watcher is configured.
func (a *App) watch(path string) {
	a.mu.Lock()
	w := a.watcher
	a.mu.Unlock()

	if w == nil || w.IsWatching(path) {
		return
	}
	if err := w.Watch(path); err != nil && !errors.Is(err, watcher.ErrAlreadyWatching) {
		a.logger.WithComponent("watch").Warn("cannot watch %s: %v", path, err)
	}
}

// Watch reloads documents changed on disk until ctx is cancelled or the
// watcher closes. A document with unsaved edits is never replaced; the
// conflict is logged instead. Watch returns immediately when watching is
// disabled.
func (a *App) Watch(ctx context.Context) error {
	a.mu.Lock()
	w := a.watcher
	a.mu.Unlock()
	if w == nil {
		return nil
	}

	log := a.logger.WithComponent("watch")
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if err := a.handleExternalChange(ctx, ev); err != nil {
				log.Warn("%v", err)
			}

		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			log.Warn("watcher error: %v", err)
		}
	}
}

// handleExternalChange reloads the document affected by ev.
func (a *App) handleExternalChange(ctx context.Context, ev watcher.Event) error {
	s, ok := a.docs.ByPath(ev.Path)
	if !ok {
		return nil
	}
	log := a.logger.WithComponent("watch").WithField("path", ev.Path)

	if ev.Op.Gone() {
		log.Warn("file removed or renamed on disk")
		return nil
	}
	if !ev.Op.Changed() {
		return nil
	}

	_, text, err := a.store.Load(ev.Path)
	if err != nil {
		return NewOperationError("reload", ev.Path, err)
	}

	var conflict, reloaded bool
	err = s.Do(ctx, func(doc *document.Document) error {
		switch {
		case doc.Text() == text:
		case doc.IsModified():
			conflict = true
		default:
			doc.Load(ev.Path, text)
			reloaded = true
		}
		return nil
	})
	if err != nil {
		return NewOperationError("reload", ev.Path, err)
	}

	if conflict {
		return NewOperationError("reload", ev.Path, ErrUnsavedChanges).WithContext("keeping unsaved edits")
	}
	if reloaded {
		log.Info("reloaded")
	}
	return nil
}
