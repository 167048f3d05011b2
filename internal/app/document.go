package app

import (
	"context"
	"sync"
)

// DocumentManager tracks the sessions of all open documents. Each document
// is owned by exactly one Session.
type DocumentManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session // id -> session
	paths    map[string]string   // abs path -> id
	order    []string            // open order for navigation
	active   *Session
}

// NewDocumentManager creates a new document manager.
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		sessions: make(map[string]*Session),
		paths:    make(map[string]string),
	}
}

// Add registers s under path (empty for unsaved documents) and makes it
// active.
func (dm *DocumentManager) Add(s *Session, path string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if _, exists := dm.sessions[s.ID()]; !exists {
		dm.order = append(dm.order, s.ID())
	}
	dm.sessions[s.ID()] = s
	if path != "" {
		dm.paths[path] = s.ID()
	}
	dm.active = s
}

// SetPath re-indexes a session after it was saved under a new path.
func (dm *DocumentManager) SetPath(id, path string) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if _, exists := dm.sessions[id]; !exists {
		return ErrDocumentNotFound
	}
	for p, owner := range dm.paths {
		if owner == id {
			delete(dm.paths, p)
		}
	}
	if path != "" {
		dm.paths[path] = id
	}
	return nil
}

// Close stops and removes a session.
func (dm *DocumentManager) Close(id string) error {
	dm.mu.Lock()
	s, exists := dm.sessions[id]
	if !exists {
		dm.mu.Unlock()
		return ErrDocumentNotFound
	}

	delete(dm.sessions, id)
	for p, owner := range dm.paths {
		if owner == id {
			delete(dm.paths, p)
		}
	}
	for i, other := range dm.order {
		if other == id {
			dm.order = append(dm.order[:i], dm.order[i+1:]...)
			break
		}
	}
	if dm.active == s {
		dm.active = nil
		if len(dm.order) > 0 {
			dm.active = dm.sessions[dm.order[len(dm.order)-1]]
		}
	}
	dm.mu.Unlock()

	s.Close()
	return nil
}

// CloseAll stops and removes every session.
func (dm *DocumentManager) CloseAll() {
	for _, s := range dm.All() {
		_ = dm.Close(s.ID())
	}
}

// Active returns the currently active session, or nil.
func (dm *DocumentManager) Active() *Session {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.active
}

// SetActive makes the session with id active.
func (dm *DocumentManager) SetActive(id string) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	s, exists := dm.sessions[id]
	if !exists {
		return ErrDocumentNotFound
	}
	dm.active = s
	return nil
}

// Get returns a session by document ID.
func (dm *DocumentManager) Get(id string) (*Session, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	s, exists := dm.sessions[id]
	return s, exists
}

// ByPath returns the session of the document saved at path.
func (dm *DocumentManager) ByPath(path string) (*Session, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	id, ok := dm.paths[path]
	if !ok {
		return nil, false
	}
	return dm.sessions[id], true
}

// All returns all sessions in open order.
func (dm *DocumentManager) All() []*Session {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	out := make([]*Session, 0, len(dm.order))
	for _, id := range dm.order {
		out = append(out, dm.sessions[id])
	}
	return out
}

// Count returns the number of open documents.
func (dm *DocumentManager) Count() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return len(dm.sessions)
}

// Dirty returns the sessions whose documents have unsaved changes.
func (dm *DocumentManager) Dirty(ctx context.Context) ([]*Session, error) {
	var dirty []*Session
	for _, s := range dm.All() {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		if snap.Modified {
			dirty = append(dirty, s)
		}
	}
	return dirty, nil
}

// Next activates and returns the session after the active one, wrapping.
func (dm *DocumentManager) Next() *Session {
	return dm.step(1)
}

// Previous activates and returns the session before the active one, wrapping.
func (dm *DocumentManager) Previous() *Session {
	return dm.step(-1)
}

func (dm *DocumentManager) step(delta int) *Session {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if len(dm.order) == 0 || dm.active == nil {
		return nil
	}

	current := -1
	for i, id := range dm.order {
		if id == dm.active.ID() {
			current = i
			break
		}
	}
	if current == -1 {
		return dm.active
	}

	n := len(dm.order)
	dm.active = dm.sessions[dm.order[(current+delta+n)%n]]
	return dm.active
}
