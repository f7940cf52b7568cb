// Package memory provides an in-memory implementation of history.Store
// for testing and lightweight deployments. Sessions are lost when the
// process restarts. Optional LRU eviction limits memory usage.
package memory

import (
	"container/list"
	"context"
	"slices"
	"sync"

	"github.com/rhuss/gemini-go/pkg/debug"
	"github.com/rhuss/gemini-go/pkg/history"
	"github.com/rhuss/gemini-go/pkg/observability"
)

const backendName = "memory"

// sessionKey scopes a session ID to its tenant.
type sessionKey struct {
	tenant string
	id     string
}

// session holds the turns of one conversation.
type session struct {
	turns   []history.Turn
	lruElem *list.Element // position in LRU list
}

// Store is an in-memory history.Store with optional LRU eviction.
type Store struct {
	mu       sync.RWMutex
	sessions map[sessionKey]*session
	lruList  *list.List // front = most recently updated, back = least recently updated
	maxSize  int        // 0 = unlimited
}

// Ensure Store implements history.Store at compile time.
var _ history.Store = (*Store)(nil)

// New creates a new in-memory store. If maxSessions is 0, the store grows
// without limit. If maxSessions > 0, the least recently updated session is
// evicted when the limit is reached.
func New(maxSessions int) *Store {
	return &Store{
		sessions: make(map[sessionKey]*session),
		lruList:  list.New(),
		maxSize:  maxSessions,
	}
}

// Append adds turns to the end of a session, creating it if needed.
func (s *Store) Append(ctx context.Context, sessionID string, turns ...history.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	key := sessionKey{tenant: history.GetTenant(ctx), id: sessionID}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		if s.maxSize > 0 && len(s.sessions) >= s.maxSize {
			s.evictOldest()
		}
		sess = &session{lruElem: s.lruList.PushFront(key)}
		s.sessions[key] = sess
	} else {
		s.lruList.MoveToFront(sess.lruElem)
	}
	sess.turns = append(sess.turns, turns...)

	debug.Log("history", "appended turns", "backend", backendName, "session", sessionID, "count", len(turns), "total", len(sess.turns))
	observability.ObserveHistory(backendName, "append", nil)
	return nil
}

// Load returns a copy of the session's turns.
func (s *Store) Load(ctx context.Context, sessionID string) ([]history.Turn, error) {
	key := sessionKey{tenant: history.GetTenant(ctx), id: sessionID}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[key]
	if !ok {
		observability.ObserveHistory(backendName, "load", history.ErrNotFound)
		return nil, history.ErrNotFound
	}

	observability.ObserveHistory(backendName, "load", nil)
	return slices.Clone(sess.turns), nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	key := sessionKey{tenant: history.GetTenant(ctx), id: sessionID}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		observability.ObserveHistory(backendName, "delete", history.ErrNotFound)
		return history.ErrNotFound
	}
	s.lruList.Remove(sess.lruElem)
	delete(s.sessions, key)

	observability.ObserveHistory(backendName, "delete", nil)
	return nil
}

// List returns the tenant's session IDs, most recently updated first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	tenant := history.GetTenant(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []string{}
	for e := s.lruList.Front(); e != nil; e = e.Next() {
		key := e.Value.(sessionKey)
		if key.tenant == tenant {
			ids = append(ids, key.id)
		}
	}
	observability.ObserveHistory(backendName, "list", nil)
	return ids, nil
}

// Len returns the number of stored sessions across all tenants.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// evictOldest removes the least recently updated session.
// Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}

	key := back.Value.(sessionKey)
	s.lruList.Remove(back)
	delete(s.sessions, key)
	debug.Log("history", "evicted session", "backend", backendName, "session", key.id)
}
