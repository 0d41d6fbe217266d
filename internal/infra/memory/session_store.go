package memory

import (
	"context"
	"sync"

	"trivia-session-engine/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore. Snapshots are deep
// copied on the way in and out so callers never share slices with the map.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
	}
}

func (s *SessionStore) Get(_ context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *SessionStore) Put(_ context.Context, session domain.Session) error {
	snapshot := session.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = snapshot
	return nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Scan visits a point-in-time copy of the store, so fn may call back into it.
func (s *SessionStore) Scan(ctx context.Context, fn func(domain.Session) error) error {
	s.mu.RLock()
	snapshot := make([]domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		snapshot = append(snapshot, session.Clone())
	}
	s.mu.RUnlock()

	for _, session := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(session); err != nil {
			return err
		}
	}
	return nil
}

// Len reports the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
