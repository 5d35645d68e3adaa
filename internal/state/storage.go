// Package state keeps per-user conversation sessions and validates state transitions.
package state

import (
	"context"
	"sync"
	"time"
)

// Storage defines the persistence contract for conversation sessions.
type Storage interface {
	// GetSession returns the session of the user or ErrSessionNotFound.
	GetSession(ctx context.Context, userID int64) (*Session, error)
	// SaveSession stores the session under its user id.
	SaveSession(ctx context.Context, session *Session) error
	// DeleteSession removes the session of the user. Missing sessions are not an error.
	DeleteSession(ctx context.Context, userID int64) error
	// ListSessions returns every stored session.
	ListSessions(ctx context.Context) ([]*Session, error)
	// DeleteAll removes every session.
	DeleteAll(ctx context.Context) error
}

// MemoryStorage keeps sessions in a map. It is the default for a single bot process.
type MemoryStorage struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{sessions: make(map[int64]*Session)}
}

// GetSession returns a copy of the stored session.
func (s *MemoryStorage) GetSession(_ context.Context, userID int64) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session.clone(), nil
}

// SaveSession stores a copy of the session.
func (s *MemoryStorage) SaveSession(_ context.Context, session *Session) error {
	stored := session.clone()
	stored.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.UserID] = stored
	session.UpdatedAt = stored.UpdatedAt
	return nil
}

// DeleteSession removes the session of the user.
func (s *MemoryStorage) DeleteSession(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}

// ListSessions returns copies of every session.
func (s *MemoryStorage) ListSessions(_ context.Context) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		result = append(result, session.clone())
	}
	return result, nil
}

// DeleteAll removes every session.
func (s *MemoryStorage) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[int64]*Session)
	return nil
}
