package memory

import (
	"context"
	"sync"
	"time"

	"csv-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Entries expire ttl after their last save.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.RWMutex
	sessions map[string]storedSession
}

type storedSession struct {
	session   domain.QuizSession
	expiresAt time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]storedSession),
	}
}

func (s *SessionStore) Get(_ context.Context, token string) (domain.QuizSession, bool, error) {
	s.mu.RLock()
	stored, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return domain.QuizSession{}, false, nil
	}
	if s.ttl > 0 && !stored.expiresAt.After(s.clock()) {
		_ = s.Delete(context.Background(), token)
		return domain.QuizSession{}, false, nil
	}
	return stored.session, true, nil
}

func (s *SessionStore) Save(_ context.Context, token string, session domain.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = storedSession{
		session:   session,
		expiresAt: s.clock().Add(s.ttl),
	}
	s.sweepLocked()
	return nil
}

func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// Len reports how many sessions are held, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) sweepLocked() {
	if s.ttl <= 0 {
		return
	}
	now := s.clock()
	for token, stored := range s.sessions {
		if !stored.expiresAt.After(now) {
			delete(s.sessions, token)
		}
	}
}
