package engine

import (
	"sync"

	"github.com/project-pulse/pulse/internal/domain"
)

// sessionStore holds the in-memory map of users awaiting follow-up. It is
// a cache over the durable signal (the OPEN ticket); recovery rebuilds
// entries after a restart. At most one session exists per user.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*domain.Session)}
}

// begin registers a session unless one is already active for the user.
func (s *sessionStore) begin(sess *domain.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, active := s.sessions[sess.UserID]; active {
		return false
	}
	s.sessions[sess.UserID] = sess
	return true
}

// get returns the active session for a user, if any.
func (s *sessionStore) get(userID string) (*domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// has reports whether a session is active without returning it.
func (s *sessionStore) has(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[userID]
	return ok
}

// end removes the session; consuming is idempotent.
func (s *sessionStore) end(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
