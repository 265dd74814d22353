// Package session tracks the signed-in identity and its resolved role for
// the lifetime of a session. The role is read from the user record once, when
// the session is created, and cached until sign-out; it is never re-evaluated
// per request.
package session

import (
	"sync"
	"time"

	"github.com/disaster-portal/disaster-portal-api/models"
)

// Session is the authenticated identity plus its resolved role
type Session struct {
	UserID     string
	Email      string
	Name       string
	Role       string
	SignedInAt time.Time
}

// IsAdmin reports whether the session carries the admin role
func (s Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// Store holds active sessions keyed by user id. It is created once at app
// start and threaded through the handlers that need identity or role checks.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{sessions: make(map[string]Session)}
}

// SignIn records a session for the given identity, replacing any prior one
func (s *Store) SignIn(sess Session) {
	if sess.UserID == "" {
		return
	}
	sess.SignedInAt = time.Now()
	s.mu.Lock()
	s.sessions[sess.UserID] = sess
	s.mu.Unlock()
}

// Current returns the session for the given user id, if one is active
func (s *Store) Current(userID string) (Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[userID]
	s.mu.RUnlock()
	return sess, ok
}

// Role returns the cached role for the given user id, or the empty string if
// the user has no active session
func (s *Store) Role(userID string) string {
	sess, ok := s.Current(userID)
	if !ok {
		return ""
	}
	return sess.Role
}

// SignOut tears the session down. Safe to call for ids with no session.
func (s *Store) SignOut(userID string) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}
