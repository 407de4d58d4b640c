package memory

import (
	"sync"

	"party-trivia/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
	pins     map[string]string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
		pins:     make(map[string]string),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
}

func (s *SessionStore) Get(id string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

// IndexPin points pin at id. A later session drawing the same pin takes it over.
func (s *SessionStore) IndexPin(pin, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pins[pin] = id
}

func (s *SessionStore) UnindexPin(pin, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pins[pin] == id {
		delete(s.pins, pin)
	}
}

func (s *SessionStore) LookupPin(pin string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.pins[pin]
	if !ok {
		return "", false
	}
	if _, live := s.sessions[id]; !live {
		return "", false
	}
	return id, true
}

// Delete forgets the session and any pin still pointing at it.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	for pin, owner := range s.pins {
		if owner == id {
			delete(s.pins, pin)
		}
	}
}

// Len reports how many sessions are live.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
