package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"party-trivia/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions themselves stay in a local map since their timers and subscribers
// are in-process. Redis holds a liveness marker per session and the pin index:
//
//	SET trivia:session:{id} 1 EX ttl
//	SET trivia:pin:{pin} {id} EX ttl
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.sessionKey(session.ID()), "1", s.ttl).Err()
}

func (s *SessionStore) Get(id string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *SessionStore) IndexPin(pin, id string) {
	ctx := context.Background()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.pinKey(pin), id, s.ttl)
	pipe.Expire(ctx, s.sessionKey(id), s.ttl)
	_, _ = pipe.Exec(ctx)
}

// UnindexPin deletes the pin key while id still owns it.
func (s *SessionStore) UnindexPin(pin, id string) {
	ctx := context.Background()
	key := s.pinKey(pin)
	_ = s.client.Watch(ctx, func(tx *redis.Tx) error {
		owner, err := tx.Get(ctx, key).Result()
		if err != nil || owner != id {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)
}

// LookupPin resolves pin through Redis. Pins owned by sessions this instance
// does not hold are reported as missing.
func (s *SessionStore) LookupPin(pin string) (string, bool) {
	id, err := s.client.Get(context.Background(), s.pinKey(pin)).Result()
	if err != nil {
		return "", false
	}
	if _, ok := s.Get(id); !ok {
		return "", false
	}
	return id, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	ctx := context.Background()
	keys := []string{s.sessionKey(id)}
	if ok {
		if pin := session.Snapshot().GamePin; pin != "" {
			if owner, err := s.client.Get(ctx, s.pinKey(pin)).Result(); err == nil && owner == id {
				keys = append(keys, s.pinKey(pin))
			}
		}
	}
	_ = s.client.Del(ctx, keys...).Err()
}

func (s *SessionStore) sessionKey(id string) string {
	return "trivia:session:" + id
}

func (s *SessionStore) pinKey(pin string) string {
	return "trivia:pin:" + pin
}
