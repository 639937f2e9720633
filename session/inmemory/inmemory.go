package inmemory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/searchchat/session"
)

type Store struct {
	sessions map[string]*session.Session
	mu       sync.RWMutex
}

func NewInMemorySessionStore() *Store {
	return &Store{sessions: make(map[string]*session.Session)}
}

// EnsureSession returns the session for id, refreshing its expiry, or creates
// a new one with a fresh id when id is empty or unknown.
func (store *Store) EnsureSession(id string, ttl time.Duration) (*session.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if id != "" {
		if sess, ok := store.sessions[id]; ok {
			sess.Expire(ttl)
			return sess, nil
		}
	}

	sess := session.New(uuid.NewString(), ttl)
	store.sessions[sess.ID()] = sess
	return sess, nil
}

func (store *Store) GetSession(id string) (*session.Session, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	sess, ok := store.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return sess, nil
}

func (store *Store) DeleteSession(id string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.sessions[id]; !ok {
		return false
	}
	delete(store.sessions, id)
	return true
}

// Sweep drops expired idle sessions and returns how many were removed.
func (store *Store) Sweep(now time.Time) int {
	store.mu.Lock()
	defer store.mu.Unlock()
	removed := 0
	for id, sess := range store.sessions {
		if sess.Expired(now) {
			delete(store.sessions, id)
			removed++
		}
	}
	return removed
}

// Len is the number of live sessions.
func (store *Store) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.sessions)
}

var _ session.Store = (*Store)(nil)
