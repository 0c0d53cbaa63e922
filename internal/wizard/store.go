package wizard

import (
	"time"

	"github.com/patrickmn/go-cache"

	"movequote-backend/internal/model"
)

// Store keeps live wizard sessions in memory with a TTL. Sessions are
// per-visitor demo state; nothing survives expiry or a restart.
type Store struct {
	sessions *cache.Cache
	ttl      time.Duration
}

// NewStore creates a session store with the given TTL and cleanup
// interval.
func NewStore(ttl, cleanup time.Duration) *Store {
	return &Store{
		sessions: cache.New(ttl, cleanup),
		ttl:      ttl,
	}
}

// Create registers a new session for the given flow.
func (st *Store) Create(flow model.Flow) *Session {
	sess := newSession(flow)
	st.sessions.Set(sess.ID, sess, st.ttl)
	return sess
}

// Get returns the session by id, refreshing its TTL so an active
// visitor is not evicted mid-wizard.
func (st *Store) Get(id string) (*Session, bool) {
	v, found := st.sessions.Get(id)
	if !found {
		return nil, false
	}
	sess := v.(*Session)
	st.sessions.Set(id, sess, st.ttl)
	return sess, true
}

// Count returns the number of live sessions.
func (st *Store) Count() int {
	return st.sessions.ItemCount()
}
