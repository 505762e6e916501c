package session

import (
	"time"

	"deep-research-be/pkg/research/progress"
	"deep-research-be/pkg/store"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Registry maps opaque session ids to research sessions. Backed by an
// in-memory cache so finished sessions eventually age out.
type Registry struct {
	cache *cache.Cache
}

func NewRegistry() *Registry {
	// Sessions live for 1 hour after last access; expired entries are
	// purged every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &Registry{
		cache: c,
	}
}

// Create allocates a new session with a fresh id and progress log.
func (r *Registry) Create(query, variant string) *store.Session {
	session := &store.Session{
		ID:        uuid.NewString(),
		Query:     query,
		Variant:   variant,
		Stage:     store.StageCreated,
		CreatedAt: time.Now(),
		Log:       progress.NewLog(),
	}
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
	return session
}

// Get looks a session up. The boolean distinguishes "unknown session"
// from any in-session condition.
func (r *Registry) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

// Delete evicts a session immediately.
func (r *Registry) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
