package chat

import (
	"time"

	"deep-research-be/pkg/research/progress"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Registry maps conversation ids to live conversations.
type Registry struct {
	cache *cache.Cache
}

func NewRegistry() *Registry {
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &Registry{
		cache: c,
	}
}

// Create starts a conversation routed to the triage agent.
func (r *Registry) Create() *Conversation {
	conv := &Conversation{
		ID:           uuid.NewString(),
		CurrentAgent: AgentTriage,
		Log:          progress.NewLog(),
		CreatedAt:    time.Now(),
	}
	r.cache.Set(conv.ID, conv, cache.DefaultExpiration)
	return conv
}

func (r *Registry) Get(conversationID string) (*Conversation, bool) {
	if x, found := r.cache.Get(conversationID); found {
		return x.(*Conversation), true
	}
	return nil, false
}
