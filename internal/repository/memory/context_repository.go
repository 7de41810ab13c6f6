package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// ChatContext is the per-user interaction context resolved once per request:
// which session the next message lands in. It replaces any ambient notion of
// "current session" server state.
type ChatContext struct {
	Username  string
	SessionID string
}

// ContextRepository caches resolved chat contexts between interactions so the
// hot path skips a document lookup. Entries are invalidated on any session
// mutation; the store remains the source of truth.
type ContextRepository struct {
	cache *cache.Cache
}

func NewContextRepository() *ContextRepository {
	// Default expiration 1 hour, purge sweep every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &ContextRepository{
		cache: c,
	}
}

func (r *ContextRepository) Save(cc *ChatContext) {
	r.cache.Set(cc.Username, cc, cache.DefaultExpiration)
}

func (r *ContextRepository) Get(username string) (*ChatContext, bool) {
	if x, found := r.cache.Get(username); found {
		return x.(*ChatContext), true
	}
	return nil, false
}

func (r *ContextRepository) Delete(username string) {
	r.cache.Delete(username)
}
