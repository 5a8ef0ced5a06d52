package memory

import (
	"time"

	"ai-specforge-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type RevisionSessionRepository struct {
	cache *cache.Cache
}

func NewRevisionSessionRepository() *RevisionSessionRepository {
	// Create a cache with a default expiration time of 1 hour, and which
	// purges expired items every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &RevisionSessionRepository{
		cache: c,
	}
}

func (r *RevisionSessionRepository) Save(session *store.RevisionSession) {
	r.cache.Set(session.RootID, session, cache.DefaultExpiration)
}

func (r *RevisionSessionRepository) Get(rootID string) (*store.RevisionSession, bool) {
	if x, found := r.cache.Get(rootID); found {
		return x.(*store.RevisionSession), true
	}
	return nil, false
}

func (r *RevisionSessionRepository) Delete(rootID string) {
	r.cache.Delete(rootID)
}
