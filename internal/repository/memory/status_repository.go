package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// StatusSnapshot is the in-memory view of an ingestion job, kept hot so
// status polling does not hit the database on every request.
type StatusSnapshot struct {
	Status       string
	Progress     int
	ErrorMessage string
	UpdatedAt    time.Time
}

type StatusRepository struct {
	cache *cache.Cache
}

func NewStatusRepository() *StatusRepository {
	// Snapshots expire an hour after the last update; expired items are
	// purged every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &StatusRepository{
		cache: c,
	}
}

func (r *StatusRepository) Save(sessionID string, snapshot *StatusSnapshot) {
	snapshot.UpdatedAt = time.Now()
	r.cache.Set(sessionID, snapshot, cache.DefaultExpiration)
}

func (r *StatusRepository) Get(sessionID string) (*StatusSnapshot, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*StatusSnapshot), true
	}
	return nil, false
}

func (r *StatusRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
