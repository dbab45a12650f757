package users

import (
	"context"
	"fmt"
	"time"

	"daybreak/internal/infra/cache"
)

// CachedStore decorates a Store with a short-TTL read-through cache for
// GetByID, the lookup the Worker Pool makes once per delivery attempt.
// UsersWithEventToday always goes straight to the underlying store — it is
// a once-daily bulk scan, not a point lookup, so caching it would just
// waste memory on a result never read twice.
type CachedStore struct {
	next  Store
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedStore(next Store, c cache.Cache, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedStore{next: next, cache: c, ttl: ttl}
}

func (s *CachedStore) GetByID(ctx context.Context, id int64) (*User, error) {
	key := fmt.Sprintf("users:by_id:%d", id)

	var cached User
	if _, err := s.cache.Get(ctx, key, &cached); err == nil && cached.ID != 0 {
		return &cached, nil
	}

	u, err := s.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_, _ = s.cache.Set(ctx, key, u, cache.Options{Expiration: s.ttl})
	return u, nil
}

func (s *CachedStore) UsersWithEventToday(ctx context.Context, dateColumn string, now time.Time) (<-chan Result, error) {
	return s.next.UsersWithEventToday(ctx, dateColumn, now)
}
