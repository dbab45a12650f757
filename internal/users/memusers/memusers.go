// Package memusers is an in-memory users.Store used by scheduler and worker
// tests, standing in for a real Postgres-backed users.BunStore.
package memusers

import (
	"context"
	"sync"
	"time"

	"daybreak/internal/users"
)

type Store struct {
	mu    sync.Mutex
	byID  map[int64]users.User
	order []int64
}

func New() *Store {
	return &Store{byID: make(map[int64]users.User)}
}

// Put inserts or replaces a user, for test setup.
func (s *Store) Put(u users.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[u.ID]; !exists {
		s.order = append(s.order, u.ID)
	}
	s.byID[u.ID] = u
}

func (s *Store) GetByID(_ context.Context, id int64) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok || u.IsDeleted() {
		return nil, users.ErrNotFound
	}
	cp := u
	return &cp, nil
}

// UsersWithEventToday ignores now: it streams every non-deleted user whose
// date field named by dateColumn is set, in insertion order, whatever its
// month/day. The caller's per-row check (ScheduleIfDueToday) rejects the
// users whose event is not today.
func (s *Store) UsersWithEventToday(ctx context.Context, dateColumn string, now time.Time) (<-chan users.Result, error) {
	s.mu.Lock()
	snapshot := make([]users.User, 0, len(s.order))
	for _, id := range s.order {
		u := s.byID[id]
		if u.IsDeleted() {
			continue
		}
		if hasEventOn(u, dateColumn) {
			snapshot = append(snapshot, u)
		}
	}
	s.mu.Unlock()

	out := make(chan users.Result, len(snapshot))
	for _, u := range snapshot {
		select {
		case out <- users.Result{User: u}:
		case <-ctx.Done():
		}
	}
	close(out)
	return out, nil
}

func hasEventOn(u users.User, dateColumn string) bool {
	switch dateColumn {
	case "birthday_date":
		return !u.BirthdayDate.IsZero()
	case "anniversary_date":
		return !u.AnniversaryDate.IsZero()
	default:
		return false
	}
}

var _ users.Store = (*Store)(nil)
