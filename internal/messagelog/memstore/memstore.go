// Package memstore is an in-memory messagelog.Store used by tests across
// the scheduler, worker and recovery packages. A real (if tiny) CAS
// implementation is more useful here than a testify mock, since what the
// tests exercise is concurrent CAS semantics, not call counts.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/uptrace/bun"

	"daybreak/internal/messagelog"
)

type Store struct {
	mu       sync.Mutex
	rows     map[int64]*messagelog.Row
	byKey    map[string]int64
	nextID   int64
	Deadline map[int64]string
}

func New() *Store {
	return &Store{
		rows:     make(map[int64]*messagelog.Row),
		byKey:    make(map[string]int64),
		Deadline: make(map[int64]string),
	}
}

func (s *Store) CreateIfAbsent(_ context.Context, row *messagelog.Row) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byKey[row.IdempotencyKey]; exists {
		return false, nil
	}

	s.nextID++
	row.ID = s.nextID
	row.CreatedAt = time.Now().UTC()
	row.UpdatedAt = row.CreatedAt
	cp := *row
	s.rows[row.ID] = &cp
	s.byKey[row.IdempotencyKey] = row.ID
	return true, nil
}

func (s *Store) FindDueForEnqueue(_ context.Context, now time.Time, horizon time.Duration, limit int) ([]*messagelog.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*messagelog.Row
	for _, r := range s.rows {
		if r.Status == messagelog.StatusScheduled && !r.ScheduledSendTime.After(now.Add(horizon)) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return limitRows(sortBySendTime(out), limit), nil
}

func (s *Store) FindStaleScheduled(_ context.Context, now time.Time, grace time.Duration, maxRetries, limit int) ([]*messagelog.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*messagelog.Row
	cutoff := now.Add(-grace)
	for _, r := range s.rows {
		if r.Status == messagelog.StatusScheduled && r.ScheduledSendTime.Before(cutoff) && r.RetryCount < maxRetries {
			cp := *r
			out = append(out, &cp)
		}
	}
	return limitRows(out, limit), nil
}

func (s *Store) FindStuckEnqueued(_ context.Context, now time.Time, stuckThreshold time.Duration, limit int) ([]*messagelog.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*messagelog.Row
	cutoff := now.Add(-stuckThreshold)
	for _, r := range s.rows {
		if r.Status == messagelog.StatusEnqueued && r.UpdatedAt.Before(cutoff) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return limitRows(out, limit), nil
}

func (s *Store) FindStaleSending(_ context.Context, now time.Time, staleThreshold time.Duration, limit int) ([]*messagelog.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*messagelog.Row
	cutoff := now.Add(-staleThreshold)
	for _, r := range s.rows {
		if r.Status == messagelog.StatusSending && !r.LastAttemptAt.IsZero() && r.LastAttemptAt.Time.Before(cutoff) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return limitRows(out, limit), nil
}

func (s *Store) FindFailedRetryCandidates(_ context.Context, maxRetries, limit int) ([]*messagelog.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*messagelog.Row
	for _, r := range s.rows {
		if r.Status == messagelog.StatusFailed && r.RetryCount < maxRetries {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastAttemptAt.Time.Before(out[j].LastAttemptAt.Time)
	})
	return limitRows(out, limit), nil
}

func (s *Store) FindByID(_ context.Context, id int64) (*messagelog.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, messagelog.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) TransitionStatus(_ context.Context, id int64, from, to messagelog.Status, updates messagelog.Updates) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[id]
	if !ok {
		return messagelog.ErrNotFound
	}
	if r.Status != from {
		return messagelog.ErrConcurrencyLost
	}

	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	if updates.RetryCount != nil {
		r.RetryCount = *updates.RetryCount
	}
	if updates.LastAttemptAt != nil {
		r.LastAttemptAt = bun.NullTime{Time: *updates.LastAttemptAt}
	}
	if updates.LastError != nil {
		r.LastError = *updates.LastError
	}
	if updates.ResponseCode != nil {
		r.ResponseCode = *updates.ResponseCode
	}
	return nil
}

func (s *Store) UpdateSchedule(_ context.Context, userID int64, messageType string, deliveryDate time.Time, newInstant time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.UserID == userID && r.MessageType == messageType && sameDate(r.DeliveryDate, deliveryDate) &&
			(r.Status == messagelog.StatusScheduled || r.Status == messagelog.StatusEnqueued) {
			r.ScheduledSendTime = newInstant
			r.UpdatedAt = time.Now().UTC()
		}
	}
	return nil
}

func (s *Store) DeadlineTodaysRows(_ context.Context, userID int64, reason string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.rows {
		if r.UserID == userID && (r.Status == messagelog.StatusScheduled || r.Status == messagelog.StatusEnqueued || r.Status == messagelog.StatusFailed) {
			r.Status = messagelog.StatusDead
			r.LastError = reason
			r.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

// All returns a snapshot of every row, for test assertions only.
func (s *Store) All() []*messagelog.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*messagelog.Row, 0, len(s.rows))
	for _, r := range s.rows {
		cp := *r
		out = append(out, &cp)
	}
	return out
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func limitRows(rows []*messagelog.Row, limit int) []*messagelog.Row {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

func sortBySendTime(rows []*messagelog.Row) []*messagelog.Row {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j].ScheduledSendTime.Before(rows[j-1].ScheduledSendTime); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
	return rows
}

var _ messagelog.Store = (*Store)(nil)
