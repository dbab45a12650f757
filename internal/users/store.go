package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Result is one element of a UsersWithEventToday stream: either a User or a
// row-scan error. A non-nil Err ends the stream after this element.
type Result struct {
	User User
	Err  error
}

// Store is the User Store Adapter (component B). GetByID is used by workers;
// UsersWithEventToday is used by the daily pre-calc scheduler.
type Store interface {
	// GetByID returns the non-deleted-aware row for id, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*User, error)

	// UsersWithEventToday streams every non-deleted user whose dateColumn
	// falls on (month, day) of now rendered across a +/-14h window around
	// now, so that every IANA zone's "today" is represented at least once.
	// The pre-calc scheduler re-checks exactness per-row with the timezone
	// engine before acting; this is a deliberately broad candidate query.
	UsersWithEventToday(ctx context.Context, dateColumn string, now time.Time) (<-chan Result, error)
}

// ErrNotFound is returned by GetByID when no non-deleted row matches id.
var ErrNotFound = fmt.Errorf("users: not found")

// BunStore is the *bun.DB-backed implementation. UsersWithEventToday
// streams rows instead of materializing a slice — the candidate set can be
// hundreds of thousands of users on a busy calendar day.
type BunStore struct {
	db *bun.DB
}

func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

func (s *BunStore) GetByID(ctx context.Context, id int64) (*User, error) {
	u := new(User)
	err := s.db.NewSelect().
		Model(u).
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, bun.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("users: get by id %d: %w", id, err)
	}
	return u, nil
}

// UsersWithEventToday opens a cursor over the candidate rows and scans
// them into the returned channel from a background goroutine, closing it
// when the cursor is exhausted, an error occurs, or ctx is cancelled.
func (s *BunStore) UsersWithEventToday(ctx context.Context, dateColumn string, now time.Time) (<-chan Result, error) {
	months, days := candidateMonthDays(now)

	q := s.db.NewSelect().
		Model((*User)(nil)).
		Where("? IS NOT NULL", bun.Ident(dateColumn))

	q = q.WhereGroup(" AND ", func(sub *bun.SelectQuery) *bun.SelectQuery {
		for i := range months {
			sub = sub.WhereOr("EXTRACT(MONTH FROM ?) = ? AND EXTRACT(DAY FROM ?) = ?",
				bun.Ident(dateColumn), months[i], bun.Ident(dateColumn), days[i])
		}
		return sub
	})

	rows, err := q.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("users: candidate query on %s: %w", dateColumn, err)
	}

	out := make(chan Result, 64)
	go func() {
		defer close(out)
		defer rows.Close()

		for rows.Next() {
			var u User
			if err := s.db.ScanRow(ctx, rows, &u); err != nil {
				select {
				case out <- Result{Err: fmt.Errorf("users: scan row: %w", err)}:
				case <-ctx.Done():
				}
				return
			}
			select {
			case out <- Result{User: u}:
			case <-ctx.Done():
				return
			}
		}
		if err := rows.Err(); err != nil {
			select {
			case out <- Result{Err: fmt.Errorf("users: row iteration: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}

// candidateMonthDays returns the deduplicated (month, day) pairs of
// now-14h, now and now+14h, wide enough to cover every IANA zone's "today".
// Filtering on the UTC date alone would drop users near the date line.
// A Feb 28 in a non-leap year also yields (2, 29), since Feb 29 events
// fire on Feb 28 in those years.
func candidateMonthDays(now time.Time) ([]int, []int) {
	offsets := []time.Duration{-14 * time.Hour, 0, 14 * time.Hour}
	seen := make(map[[2]int]bool, 4)
	var months, days []int
	for _, off := range offsets {
		t := now.Add(off).UTC()
		keys := [][2]int{{int(t.Month()), t.Day()}}
		if y := t.Year(); t.Month() == time.February && t.Day() == 28 && !(y%4 == 0 && (y%100 != 0 || y%400 == 0)) {
			keys = append(keys, [2]int{2, 29})
		}
		for _, key := range keys {
			if seen[key] {
				continue
			}
			seen[key] = true
			months = append(months, key[0])
			days = append(days, key[1])
		}
	}
	return months, days
}
