package messagelog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

// uniqueViolationCode is the Postgres SQLSTATE for a unique-constraint
// violation (idempotency_key), per the pgconn error mapping pgx surfaces
// through bun's driver.
const uniqueViolationCode = "23505"

// BunStore is the *bun.DB-backed message-log store. Updates go through
// raw TableExpr/Set/Where expressions rather than model updates, so a
// zero-valued retry_count or empty last_error still gets written when
// explicitly requested instead of being skipped as an omitted zero.
type BunStore struct {
	db *bun.DB
}

func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

func (s *BunStore) CreateIfAbsent(ctx context.Context, row *Row) (bool, error) {
	res, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (idempotency_key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("messagelog: create if absent: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("messagelog: rows affected: %w", err)
	}
	return affected > 0, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func (s *BunStore) FindDueForEnqueue(ctx context.Context, now time.Time, horizon time.Duration, limit int) ([]*Row, error) {
	var rows []*Row
	err := s.db.NewSelect().
		Model(&rows).
		Where("status = ?", StatusScheduled).
		Where("scheduled_send_time <= ?", now.Add(horizon)).
		Order("scheduled_send_time ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("messagelog: find due for enqueue: %w", err)
	}
	return rows, nil
}

func (s *BunStore) FindStaleScheduled(ctx context.Context, now time.Time, grace time.Duration, maxRetries, limit int) ([]*Row, error) {
	var rows []*Row
	err := s.db.NewSelect().
		Model(&rows).
		Where("status = ?", StatusScheduled).
		Where("scheduled_send_time < ?", now.Add(-grace)).
		Where("retry_count < ?", maxRetries).
		Order("scheduled_send_time ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("messagelog: find stale scheduled: %w", err)
	}
	return rows, nil
}

func (s *BunStore) FindStuckEnqueued(ctx context.Context, now time.Time, stuckThreshold time.Duration, limit int) ([]*Row, error) {
	var rows []*Row
	err := s.db.NewSelect().
		Model(&rows).
		Where("status = ?", StatusEnqueued).
		Where("updated_at < ?", now.Add(-stuckThreshold)).
		Order("updated_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("messagelog: find stuck enqueued: %w", err)
	}
	return rows, nil
}

func (s *BunStore) FindStaleSending(ctx context.Context, now time.Time, staleThreshold time.Duration, limit int) ([]*Row, error) {
	var rows []*Row
	err := s.db.NewSelect().
		Model(&rows).
		Where("status = ?", StatusSending).
		Where("last_attempt_at < ?", now.Add(-staleThreshold)).
		Order("last_attempt_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("messagelog: find stale sending: %w", err)
	}
	return rows, nil
}

func (s *BunStore) FindFailedRetryCandidates(ctx context.Context, maxRetries, limit int) ([]*Row, error) {
	var rows []*Row
	err := s.db.NewSelect().
		Model(&rows).
		Where("status = ?", StatusFailed).
		Where("retry_count < ?", maxRetries).
		Order("last_attempt_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("messagelog: find failed retry candidates: %w", err)
	}
	return rows, nil
}

func (s *BunStore) FindByID(ctx context.Context, id int64) (*Row, error) {
	row := new(Row)
	err := s.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, bun.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("messagelog: find by id %d: %w", id, err)
	}
	return row, nil
}

// TransitionStatus is the single guarded `UPDATE ... WHERE id=? AND
// status=?` that realizes compare-and-set. Using TableExpr + Set rather
// than a model update means a zero-valued RetryCount of 0 or an empty
// LastError still get written when explicitly requested, instead of being
// silently skipped the way OmitZero would skip them.
func (s *BunStore) TransitionStatus(ctx context.Context, id int64, from, to Status, updates Updates) error {
	q := s.db.NewUpdate().
		TableExpr("message_logs").
		Set("status = ?", to).
		Set("updated_at = ?", time.Now().UTC())

	if updates.RetryCount != nil {
		q = q.Set("retry_count = ?", *updates.RetryCount)
	}
	if updates.LastAttemptAt != nil {
		q = q.Set("last_attempt_at = ?", *updates.LastAttemptAt)
	}
	if updates.LastError != nil {
		q = q.Set("last_error = ?", *updates.LastError)
	}
	if updates.ResponseCode != nil {
		q = q.Set("response_code = ?", *updates.ResponseCode)
	}

	res, err := q.Where("id = ?", id).Where("status = ?", from).Exec(ctx)
	if err != nil {
		return fmt.Errorf("messagelog: transition %s->%s for id %d: %w", from, to, id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("messagelog: rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.FindByID(ctx, id); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConcurrencyLost
	}
	return nil
}

func (s *BunStore) UpdateSchedule(ctx context.Context, userID int64, messageType string, deliveryDate time.Time, newInstant time.Time) error {
	_, err := s.db.NewUpdate().
		TableExpr("message_logs").
		Set("scheduled_send_time = ?", newInstant).
		Set("updated_at = ?", time.Now().UTC()).
		Where("user_id = ?", userID).
		Where("message_type = ?", messageType).
		Where("delivery_date = ?", deliveryDate).
		Where("status IN (?)", bun.In([]Status{StatusScheduled, StatusEnqueued})).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("messagelog: update schedule for user %d: %w", userID, err)
	}
	return nil
}

func (s *BunStore) DeadlineTodaysRows(ctx context.Context, userID int64, reason string) (int, error) {
	res, err := s.db.NewUpdate().
		TableExpr("message_logs").
		Set("status = ?", StatusDead).
		Set("last_error = ?", reason).
		Set("updated_at = ?", time.Now().UTC()).
		Where("user_id = ?", userID).
		Where("status IN (?)", bun.In([]Status{StatusScheduled, StatusEnqueued, StatusFailed})).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("messagelog: deadline today's rows for user %d: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("messagelog: rows affected: %w", err)
	}
	return int(affected), nil
}
