package messagelog

import (
	"context"
	"time"
)

// Updates carries the optional fields a TransitionStatus call mutates
// alongside status. Zero-value fields are left untouched except where noted.
type Updates struct {
	RetryCount    *int
	LastAttemptAt *time.Time
	LastError     *string
	ResponseCode  *int
}

// Store is the message-log store, the pipeline's single source of truth.
// Every status mutation goes through TransitionStatus; no other method
// changes status.
type Store interface {
	// CreateIfAbsent inserts row, guarded by the unique idempotency_key
	// index. created=false means a row for this (user, type, date) already
	// existed — the caller must treat this as AlreadyExists, not an error.
	CreateIfAbsent(ctx context.Context, row *Row) (created bool, err error)

	// FindDueForEnqueue returns SCHEDULED rows due within horizon of now,
	// oldest scheduledSendTime first, capped at limit.
	FindDueForEnqueue(ctx context.Context, now time.Time, horizon time.Duration, limit int) ([]*Row, error)

	// FindStaleScheduled returns SCHEDULED rows whose send time is more than
	// grace in the past and have retry budget left — the dispatcher never
	// picked them up.
	FindStaleScheduled(ctx context.Context, now time.Time, grace time.Duration, maxRetries, limit int) ([]*Row, error)

	// FindStuckEnqueued returns ENQUEUED rows not updated in stuckThreshold —
	// published but never leased by any worker.
	FindStuckEnqueued(ctx context.Context, now time.Time, stuckThreshold time.Duration, limit int) ([]*Row, error)

	// FindStaleSending returns SENDING rows whose last attempt is older than
	// staleThreshold — the worker that leased them died mid-attempt.
	FindStaleSending(ctx context.Context, now time.Time, staleThreshold time.Duration, limit int) ([]*Row, error)

	// FindFailedRetryCandidates returns FAILED rows with budget left, oldest
	// lastAttemptAt first; the caller (recovery) applies nextRetryDue itself
	// since that depends on the outer-backoff formula, not storage.
	FindFailedRetryCandidates(ctx context.Context, maxRetries, limit int) ([]*Row, error)

	// TransitionStatus is the only safe way to mutate status: it applies iff
	// the row's current status equals from. Returns ErrConcurrencyLost if
	// another actor already moved it, ErrNotFound if id doesn't exist.
	TransitionStatus(ctx context.Context, id int64, from, to Status, updates Updates) error

	// FindByID reads a single row by id, used by workers to re-check status.
	FindByID(ctx context.Context, id int64) (*Row, error)

	// UpdateSchedule rewrites scheduledSendTime for the {SCHEDULED,
	// ENQUEUED} row identified by (userID, messageType, deliveryDate) —
	// the rescheduling path taken when a user's timezone or event date
	// changes.
	UpdateSchedule(ctx context.Context, userID int64, messageType string, deliveryDate time.Time, newInstant time.Time) error

	// DeadlineTodaysRows transitions the user's SCHEDULED, ENQUEUED and
	// FAILED rows to DEAD with the given reason — the OnUserDeleted path.
	// SENDING rows are left as they are, and rows are not filtered by
	// deliveryDate.
	DeadlineTodaysRows(ctx context.Context, userID int64, reason string) (affected int, err error)
}
