package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daybreak/internal/messagelog"
	"daybreak/internal/messagelog/memstore"
	"daybreak/internal/queue"
	"daybreak/internal/queue/memqueue"
	"daybreak/internal/scheduler"
	"daybreak/internal/sender"
	"daybreak/internal/sender/fakesender"
	"daybreak/internal/users"
	"daybreak/internal/users/memusers"
)

func seedRow(t *testing.T, store *memstore.Store, status messagelog.Status) int64 {
	t.Helper()
	now := time.Date(2026, 7, 31, 13, 0, 0, 0, time.UTC)
	store.CreateIfAbsent(t.Context(), &messagelog.Row{
		UserID: 1, MessageType: "BIRTHDAY", ScheduledSendTime: now,
		DeliveryDate: now, Status: messagelog.StatusScheduled,
		IdempotencyKey: "1:BIRTHDAY:2026-07-31", MessageContent: "Hey, Ada Lovelace it's your birthday",
	})
	rows := store.All()
	id := rows[0].ID
	if status != messagelog.StatusScheduled {
		require.NoError(t, store.TransitionStatus(t.Context(), id, messagelog.StatusScheduled, messagelog.StatusEnqueued, messagelog.Updates{}))
	}
	return id
}

func TestWorkerPool_Handle_SuccessTransitionsToSent(t *testing.T) {
	store := memstore.New()
	id := seedRow(t, store, messagelog.StatusEnqueued)

	u := memusers.New()
	u.Put(users.User{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Timezone: "UTC"})

	fake := fakesender.New(sender.Result{Outcome: sender.Sent, Code: 200})
	q := memqueue.New()

	w := scheduler.NewWorkerPool(store, u, fake, q, 5)
	body, _ := queue.Marshal(queue.Payload{MessageLogID: id, Attempt: 0})

	err := w.Handle(t.Context(), body)
	require.NoError(t, err)

	row, err := store.FindByID(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, messagelog.StatusSent, row.Status)
	assert.Equal(t, 1, fake.CallCount())
	assert.Equal(t, "ada@example.com", fake.Calls[0].To)
}

func TestWorkerPool_Handle_TransientFailureRequeuesWithBackoff(t *testing.T) {
	store := memstore.New()
	id := seedRow(t, store, messagelog.StatusEnqueued)

	u := memusers.New()
	u.Put(users.User{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Timezone: "UTC"})

	fake := fakesender.New(sender.Result{Outcome: sender.TransientFailure, Reason: "timeout"})
	q := memqueue.New()

	w := scheduler.NewWorkerPool(store, u, fake, q, 5)
	body, _ := queue.Marshal(queue.Payload{MessageLogID: id, Attempt: 0})

	err := w.Handle(t.Context(), body)
	require.NoError(t, err)

	row, err := store.FindByID(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, messagelog.StatusFailed, row.Status)
	assert.Equal(t, 1, row.RetryCount)
	assert.Equal(t, 1, q.Len())
}

func TestWorkerPool_Handle_PermanentFailureGoesDeadWithoutRetry(t *testing.T) {
	store := memstore.New()
	id := seedRow(t, store, messagelog.StatusEnqueued)

	u := memusers.New()
	u.Put(users.User{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Timezone: "UTC"})

	fake := fakesender.New(sender.Result{Outcome: sender.PermanentFailure, Code: 400, Reason: "bad_request"})
	q := memqueue.New()

	w := scheduler.NewWorkerPool(store, u, fake, q, 5)
	body, _ := queue.Marshal(queue.Payload{MessageLogID: id, Attempt: 0})

	err := w.Handle(t.Context(), body)
	require.NoError(t, err)

	row, err := store.FindByID(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, messagelog.StatusDead, row.Status)
	assert.Equal(t, 0, q.Len())
}

func TestWorkerPool_Handle_ExhaustedRetriesDeadLettersOnMaxRetries(t *testing.T) {
	store := memstore.New()
	id := seedRow(t, store, messagelog.StatusEnqueued)
	retryCount := 5
	require.NoError(t, store.TransitionStatus(t.Context(), id, messagelog.StatusEnqueued, messagelog.StatusFailed, messagelog.Updates{RetryCount: &retryCount}))
	require.NoError(t, store.TransitionStatus(t.Context(), id, messagelog.StatusFailed, messagelog.StatusSending, messagelog.Updates{}))
	require.NoError(t, store.TransitionStatus(t.Context(), id, messagelog.StatusSending, messagelog.StatusEnqueued, messagelog.Updates{}))

	u := memusers.New()
	u.Put(users.User{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Timezone: "UTC"})

	fake := fakesender.New(sender.Result{Outcome: sender.TransientFailure, Reason: "still down"})
	q := memqueue.New()

	w := scheduler.NewWorkerPool(store, u, fake, q, 5)
	body, _ := queue.Marshal(queue.Payload{MessageLogID: id, Attempt: 5})

	err := w.Handle(t.Context(), body)
	assert.ErrorIs(t, err, queue.ErrDeadLetter)

	row, err := store.FindByID(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, messagelog.StatusDead, row.Status)
	assert.Equal(t, 5, row.RetryCount)
}

func TestWorkerPool_Handle_DeletedUserGoesDeadWithReason(t *testing.T) {
	store := memstore.New()
	id := seedRow(t, store, messagelog.StatusEnqueued)

	u := memusers.New() // user 1 never populated => not found
	fake := fakesender.New()
	q := memqueue.New()

	w := scheduler.NewWorkerPool(store, u, fake, q, 5)
	body, _ := queue.Marshal(queue.Payload{MessageLogID: id, Attempt: 0})

	err := w.Handle(t.Context(), body)
	require.NoError(t, err)

	row, err := store.FindByID(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, messagelog.StatusDead, row.Status)
	assert.Equal(t, scheduler.ReasonUserRemoved, row.LastError)
	assert.Equal(t, 0, fake.CallCount())
}

func TestWorkerPool_Handle_AlreadySentRowIsNoOp(t *testing.T) {
	store := memstore.New()
	id := seedRow(t, store, messagelog.StatusEnqueued)
	require.NoError(t, store.TransitionStatus(t.Context(), id, messagelog.StatusEnqueued, messagelog.StatusSending, messagelog.Updates{}))
	require.NoError(t, store.TransitionStatus(t.Context(), id, messagelog.StatusSending, messagelog.StatusSent, messagelog.Updates{}))

	u := memusers.New()
	u.Put(users.User{ID: 1, Email: "ada@example.com", Timezone: "UTC"})
	fake := fakesender.New()
	q := memqueue.New()

	w := scheduler.NewWorkerPool(store, u, fake, q, 5)
	body, _ := queue.Marshal(queue.Payload{MessageLogID: id, Attempt: 0})

	require.NoError(t, w.Handle(t.Context(), body))
	assert.Equal(t, 0, fake.CallCount())
}
