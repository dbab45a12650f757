package scheduler_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daybreak/internal/messagelog"
	"daybreak/internal/messagelog/memstore"
	"daybreak/internal/queue/memqueue"
	"daybreak/internal/scheduler"
)

func TestDispatcher_EnqueuesDueRow(t *testing.T) {
	store := memstore.New()
	q := memqueue.New()

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	created, err := store.CreateIfAbsent(t.Context(), &messagelog.Row{
		UserID:            1,
		MessageType:       "BIRTHDAY",
		ScheduledSendTime: now.Add(30 * time.Minute),
		DeliveryDate:      now,
		Status:            messagelog.StatusScheduled,
		IdempotencyKey:    "1:BIRTHDAY:2026-07-31",
		MessageContent:    "Hey, Ada Lovelace it's your birthday",
	})
	require.NoError(t, err)
	require.True(t, created)

	d := scheduler.NewDispatcher(store, q, time.Hour, 100)
	summary := d.Run(t.Context(), now)

	assert.Equal(t, 1, summary.Enqueued)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 1, q.Len())

	rows := store.All()
	require.Len(t, rows, 1)
	assert.Equal(t, messagelog.StatusEnqueued, rows[0].Status)
}

func TestDispatcher_IgnoresNotYetDueRow(t *testing.T) {
	store := memstore.New()
	q := memqueue.New()

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	_, err := store.CreateIfAbsent(t.Context(), &messagelog.Row{
		UserID:            1,
		MessageType:       "BIRTHDAY",
		ScheduledSendTime: now.Add(2 * time.Hour),
		DeliveryDate:      now,
		Status:            messagelog.StatusScheduled,
		IdempotencyKey:    "1:BIRTHDAY:2026-07-31",
		MessageContent:    "content",
	})
	require.NoError(t, err)

	d := scheduler.NewDispatcher(store, q, time.Hour, 100)
	summary := d.Run(t.Context(), now)

	assert.Equal(t, 0, summary.Enqueued)
	assert.Equal(t, 0, q.Len())
}

// TestDispatcher_ConcurrentRunsEnqueueEachRowAtMostOnce: two dispatcher
// instances sharing one store race over the same due rows, and the CAS in
// TransitionStatus must let exactly one of them win each row.
func TestDispatcher_ConcurrentRunsEnqueueEachRowAtMostOnce(t *testing.T) {
	store := memstore.New()
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	const rowCount = 50
	for i := 0; i < rowCount; i++ {
		store.CreateIfAbsent(t.Context(), &messagelog.Row{
			UserID: int64(i), MessageType: "BIRTHDAY", ScheduledSendTime: now,
			DeliveryDate: now, Status: messagelog.StatusScheduled,
			IdempotencyKey: messagelog.IdempotencyKey(int64(i), "BIRTHDAY", now), MessageContent: "content",
		})
	}

	q1, q2 := memqueue.New(), memqueue.New()
	d1 := scheduler.NewDispatcher(store, q1, time.Hour, rowCount)
	d2 := scheduler.NewDispatcher(store, q2, time.Hour, rowCount)

	var wg sync.WaitGroup
	var s1, s2 scheduler.DispatchSummary
	wg.Add(2)
	go func() { defer wg.Done(); s1 = d1.Run(t.Context(), now) }()
	go func() { defer wg.Done(); s2 = d2.Run(t.Context(), now) }()
	wg.Wait()

	assert.Equal(t, rowCount, s1.Enqueued+s2.Enqueued)
	assert.Equal(t, rowCount, q1.Len()+q2.Len())

	enqueuedCount := 0
	for _, r := range store.All() {
		if r.Status == messagelog.StatusEnqueued {
			enqueuedCount++
		}
	}
	assert.Equal(t, rowCount, enqueuedCount)
}
