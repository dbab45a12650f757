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
	"daybreak/internal/strategies"
	_ "daybreak/internal/strategies/builtin"
	"daybreak/internal/users"
	"daybreak/internal/users/memusers"
)

// TestPipeline_PrecalcDispatchSend drives one row through the whole chain —
// pre-calc creates it, the dispatcher promotes it, the worker pool drains
// the queue and sends — asserting the single POST body and the terminal
// SENT status end to end.
func TestPipeline_PrecalcDispatchSend(t *testing.T) {
	store := memstore.New()
	userStore := memusers.New()
	q := memqueue.New()
	fake := fakesender.New(sender.Result{Outcome: sender.Sent, Code: 200})

	alice := users.User{ID: 1, FirstName: "Alice", LastName: "Smith", Email: "a@example.com", Timezone: "America/New_York"}
	alice.BirthdayDate.Time = time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)
	userStore.Put(alice)

	precalc := scheduler.NewPrecalc(userStore, store, strategies.GlobalRegistry)
	dispatcher := scheduler.NewDispatcher(store, q, time.Hour, 100)
	pool := scheduler.NewWorkerPool(store, userStore, fake, q, 5)

	runStart := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	summary := precalc.Run(t.Context(), runStart)
	require.Equal(t, 1, summary.Created)

	rows := store.All()
	require.Len(t, rows, 1)
	assert.Equal(t, time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC), rows[0].ScheduledSendTime)

	// 13:00 UTC: the row is due now, so it is published with zero delay
	// and the delivery is immediately ready. (memqueue keys readiness off
	// the real clock, so an earlier tick would park it for a real minute.)
	dispatchSummary := dispatcher.Run(t.Context(), time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC))
	require.Equal(t, 1, dispatchSummary.Enqueued)

	// Drive the ready delivery through the worker handler the way the
	// rabbitmq consumer would.
	drained := false
	q.Drain(t.Context(), func(p queue.Payload) error {
		drained = true
		body, err := queue.Marshal(p)
		require.NoError(t, err)
		return pool.Handle(t.Context(), body)
	})
	require.True(t, drained, "the published delivery never became ready")

	row, err := store.FindByID(t.Context(), rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, messagelog.StatusSent, row.Status)

	require.Equal(t, 1, fake.CallCount())
	assert.Equal(t, "a@example.com", fake.Calls[0].To)
	assert.Equal(t, "Hey, Alice Smith it's your birthday", fake.Calls[0].Message)
}
