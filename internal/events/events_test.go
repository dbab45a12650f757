package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daybreak/internal/events"
	"daybreak/internal/messagelog"
	"daybreak/internal/messagelog/memstore"
	"daybreak/internal/strategies"
	_ "daybreak/internal/strategies/builtin"
	"daybreak/internal/timezone"
	"daybreak/internal/users"
)

func TestOnUserCreated_SchedulesTodaysBirthday(t *testing.T) {
	store := memstore.New()
	h := events.NewHandlers(store, strategies.GlobalRegistry)

	user := users.User{ID: 1, FirstName: "Grace", LastName: "Hopper", Timezone: "UTC"}
	user.BirthdayDate.Time = time.Date(1990, time.July, 31, 0, 0, 0, 0, time.UTC)

	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	h.OnUserCreated(t.Context(), user, now)

	rows := store.All()
	require.Len(t, rows, 1)
	assert.Equal(t, "BIRTHDAY", rows[0].MessageType)
	assert.Equal(t, messagelog.StatusScheduled, rows[0].Status)
}

func TestOnUserCreated_NoEventTodayCreatesNothing(t *testing.T) {
	store := memstore.New()
	h := events.NewHandlers(store, strategies.GlobalRegistry)

	user := users.User{ID: 1, FirstName: "Grace", LastName: "Hopper", Timezone: "UTC"}
	user.BirthdayDate.Time = time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)

	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	h.OnUserCreated(t.Context(), user, now)

	assert.Empty(t, store.All())
}

func TestOnUserUpdated_TimezoneChangeReschedulesScheduledRow(t *testing.T) {
	store := memstore.New()
	h := events.NewHandlers(store, strategies.GlobalRegistry)

	oldUser := users.User{ID: 1, FirstName: "Grace", LastName: "Hopper", Timezone: "America/New_York"}
	oldUser.BirthdayDate.Time = time.Date(1990, time.July, 31, 0, 0, 0, 0, time.UTC)

	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	h.OnUserCreated(t.Context(), oldUser, now)
	require.Len(t, store.All(), 1)

	newUser := oldUser
	newUser.Timezone = "Asia/Tokyo"
	h.OnUserUpdated(t.Context(), oldUser, newUser, now)

	rows := store.All()
	require.Len(t, rows, 1, "reschedule updates the existing row, it does not create a second one")
	assert.Equal(t, messagelog.StatusScheduled, rows[0].Status)

	wantInstant, err := timezone.NineAmLocalToUtc(time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC), "Asia/Tokyo")
	require.NoError(t, err)
	assert.Equal(t, wantInstant, rows[0].ScheduledSendTime)
}

func TestOnUserDeleted_DeadlinesTodaysRows(t *testing.T) {
	store := memstore.New()
	h := events.NewHandlers(store, strategies.GlobalRegistry)

	user := users.User{ID: 1, FirstName: "Grace", LastName: "Hopper", Timezone: "UTC"}
	user.BirthdayDate.Time = time.Date(1990, time.July, 31, 0, 0, 0, 0, time.UTC)

	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	h.OnUserCreated(t.Context(), user, now)
	require.Len(t, store.All(), 1)

	h.OnUserDeleted(t.Context(), user.ID)

	rows := store.All()
	require.Len(t, rows, 1)
	assert.Equal(t, messagelog.StatusDead, rows[0].Status)
}
