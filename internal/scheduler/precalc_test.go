package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daybreak/internal/messagelog/memstore"
	"daybreak/internal/scheduler"
	"daybreak/internal/strategies"
	_ "daybreak/internal/strategies/builtin"
	"daybreak/internal/users"
	"daybreak/internal/users/memusers"
)

func birthdayUser(id int64, tz string, m time.Month, d int) users.User {
	u := users.User{ID: id, FirstName: "User", LastName: "Test", Email: "u@example.com", Timezone: tz}
	u.BirthdayDate.Time = time.Date(1990, m, d, 0, 0, 0, 0, time.UTC)
	return u
}

func TestPrecalc_CreatesOneRowPerDueUser(t *testing.T) {
	store := memstore.New()
	userStore := memusers.New()
	userStore.Put(birthdayUser(1, "UTC", time.July, 31))
	userStore.Put(birthdayUser(2, "Asia/Tokyo", time.July, 31))
	userStore.Put(birthdayUser(3, "UTC", time.January, 1)) // not today

	p := scheduler.NewPrecalc(userStore, store, strategies.GlobalRegistry)
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	summary := p.Run(t.Context(), now)

	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 0, summary.Errored)
	assert.Len(t, store.All(), 2)
}

func TestPrecalc_SecondRunSameDayIsIdempotent(t *testing.T) {
	store := memstore.New()
	userStore := memusers.New()
	userStore.Put(birthdayUser(1, "UTC", time.July, 31))
	userStore.Put(birthdayUser(2, "America/New_York", time.July, 31))

	p := scheduler.NewPrecalc(userStore, store, strategies.GlobalRegistry)
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	first := p.Run(t.Context(), now)
	require.Equal(t, 2, first.Created)

	second := p.Run(t.Context(), now)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Duplicate, "every user counts as a duplicate on the second pass")
	assert.Len(t, store.All(), 2, "row set unchanged after the second run")
}

func TestPrecalc_InvalidZoneCountsAsErrorAndDoesNotAbortRun(t *testing.T) {
	store := memstore.New()
	userStore := memusers.New()
	userStore.Put(birthdayUser(1, "Not/AZone", time.July, 31))
	userStore.Put(birthdayUser(2, "UTC", time.July, 31))

	p := scheduler.NewPrecalc(userStore, store, strategies.GlobalRegistry)
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	summary := p.Run(t.Context(), now)

	assert.Equal(t, 1, summary.Created, "the valid user is still scheduled")
	assert.Equal(t, 1, summary.Errored)
	assert.Len(t, store.All(), 1)
}
