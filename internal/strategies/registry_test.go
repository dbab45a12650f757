package strategies_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daybreak/internal/strategies"
	_ "daybreak/internal/strategies/builtin"
	"daybreak/internal/users"
)

func TestGlobalRegistry_HasBuiltinStrategies(t *testing.T) {
	types := strategies.GlobalRegistry.MessageTypes()
	assert.Contains(t, types, "BIRTHDAY")
	assert.Contains(t, types, "ANNIVERSARY")
}

type fakeStrategy struct{ messageType string }

func (f fakeStrategy) MessageType() string { return f.messageType }
func (f fakeStrategy) DateColumn() string  { return "fake_date" }
func (f fakeStrategy) RendersFor(users.User) string { return "fake" }
func (f fakeStrategy) TargetDate(_ users.User, today time.Time) time.Time { return today }
func (f fakeStrategy) EventDate(users.User) (time.Time, bool) { return time.Time{}, false }

func TestRegistry_Register_PanicsOnDuplicate(t *testing.T) {
	reg := strategies.NewRegistry()
	reg.Register(fakeStrategy{messageType: "DUPLICATE"})

	assert.Panics(t, func() {
		reg.Register(fakeStrategy{messageType: "DUPLICATE"})
	})
}

func TestBirthdayStrategy_RendersFor(t *testing.T) {
	s, ok := strategies.GlobalRegistry.Get("BIRTHDAY")
	require.True(t, ok)

	u := users.User{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, "Hey, Ada Lovelace it's your birthday", s.RendersFor(u))
}

func TestBirthdayStrategy_TargetDateIsToday(t *testing.T) {
	s, ok := strategies.GlobalRegistry.Get("BIRTHDAY")
	require.True(t, ok)

	today := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today, s.TargetDate(users.User{}, today))
}

func TestAnniversaryStrategy_DateColumn(t *testing.T) {
	s, ok := strategies.GlobalRegistry.Get("ANNIVERSARY")
	require.True(t, ok)
	assert.Equal(t, "anniversary_date", s.DateColumn())
}
