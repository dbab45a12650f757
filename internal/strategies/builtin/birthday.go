package builtin

import (
	"fmt"
	"time"

	"daybreak/internal/strategies"
	"daybreak/internal/users"
)

// BirthdayStrategy is the built-in strategy for the "BIRTHDAY" occasion.
type BirthdayStrategy struct{}

func (BirthdayStrategy) MessageType() string { return "BIRTHDAY" }

func (BirthdayStrategy) DateColumn() string { return "birthday_date" }

// RendersFor renders the birthday greeting. The wording is part of the
// delivery contract with downstream consumers; changing it is a breaking
// change, not copy-editing.
func (BirthdayStrategy) RendersFor(user users.User) string {
	return fmt.Sprintf("Hey, %s %s it's your birthday", user.FirstName, user.LastName)
}

func (BirthdayStrategy) TargetDate(_ users.User, todayInUserZone time.Time) time.Time {
	return todayInUserZone
}

func (BirthdayStrategy) EventDate(user users.User) (time.Time, bool) {
	if user.BirthdayDate.IsZero() {
		return time.Time{}, false
	}
	return user.BirthdayDate.Time, true
}

func init() {
	strategies.GlobalRegistry.Register(BirthdayStrategy{})
}
