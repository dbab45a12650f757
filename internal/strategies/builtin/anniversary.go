package builtin

import (
	"fmt"
	"time"

	"daybreak/internal/strategies"
	"daybreak/internal/users"
)

// AnniversaryStrategy is the built-in strategy for the "ANNIVERSARY"
// occasion. Unlike BIRTHDAY's contractual wording, this variant's content
// string is our own choice.
type AnniversaryStrategy struct{}

func (AnniversaryStrategy) MessageType() string { return "ANNIVERSARY" }

func (AnniversaryStrategy) DateColumn() string { return "anniversary_date" }

func (AnniversaryStrategy) RendersFor(user users.User) string {
	return fmt.Sprintf("Hey, %s %s happy anniversary", user.FirstName, user.LastName)
}

func (AnniversaryStrategy) TargetDate(_ users.User, todayInUserZone time.Time) time.Time {
	return todayInUserZone
}

func (AnniversaryStrategy) EventDate(user users.User) (time.Time, bool) {
	if user.AnniversaryDate.IsZero() {
		return time.Time{}, false
	}
	return user.AnniversaryDate.Time, true
}

func init() {
	strategies.GlobalRegistry.Register(AnniversaryStrategy{})
}
