// Package strategies is the Message Strategies registry (component J): each
// occasion (birthday, anniversary, ...) is a Strategy that knows how to
// render its content and compute its target send date. New occasions are
// added by registering a strategy; the scheduler, dispatcher and worker pool
// never change.
package strategies

import (
	"time"

	"daybreak/internal/users"
)

// Strategy is one occasion variant.
type Strategy interface {
	// MessageType is the row's messageType discriminator, e.g. "BIRTHDAY".
	MessageType() string

	// DateColumn names the users.Store column this occasion is keyed off,
	// e.g. "birthday_date". It is the wiring detail that lets the Daily
	// Pre-calc Scheduler ask users.Store.UsersWithEventToday for exactly
	// the candidates this strategy cares about.
	DateColumn() string

	// RendersFor renders the message content for one user.
	RendersFor(user users.User) string

	// TargetDate returns the calendar date whose 09:00 local is the send
	// instant. For BIRTHDAY and ANNIVERSARY this is todayInUserZone
	// unchanged; future variants (e.g. day-before reminders) may shift it.
	TargetDate(user users.User, todayInUserZone time.Time) time.Time

	// EventDate returns the raw stored date this occasion is keyed off
	// (user.BirthdayDate or user.AnniversaryDate) and whether it is set.
	// The scheduler uses it together with the timezone engine's
	// IsEventToday to confirm a broad candidate row is actually due today
	// in the user's own zone.
	EventDate(user users.User) (date time.Time, ok bool)
}
