package scheduler

import (
	"context"
	"time"

	"daybreak/internal/messagelog"
	"daybreak/internal/strategies"
	"daybreak/internal/timezone"
	"daybreak/internal/users"
)

// ErrDuplicate means a row for this (user, messageType, deliveryDate)
// already exists — not an error, just a no-op.
var ErrDuplicate = errDuplicateType{}

type errDuplicateType struct{}

func (errDuplicateType) Error() string { return "message log row already exists" }

// ErrEventNotToday means the candidate's event does not fall on now's UTC
// calendar date. The candidate query over-selects (a +/-14h window around
// now), so this is the expected per-row rejection.
var ErrEventNotToday = errEventNotTodayType{}

type errEventNotTodayType struct{}

func (errEventNotTodayType) Error() string { return "event does not fall on today's date" }

// ScheduleIfDueToday is the single-user scheduling step both the daily
// pre-calc (a broad sweep) and OnUserCreated/OnUserUpdated (a one-user
// reaction) run: confirm the strategy's event date falls on now's UTC
// calendar date, compute the 09:00-local send instant on that date in the
// user's own zone, render content once, and pre-create the row guarded by
// the unique idempotencyKey. A run at 00:00 UTC therefore covers every
// user whose event is that day, whatever their zone.
func ScheduleIfDueToday(ctx context.Context, logStore messagelog.Store, strategy strategies.Strategy, user users.User, now time.Time) error {
	eventDate, ok := strategy.EventDate(user)
	if !ok {
		return ErrEventNotToday
	}

	loc, err := time.LoadLocation(user.Timezone)
	if err != nil {
		return &timezone.ErrInvalidZone{Zone: user.Timezone, Err: err}
	}

	day := now.UTC()
	isToday, err := timezone.IsEventToday(eventDate, "UTC", day)
	if err != nil {
		return err
	}
	if !isToday {
		return ErrEventNotToday
	}
	todayInUserZone := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

	targetDate := strategy.TargetDate(user, todayInUserZone)

	sendInstant, err := timezone.NineAmLocalToUtc(targetDate, user.Timezone)
	if err != nil {
		return err
	}

	content := strategy.RendersFor(user)
	key := messagelog.IdempotencyKey(user.ID, strategy.MessageType(), targetDate)

	row := &messagelog.Row{
		UserID:            user.ID,
		MessageType:       strategy.MessageType(),
		ScheduledSendTime: sendInstant,
		DeliveryDate:      targetDate,
		Status:            messagelog.StatusScheduled,
		IdempotencyKey:    key,
		MessageContent:    content,
	}

	created, err := logStore.CreateIfAbsent(ctx, row)
	if err != nil {
		return err
	}
	if !created {
		return ErrDuplicate
	}
	return nil
}
