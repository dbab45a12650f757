// Package events is the pipeline's ingress surface: three plain Go
// functions the external user-CRUD collaborator calls on create, update
// and delete. No HTTP and no routing layer — the callers own those.
package events

import (
	"context"
	"time"

	"daybreak/internal/messagelog"
	"daybreak/internal/scheduler"
	"daybreak/internal/strategies"
	"daybreak/internal/timezone"
	"daybreak/internal/users"
	"daybreak/pkg/logger"
	"daybreak/pkg/metrics"
)

// Handlers wires the ingress events to the message-log store and the
// strategy registry. It holds no scheduler/dispatcher/worker state — it
// only ever creates or mutates rows, the same primitives F, G and I use.
type Handlers struct {
	messageLogs messagelog.Store
	registry    *strategies.Registry
}

func NewHandlers(logStore messagelog.Store, registry *strategies.Registry) *Handlers {
	return &Handlers{messageLogs: logStore, registry: registry}
}

// OnUserCreated schedules the new user for today's event, for every
// registered strategy whose event date falls on today's UTC date — the
// same per-user step the Daily Pre-calc Scheduler runs in bulk, so a user
// created mid-day on their own birthday still gets today's greeting
// without waiting for tomorrow's 00:00 UTC run.
func (h *Handlers) OnUserCreated(ctx context.Context, user users.User, now time.Time) {
	h.scheduleAllStrategies(ctx, user, now)
}

// OnUserUpdated reacts to a timezone or event-date change by recomputing
// scheduledSendTime for any {SCHEDULED, ENQUEUED} row covering today's
// event. It also schedules the user for today if the update newly makes
// an event date land on today (e.g. an event date was just set for the
// first time).
func (h *Handlers) OnUserUpdated(ctx context.Context, oldUser, newUser users.User, now time.Time) {
	if oldUser.Timezone == newUser.Timezone &&
		oldUser.BirthdayDate.Time.Equal(newUser.BirthdayDate.Time) &&
		oldUser.AnniversaryDate.Time.Equal(newUser.AnniversaryDate.Time) {
		return
	}

	for _, messageType := range h.registry.MessageTypes() {
		strategy, ok := h.registry.Get(messageType)
		if !ok {
			continue
		}

		eventDate, ok := strategy.EventDate(newUser)
		if !ok {
			continue
		}
		isToday, err := timezone.IsEventToday(eventDate, "UTC", now)
		if err != nil {
			logger.WithContext(ctx).Errorf("events: onUserUpdated: %s: user %d: %v", messageType, newUser.ID, err)
			continue
		}
		if !isToday {
			continue
		}

		loc, err := time.LoadLocation(newUser.Timezone)
		if err != nil {
			logger.WithContext(ctx).Errorf("events: onUserUpdated: %s: user %d: %v", messageType, newUser.ID, err)
			continue
		}
		// Same scheduling day as ScheduleIfDueToday: now's UTC calendar date.
		day := now.UTC()
		todayInUserZone := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
		targetDate := strategy.TargetDate(newUser, todayInUserZone)

		newInstant, err := timezone.NineAmLocalToUtc(targetDate, newUser.Timezone)
		if err != nil {
			logger.WithContext(ctx).Errorf("events: onUserUpdated: %s: user %d: %v", messageType, newUser.ID, err)
			continue
		}

		// deliveryDate here must match the row's stored deliveryDate
		// (targetDate, the "today" this was scheduled for) — not the raw
		// stored event date, which for BIRTHDAY/ANNIVERSARY carries the
		// original year and would never match.
		if err := h.messageLogs.UpdateSchedule(ctx, newUser.ID, messageType, targetDate, newInstant); err != nil {
			logger.WithContext(ctx).Errorf("events: onUserUpdated: %s: updateSchedule user %d: %v", messageType, newUser.ID, err)
		}
	}

	// Cover the case where the event date changed to one that has no
	// existing row yet (e.g. set for the first time, today).
	h.scheduleAllStrategies(ctx, newUser, now)
}

// OnUserDeleted transitions userID's SCHEDULED, ENQUEUED and FAILED rows to
// DEAD with reason "user_removed". Rows in any other status (SENT, DEAD,
// SENDING) are untouched. The rows are not filtered by deliveryDate: open
// rows of any date are affected, not only today's.
func (h *Handlers) OnUserDeleted(ctx context.Context, userID int64) {
	affected, err := h.messageLogs.DeadlineTodaysRows(ctx, userID, scheduler.ReasonUserRemoved)
	if err != nil {
		logger.WithContext(ctx).Errorf("events: onUserDeleted: user %d: %v", userID, err)
		return
	}
	if affected > 0 {
		logger.WithContext(ctx).Infof("events: onUserDeleted: user %d: %d row(s) deadlined", userID, affected)
	}
}

func (h *Handlers) scheduleAllStrategies(ctx context.Context, user users.User, now time.Time) {
	for _, messageType := range h.registry.MessageTypes() {
		strategy, ok := h.registry.Get(messageType)
		if !ok {
			continue
		}

		err := scheduler.ScheduleIfDueToday(ctx, h.messageLogs, strategy, user, now)
		switch {
		case err == nil:
			metrics.MessagesScheduledTotal.Inc()
		case err == scheduler.ErrDuplicate, err == scheduler.ErrEventNotToday:
			// Nothing to log — both are expected outcomes here.
		default:
			logger.WithContext(ctx).Errorf("events: schedule %s for user %d failed: %v", messageType, user.ID, err)
		}
	}
}
