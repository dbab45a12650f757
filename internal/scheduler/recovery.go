package scheduler

import (
	"context"
	"errors"
	"time"

	"daybreak/internal/messagelog"
	"daybreak/internal/queue"
	"daybreak/pkg/logger"
	"daybreak/pkg/metrics"
)

// RecoveryConfig carries the four sweep rules' threshold knobs.
type RecoveryConfig struct {
	Grace         time.Duration // (a) stale SCHEDULED, default 2m
	StuckEnqueued time.Duration // (b) stuck ENQUEUED, default 15m
	StaleSending  time.Duration // (c) stale SENDING, default 5m
	MaxRetries    int
	Limit         int
}

func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		Grace:         2 * time.Minute,
		StuckEnqueued: 15 * time.Minute,
		StaleSending:  5 * time.Minute,
		MaxRetries:    5,
		Limit:         1000,
	}
}

// Recovery is the recovery sweeper: on every tick (and once at startup)
// it detects rows stuck in a non-terminal state and moves them back to a
// re-entrant one, all through CAS so concurrent sweeper instances never
// double-act.
type Recovery struct {
	messageLogs messagelog.Store
	publisher   queue.Publisher
	config      RecoveryConfig

	flag runningFlag
	lock *TickLock
}

func NewRecovery(logStore messagelog.Store, publisher queue.Publisher, config RecoveryConfig) *Recovery {
	return &Recovery{messageLogs: logStore, publisher: publisher, config: config}
}

// WithTickLock attaches a distributed tick lock, same contract as
// Dispatcher.WithTickLock.
func (r *Recovery) WithTickLock(lock *TickLock) *Recovery {
	r.lock = lock
	return r
}

// RecoverySummary is I's per-tick tally, one counter per sub-rule.
type RecoverySummary struct {
	StaleScheduledRequeued int
	StuckEnqueuedReset     int
	StaleSendingRequeued   int
	FailedRequeued         int
}

func (r *Recovery) Run(ctx context.Context, now time.Time) RecoverySummary {
	if !r.flag.tryStart() {
		logger.WithContext(ctx).Warn("recovery: skipped, previous sweep still in flight")
		return RecoverySummary{}
	}
	defer r.flag.done()

	if !r.lock.ForTick(now).TryAcquire(ctx) {
		logger.WithContext(ctx).Debug("recovery: tick lock lost to another replica, skipping")
		return RecoverySummary{}
	}

	var summary RecoverySummary
	summary.StaleScheduledRequeued = r.sweepStaleScheduled(ctx, now)
	summary.StuckEnqueuedReset = r.sweepStuckEnqueued(ctx, now)
	summary.StaleSendingRequeued = r.sweepStaleSending(ctx, now)
	summary.FailedRequeued = r.sweepFailedRetryCandidates(ctx, now)

	logger.WithContext(ctx).Infof(
		"recovery: sweep complete staleScheduled=%d stuckEnqueued=%d staleSending=%d failedRetry=%d",
		summary.StaleScheduledRequeued, summary.StuckEnqueuedReset, summary.StaleSendingRequeued, summary.FailedRequeued)
	return summary
}

// sweepStaleScheduled is rule (a): a row never picked up by the dispatcher
// within grace of its due time is re-enqueued directly.
func (r *Recovery) sweepStaleScheduled(ctx context.Context, now time.Time) int {
	rows, err := r.messageLogs.FindStaleScheduled(ctx, now, r.config.Grace, r.config.MaxRetries, r.config.Limit)
	if err != nil {
		logger.WithContext(ctx).Errorf("recovery: findStaleScheduled failed: %v", err)
		return 0
	}

	n := 0
	for _, row := range rows {
		if r.enqueueFrom(ctx, row, messagelog.StatusScheduled, now, "stale_scheduled") {
			n++
		}
	}
	return n
}

// sweepStuckEnqueued is rule (b): a row ENQUEUED but never leased by a
// worker (crash between dispatcher publish and worker lease, or a publish
// that silently failed) is moved back to SCHEDULED so the next dispatcher
// tick re-enqueues it cleanly.
func (r *Recovery) sweepStuckEnqueued(ctx context.Context, now time.Time) int {
	rows, err := r.messageLogs.FindStuckEnqueued(ctx, now, r.config.StuckEnqueued, r.config.Limit)
	if err != nil {
		logger.WithContext(ctx).Errorf("recovery: findStuckEnqueued failed: %v", err)
		return 0
	}

	n := 0
	for _, row := range rows {
		err := r.messageLogs.TransitionStatus(ctx, row.ID, messagelog.StatusEnqueued, messagelog.StatusScheduled, messagelog.Updates{})
		if err != nil {
			if !errors.Is(err, messagelog.ErrConcurrencyLost) {
				logger.WithContext(ctx).Errorf("recovery: reset stuck-enqueued row %d failed: %v", row.ID, err)
			}
			continue
		}
		n++
	}
	return n
}

// sweepStaleSending is rule (c): a row stuck SENDING past staleSendingSec —
// the worker that claimed it died before resolving the attempt — is moved
// to FAILED and re-enqueued.
func (r *Recovery) sweepStaleSending(ctx context.Context, now time.Time) int {
	rows, err := r.messageLogs.FindStaleSending(ctx, now, r.config.StaleSending, r.config.Limit)
	if err != nil {
		logger.WithContext(ctx).Errorf("recovery: findStaleSending failed: %v", err)
		return 0
	}

	n := 0
	for _, row := range rows {
		if err := r.messageLogs.TransitionStatus(ctx, row.ID, messagelog.StatusSending, messagelog.StatusFailed, messagelog.Updates{}); err != nil {
			if !errors.Is(err, messagelog.ErrConcurrencyLost) {
				logger.WithContext(ctx).Errorf("recovery: transition stale-sending row %d to FAILED failed: %v", row.ID, err)
			}
			continue
		}
		row.Status = messagelog.StatusFailed
		if r.enqueueFrom(ctx, row, messagelog.StatusFailed, now, "stale_sending") {
			n++
		}
	}
	return n
}

// sweepFailedRetryCandidates is rule (d): a FAILED row whose outer
// backoff window has elapsed is re-enqueued. nextRetryDue is computed
// here, not in the store, since it depends on the outer-backoff formula.
func (r *Recovery) sweepFailedRetryCandidates(ctx context.Context, now time.Time) int {
	rows, err := r.messageLogs.FindFailedRetryCandidates(ctx, r.config.MaxRetries, r.config.Limit)
	if err != nil {
		logger.WithContext(ctx).Errorf("recovery: findFailedRetryCandidates failed: %v", err)
		return 0
	}

	n := 0
	for _, row := range rows {
		if row.LastAttemptAt.IsZero() {
			continue
		}
		if nextRetryDue(row.LastAttemptAt.Time, row.RetryCount).After(now) {
			continue
		}
		if r.enqueueFrom(ctx, row, messagelog.StatusFailed, now, "failed_retry") {
			n++
		}
	}
	return n
}

// enqueueFrom CAS-transitions row from `from` to ENQUEUED and publishes
// it with the delay remaining until scheduledSendTime (zero for rows
// already overdue), mirroring the dispatcher's own enqueue step so
// re-enqueueing here behaves exactly like a first enqueue.
func (r *Recovery) enqueueFrom(ctx context.Context, row *messagelog.Row, from messagelog.Status, now time.Time, rule string) bool {
	if err := r.messageLogs.TransitionStatus(ctx, row.ID, from, messagelog.StatusEnqueued, messagelog.Updates{}); err != nil {
		if !errors.Is(err, messagelog.ErrConcurrencyLost) {
			logger.WithContext(ctx).Errorf("recovery: enqueue row %d from %s failed: %v", row.ID, from, err)
		}
		return false
	}

	delay := row.ScheduledSendTime.Sub(now)
	if delay < 0 {
		delay = 0
	}
	if err := r.publisher.Publish(ctx, queue.Payload{MessageLogID: row.ID, Attempt: row.RetryCount}, delay.Milliseconds()); err != nil {
		logger.WithContext(ctx).Errorf("recovery: publish row %d failed: %v", row.ID, err)
	}
	metrics.RecoveryRequeuedTotal.WithLabelValues(rule).Inc()
	return true
}
