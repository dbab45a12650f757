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

// Dispatcher is the minute dispatcher: every tick it promotes SCHEDULED
// rows due within its horizon to the durable queue, CAS-guarding the
// SCHEDULED→ENQUEUED move so that replicated dispatcher instances never
// double-enqueue the same row.
type Dispatcher struct {
	messageLogs messagelog.Store
	publisher   queue.Publisher

	horizon time.Duration
	limit   int

	flag runningFlag
	lock *TickLock
}

func NewDispatcher(logStore messagelog.Store, publisher queue.Publisher, horizon time.Duration, limit int) *Dispatcher {
	return &Dispatcher{messageLogs: logStore, publisher: publisher, horizon: horizon, limit: limit}
}

// WithTickLock attaches a distributed tick lock so that, when this
// dispatcher is replicated, only one instance acts per tick. Nil is a valid,
// no-op value — every instance then relies solely on the per-process
// runningFlag and the store's own CAS transitions for correctness.
func (d *Dispatcher) WithTickLock(lock *TickLock) *Dispatcher {
	d.lock = lock
	return d
}

// DispatchSummary is G's per-tick tally.
type DispatchSummary struct {
	Enqueued int
	Skipped  int
}

// Run executes one dispatch tick. A tick that arrives while a previous
// one is still in flight is skipped outright — the next tick a minute
// later covers the same due rows.
func (d *Dispatcher) Run(ctx context.Context, now time.Time) DispatchSummary {
	if !d.flag.tryStart() {
		logger.WithContext(ctx).Warn("dispatcher: skipped, previous tick still in flight")
		return DispatchSummary{}
	}
	defer d.flag.done()

	if !d.lock.ForTick(now).TryAcquire(ctx) {
		logger.WithContext(ctx).Debug("dispatcher: tick lock lost to another replica, skipping")
		return DispatchSummary{}
	}

	var summary DispatchSummary

	batch, err := d.messageLogs.FindDueForEnqueue(ctx, now, d.horizon, d.limit)
	if err != nil {
		logger.WithContext(ctx).Errorf("dispatcher: findDueForEnqueue failed: %v", err)
		return summary
	}

	for _, row := range batch {
		if d.enqueueOne(ctx, row, now) {
			summary.Enqueued++
		} else {
			summary.Skipped++
		}
	}

	logger.WithContext(ctx).Infof("dispatcher: tick complete enqueued=%d skipped=%d", summary.Enqueued, summary.Skipped)
	return summary
}

// enqueueOne CAS-transitions one row SCHEDULED→ENQUEUED and, on success,
// publishes it with the delay remaining until scheduledSendTime. A lost
// CAS (another dispatcher instance already grabbed it) is reported as
// skipped, not an error. A publish failure is logged and the row is left
// ENQUEUED — it does not revert to SCHEDULED here, since the recovery
// sweeper's stuck-ENQUEUED rule already exists to re-home a row that
// never made it onto the queue.
func (d *Dispatcher) enqueueOne(ctx context.Context, row *messagelog.Row, now time.Time) bool {
	err := d.messageLogs.TransitionStatus(ctx, row.ID, messagelog.StatusScheduled, messagelog.StatusEnqueued, messagelog.Updates{})
	if err != nil {
		if errors.Is(err, messagelog.ErrConcurrencyLost) {
			return false
		}
		logger.WithContext(ctx).Errorf("dispatcher: transition row %d failed: %v", row.ID, err)
		return false
	}

	delay := row.ScheduledSendTime.Sub(now)
	if delay < 0 {
		delay = 0
	}

	if err := d.publisher.Publish(ctx, queue.Payload{MessageLogID: row.ID, Attempt: 0}, delay.Milliseconds()); err != nil {
		logger.WithContext(ctx).Errorf("dispatcher: publish row %d failed: %v", row.ID, err)
	}
	metrics.MessagesEnqueuedTotal.Inc()
	return true
}
