// Package scheduler holds the cooperating long-lived tasks that sit above
// the message-log store — the daily pre-calc, the minute dispatcher and
// the recovery sweeper — plus the worker pool's per-delivery handler. Each
// scheduler runs as a single cooperative task per process, gated by a
// runningFlag so a slow tick can never overlap itself.
package scheduler

import (
	"context"
	"time"

	"daybreak/internal/messagelog"
	"daybreak/internal/strategies"
	"daybreak/internal/users"
	"daybreak/pkg/logger"
	"daybreak/pkg/metrics"
)

// Precalc is the daily pre-calc scheduler: once per 24h at 00:00 UTC,
// plus once on process startup, it streams every occasion's candidate
// users and pre-creates their message-log rows.
type Precalc struct {
	users       users.Store
	messageLogs messagelog.Store
	registry    *strategies.Registry

	flag runningFlag
	lock *TickLock
}

func NewPrecalc(userStore users.Store, logStore messagelog.Store, registry *strategies.Registry) *Precalc {
	return &Precalc{users: userStore, messageLogs: logStore, registry: registry}
}

// WithTickLock attaches a distributed tick lock, same contract as
// Dispatcher.WithTickLock — precalc runs once daily so the race window is
// small, but a startup run racing across replicas is exactly what this
// guards against.
func (p *Precalc) WithTickLock(lock *TickLock) *Precalc {
	p.lock = lock
	return p
}

// RunSummary is F's per-run tally, logged as a single summary line.
type RunSummary struct {
	Created   int
	Duplicate int
	Errored   int
}

// Run executes one pass over every registered strategy. It is safe to call
// concurrently; a call that arrives while another is in flight is skipped
// entirely rather than queued, since the next tick (or startup run) will
// cover the same ground idempotently.
func (p *Precalc) Run(ctx context.Context, now time.Time) RunSummary {
	if !p.flag.tryStart() {
		logger.WithContext(ctx).Warn("precalc: skipped, previous run still in flight")
		return RunSummary{}
	}
	defer p.flag.done()

	if !p.lock.ForTick(now).TryAcquire(ctx) {
		logger.WithContext(ctx).Debug("precalc: tick lock lost to another replica, skipping")
		return RunSummary{}
	}

	var summary RunSummary
	for _, messageType := range p.registry.MessageTypes() {
		strategy, ok := p.registry.Get(messageType)
		if !ok {
			continue
		}
		s := p.runStrategy(ctx, strategy, now)
		summary.Created += s.Created
		summary.Duplicate += s.Duplicate
		summary.Errored += s.Errored
	}

	logger.WithContext(ctx).Infof("precalc: run complete created=%d duplicate=%d errored=%d",
		summary.Created, summary.Duplicate, summary.Errored)
	return summary
}

func (p *Precalc) runStrategy(ctx context.Context, strategy strategies.Strategy, now time.Time) RunSummary {
	var summary RunSummary

	rows, err := p.users.UsersWithEventToday(ctx, strategy.DateColumn(), now)
	if err != nil {
		logger.WithContext(ctx).Errorf("precalc: %s: usersWithEventToday failed: %v", strategy.MessageType(), err)
		summary.Errored++
		return summary
	}

	for result := range rows {
		if result.Err != nil {
			logger.WithContext(ctx).Errorf("precalc: %s: row scan error: %v", strategy.MessageType(), result.Err)
			summary.Errored++
			continue
		}

		err := ScheduleIfDueToday(ctx, p.messageLogs, strategy, result.User, now)
		switch {
		case err == nil:
			summary.Created++
			metrics.MessagesScheduledTotal.Inc()
		case err == ErrDuplicate:
			summary.Duplicate++
		case err == ErrEventNotToday:
			// The candidate query over-selects across zones; a
			// per-row rejection here is expected, not an error.
		default:
			logger.WithContext(ctx).Errorf("precalc: %s: user %d: %v", strategy.MessageType(), result.User.ID, err)
			summary.Errored++
		}
	}

	return summary
}
