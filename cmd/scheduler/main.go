// Command scheduler runs the daily pre-calc, the minute dispatcher and
// the recovery sweeper as one process's cooperative tasks. These three
// need only one replica (or a few, coordinated through TickLock), unlike
// the worker pool, which scales out separately behind the queue.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"

	"daybreak/config"
	"daybreak/internal/infra"
	"daybreak/internal/messagelog"
	"daybreak/internal/queue/rabbitmq"
	"daybreak/internal/scheduler"
	"daybreak/internal/strategies"
	_ "daybreak/internal/strategies/builtin"
	"daybreak/internal/users"
	"daybreak/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

func main() {
	injector := do.New()

	e := echo.New()
	cfg := config.LoadConfig(e)
	logger.Init(cfg.App.Debug, cfg.Log.Pretty)

	infra.Setup(injector, cfg)

	db := do.MustInvoke[*bun.DB](injector)
	redisClient := do.MustInvoke[*redis.Client](injector)
	queueConn := do.MustInvoke[*rabbitmq.Connection](injector)

	userStore := users.NewBunStore(db)
	logStore := messagelog.NewBunStore(db)
	producer, err := rabbitmq.NewProducer(queueConn, cfg.Queue)
	if err != nil {
		logger.Fatalf("scheduler: failed to create producer: %v", err)
	}
	defer producer.Close()

	schedCfg := cfg.Scheduler
	recoveryCfg := scheduler.RecoveryConfig{
		Grace:         schedCfg.Grace(),
		StuckEnqueued: time.Duration(schedCfg.StuckEnqueuedSec) * time.Second,
		StaleSending:  time.Duration(schedCfg.StaleSendingSec) * time.Second,
		MaxRetries:    schedCfg.MaxRetries,
		Limit:         schedCfg.DispatchBatchLimit,
	}

	precalc := scheduler.NewPrecalc(userStore, logStore, strategies.GlobalRegistry).
		WithTickLock(scheduler.NewTickLock(redisClient, "lock:precalc", 23*time.Hour))
	dispatcher := scheduler.NewDispatcher(logStore, producer, schedCfg.DispatchHorizon(), schedCfg.DispatchBatchLimit).
		WithTickLock(scheduler.NewTickLock(redisClient, "lock:dispatcher", 50*time.Second))
	recovery := scheduler.NewRecovery(logStore, producer, recoveryCfg).
		WithTickLock(scheduler.NewTickLock(redisClient, "lock:recovery", schedCfg.RecoveryInterval()-10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	precalcCtx := logger.ContextWith(ctx, map[string]string{"task": "precalc"})
	dispatchCtx := logger.ContextWith(ctx, map[string]string{"task": "dispatcher"})
	recoveryCtx := logger.ContextWith(ctx, map[string]string{"task": "recovery"})

	logger.Infof("scheduler: startup run")
	precalc.Run(precalcCtx, time.Now().UTC())
	dispatcher.Run(dispatchCtx, time.Now().UTC())
	recovery.Run(recoveryCtx, time.Now().UTC())

	go runTicker(precalcCtx, 24*time.Hour, func(now time.Time) { precalc.Run(precalcCtx, now) })
	go runTicker(dispatchCtx, schedCfg.DispatchInterval(), func(now time.Time) { dispatcher.Run(dispatchCtx, now) })
	go runTicker(recoveryCtx, schedCfg.RecoveryInterval(), func(now time.Time) { recovery.Run(recoveryCtx, now) })

	<-ctx.Done()
	logger.Infof("scheduler: shutdown signal received")

	// No in-flight tick is forcibly aborted here — a tick interrupted
	// mid-way leaves rows in a non-terminal state that the recovery
	// sweeper reclaims on the next process's startup run. There is
	// nothing this process itself needs to wait out.
	injector.Shutdown()
	logger.Infof("scheduler: goodbye")
}

// runTicker fires fn once per interval, aligned to wall-clock interval
// boundaries, until ctx is cancelled.
func runTicker(ctx context.Context, interval time.Duration, fn func(now time.Time)) {
	first := time.Now().Truncate(interval).Add(interval)
	select {
	case <-ctx.Done():
		return
	case now := <-time.After(time.Until(first)):
		fn(now.UTC())
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			fn(now.UTC())
		}
	}
}
