// Command worker runs the worker pool: consumes deliveries off the
// durable work queue and drives each one through the email sender behind
// a circuit breaker. Scales out horizontally —
// many replicas share the same RabbitMQ prefetch budget, unlike the
// scheduler process's cooperative, TickLock-coordinated tasks.
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
	"daybreak/internal/infra/cache"
	"daybreak/internal/messagelog"
	"daybreak/internal/queue/rabbitmq"
	"daybreak/internal/scheduler"
	"daybreak/internal/sender"
	"daybreak/internal/sender/circuitbreaker"
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

	logStore := messagelog.NewBunStore(db)
	userStore := users.NewCachedStore(users.NewBunStore(db), cache.NewCache(redisClient), 30*time.Second)

	breaker := circuitbreaker.New(cfg.Sender.ToBreakerConfig())
	snd := sender.New(cfg.Sender.ToSenderConfig(), breaker)

	// worker.worker_count/worker_prefetch take precedence over the queue
	// package's own topology-level defaults for this process's consumer.
	queueCfg := cfg.Queue
	queueCfg.WorkerPoolSize = cfg.Worker.WorkerCount
	queueCfg.PrefetchCount = cfg.Worker.WorkerPrefetch

	consumer, err := rabbitmq.NewConsumer(queueConn, queueCfg)
	if err != nil {
		logger.Fatalf("worker: failed to create consumer: %v", err)
	}
	defer consumer.Close()

	producer, err := rabbitmq.NewProducer(queueConn, cfg.Queue)
	if err != nil {
		logger.Fatalf("worker: failed to create producer: %v", err)
	}
	defer producer.Close()

	pool := scheduler.NewWorkerPool(logStore, userStore, snd, producer, cfg.Scheduler.MaxRetries)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	consumeCtx := logger.ContextWith(ctx, map[string]string{"task": "worker"})

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		logger.Infof("worker: consuming from %q", cfg.Queue.Queue)
		if err := consumer.Consume(consumeCtx, pool.Handle); err != nil && ctx.Err() == nil {
			logger.Errorf("worker: consume loop exited: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("worker: shutdown signal received, draining in-flight deliveries")

	// Consume returns once every worker slot has finished its current
	// delivery. Rows abandoned past the drain window stay in SENDING and
	// are reclaimed by the recovery sweeper on the next scheduler start.
	select {
	case <-drained:
	case <-time.After(cfg.Scheduler.GracefulShutdown()):
		logger.Warnf("worker: drain window elapsed with deliveries still in flight")
	}

	injector.Shutdown()
	logger.Infof("worker: goodbye")
}
