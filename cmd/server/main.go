// Command server is the admin/observability process: the echo-based
// /health family (pkg/health), /metrics for Prometheus scraping
// (pkg/metrics.Registry), and the queue_depth gauge's background poller.
// It holds no pipeline logic of its own — the schedulers live in
// cmd/scheduler, the worker pool in cmd/worker — it only watches them.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do/v2"

	"daybreak/config"
	"daybreak/internal/infra"
	"daybreak/internal/queue/rabbitmq"
	"daybreak/pkg/health"
	"daybreak/pkg/logger"
	"daybreak/pkg/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

func main() {
	injector := do.New()

	e := echo.New()
	cfg := config.LoadConfig(e)
	logger.Init(cfg.App.Debug, cfg.Log.Pretty)

	// Tags every request (and its log lines, via logger.WithContext) with a
	// stable id so a /health or /metrics scrape can be correlated across
	// this process's logs even though nothing downstream calls back with it.
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
		RequestIDHandler: func(c echo.Context, id string) {
			ctx := context.WithValue(c.Request().Context(), echo.HeaderXRequestID, id)
			c.SetRequest(c.Request().WithContext(ctx))
		},
	}))

	infra.Setup(injector, cfg)

	db := do.MustInvoke[*bun.DB](injector)
	redisClient := do.MustInvoke[*redis.Client](injector)
	queueConn := do.MustInvoke[*rabbitmq.Connection](injector)

	startedAt := time.Now()

	checker := health.NewAggregateChecker(
		health.NewDatabaseChecker(db),
		health.NewRedisChecker(redisClient),
		health.NewRabbitMQChecker(queueConn),
	)

	e.GET("/health/live", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "live"})
	})

	e.GET("/health/ready", func(c echo.Context) error {
		results := checker.CheckAll(c.Request().Context())
		status := health.StatusHealthy
		for _, h := range results {
			if h.Status != health.StatusHealthy {
				status = health.StatusUnhealthy
				break
			}
		}
		code := http.StatusOK
		if status != health.StatusHealthy {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, health.HealthResponse{
			Status:     status,
			Version:    cfg.App.Version,
			Uptime:     time.Since(startedAt).Seconds(),
			Components: results,
			Timestamp:  time.Now(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		results := checker.CheckAll(c.Request().Context())
		return c.JSON(http.StatusOK, health.HealthResponse{
			Status:     health.StatusHealthy,
			Version:    cfg.App.Version,
			Uptime:     time.Since(startedAt).Seconds(),
			Components: results,
			Timestamp:  time.Now(),
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go rabbitmq.PollDepth(ctx, queueConn, cfg.Queue, 5*time.Second)

	e.Server.ReadTimeout = time.Duration(cfg.Http.Timeout) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.Http.Timeout) * time.Second

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Http.Port)
		logger.Infof("server: listening on %s", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Errorf("server: shut down: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("server: shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.GracefulShutdown())
	defer cancel()
	_ = e.Shutdown(shutdownCtx)

	injector.Shutdown()
	logger.Infof("server: goodbye")
}
