// Package infra wires the pipeline's three external dependencies — the
// Postgres/bun store, the Redis client backing TickLock and the user
// cache, and the RabbitMQ connection backing the queue adapter — into a
// samber/do/v2 injector shared by the three binaries.
package infra

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
	"github.com/uptrace/bun"

	"daybreak/config"
	"daybreak/internal/infra/cache"
	"daybreak/internal/infra/database"
	"daybreak/internal/queue/rabbitmq"
)

func Setup(injector do.Injector, cfg *config.Config) {
	do.ProvideValue(injector, cfg)

	do.Provide(injector, provideDatabase(cfg))
	do.Provide(injector, provideCache(cfg))
	do.Provide(injector, provideQueueConnection(cfg))
}

func provideDatabase(cfg *config.Config) func(do.Injector) (*bun.DB, error) {
	return func(i do.Injector) (*bun.DB, error) {
		db, err := database.NewBunClient(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
		return db, nil
	}
}

func provideCache(cfg *config.Config) func(do.Injector) (*redis.Client, error) {
	return func(i do.Injector) (*redis.Client, error) {
		return cache.New(cfg.Cache), nil
	}
}

func provideQueueConnection(cfg *config.Config) func(do.Injector) (*rabbitmq.Connection, error) {
	return func(i do.Injector) (*rabbitmq.Connection, error) {
		conn, err := rabbitmq.Connect(cfg.Queue)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		if err := rabbitmq.SetupTopology(conn, cfg.Queue); err != nil {
			return nil, fmt.Errorf("failed to set up rabbitmq topology: %w", err)
		}
		return conn, nil
	}
}
