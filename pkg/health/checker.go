package health

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"daybreak/internal/queue/rabbitmq"
)

// probe wraps one dependency's ping into a timed ComponentHealth.
func probe(name string, check func() error) ComponentHealth {
	start := time.Now()
	h := ComponentHealth{Name: name, CheckedAt: start, Status: StatusHealthy}
	if err := check(); err != nil {
		h.Status = StatusUnhealthy
		h.Message = err.Error()
	}
	h.Latency = time.Since(start).Milliseconds()
	return h
}

// DatabaseChecker pings the message-log store's Postgres pool.
type DatabaseChecker struct {
	db *bun.DB
}

func NewDatabaseChecker(db *bun.DB) *DatabaseChecker {
	return &DatabaseChecker{db: db}
}

func (c *DatabaseChecker) Name() string { return "database" }

func (c *DatabaseChecker) Check(ctx context.Context) ComponentHealth {
	return probe(c.Name(), func() error {
		return c.db.DB.PingContext(ctx)
	})
}

// RedisChecker pings the client backing the TickLock and the user cache.
type RedisChecker struct {
	client *redis.Client
}

func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Name() string { return "redis" }

func (c *RedisChecker) Check(ctx context.Context) ComponentHealth {
	return probe(c.Name(), func() error {
		return c.client.Ping(ctx).Err()
	})
}

// RabbitMQChecker verifies the queue adapter's connection is still open.
// There is no AMQP-level ping; a live, unclosed connection is the signal.
type RabbitMQChecker struct {
	conn *rabbitmq.Connection
}

func NewRabbitMQChecker(conn *rabbitmq.Connection) *RabbitMQChecker {
	return &RabbitMQChecker{conn: conn}
}

func (c *RabbitMQChecker) Name() string { return "rabbitmq" }

func (c *RabbitMQChecker) Check(ctx context.Context) ComponentHealth {
	return probe(c.Name(), func() error {
		conn := c.conn.GetConnection()
		if conn == nil || conn.IsClosed() {
			return errConnClosed
		}
		return nil
	})
}

var errConnClosed = connClosedError{}

type connClosedError struct{}

func (connClosedError) Error() string { return "rabbitmq connection closed" }

// AggregateChecker fans out to every registered checker.
type AggregateChecker struct {
	checkers []Checker
}

func NewAggregateChecker(checkers ...Checker) *AggregateChecker {
	return &AggregateChecker{checkers: checkers}
}

func (c *AggregateChecker) CheckAll(ctx context.Context) map[string]ComponentHealth {
	results := make(map[string]ComponentHealth, len(c.checkers))
	for _, checker := range c.checkers {
		results[checker.Name()] = checker.Check(ctx)
	}
	return results
}
