package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"daybreak/internal/queue"
	"daybreak/pkg/logger"
)

// Consumer drains the work queue with a fixed goroutine pool sharing one
// delivery channel. A handler returning queue.ErrDeadLetter gets Nack'd
// without requeue, which the broker routes to the DLQ via the work queue's
// x-dead-letter-exchange argument (topology.go); any other handler error
// requeues.
type Consumer struct {
	connection *Connection
	config     Config
	channel    *amqp.Channel
	mu         sync.Mutex
}

func NewConsumer(connection *Connection, config Config) (*Consumer, error) {
	c := &Consumer{connection: connection, config: config}
	if err := c.setup(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Consumer) setup() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, err := c.connection.GetConnection().Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}

	if err := ch.Qos(c.config.PrefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	c.channel = ch
	return nil
}

func (c *Consumer) Consume(ctx context.Context, handler queue.ConsumeFunc) error {
	c.mu.Lock()
	deliveries, err := c.channel.Consume(
		c.config.Queue,
		c.config.ConsumerTag,
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to start consuming from %s: %w", c.config.Queue, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < c.config.WorkerPoolSize; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case delivery, ok := <-deliveries:
					if !ok {
						return
					}
					c.handleOne(ctx, workerID, delivery, handler)
				}
			}
		}(i)
	}

	wg.Wait()
	return nil
}

func (c *Consumer) handleOne(ctx context.Context, workerID int, delivery amqp.Delivery, handler queue.ConsumeFunc) {
	err := handler(ctx, delivery.Body)
	switch {
	case err == nil:
		if ackErr := delivery.Ack(false); ackErr != nil {
			logger.Errorf("worker #%d: ack failed: %v", workerID, ackErr)
		}
	case errors.Is(err, queue.ErrDeadLetter):
		if nackErr := delivery.Nack(false, false); nackErr != nil {
			logger.Errorf("worker #%d: dead-letter nack failed: %v", workerID, nackErr)
		}
	default:
		logger.Errorf("worker #%d: handler error, requeuing: %v", workerID, err)
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			logger.Errorf("worker #%d: requeue nack failed: %v", workerID, nackErr)
		}
	}
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel.Close()
	}
	return nil
}

var _ queue.Consumer = (*Consumer)(nil)
