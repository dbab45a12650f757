package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"daybreak/internal/queue"
	"daybreak/pkg/logger"
)

// Producer publishes messages to the delayed exchange: one channel,
// publisher-confirms, the delay carried as the x-delay header. One
// exchange and one routing key are all the pipeline needs.
type Producer struct {
	connection *Connection
	config     Config
	channel    *amqp.Channel
	mu         sync.Mutex
}

func NewProducer(connection *Connection, config Config) (*Producer, error) {
	p := &Producer{connection: connection, config: config}
	if err := p.setup(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Producer) setup() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.connection.GetConnection().Channel()
	if err != nil {
		return fmt.Errorf("failed to open producer channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		logger.Warnf("failed to enable publisher confirms: %v (continuing anyway)", err)
	}

	p.channel = ch
	return nil
}

// Publish sends payload to the delayed exchange with delayMs set as the
// x-delay header; the delayed-message plugin holds it until due.
func (p *Producer) Publish(ctx context.Context, payload queue.Payload, delayMs int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	body, err := queue.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	headers := amqp.Table{}
	if delayMs > 0 {
		headers["x-delay"] = int32(delayMs)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.config.Exchange,
		p.config.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Headers:      headers,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message_log %d attempt %d: %w", payload.MessageLogID, payload.Attempt, err)
	}
	return nil
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil && !p.channel.IsClosed() {
		return p.channel.Close()
	}
	return nil
}

var _ queue.Publisher = (*Producer)(nil)
