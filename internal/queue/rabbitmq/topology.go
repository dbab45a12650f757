package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"daybreak/pkg/logger"
)

const (
	exchangeTypeDelayed = "x-delayed-message"
	delayedTypeArg      = "direct"
)

// SetupTopology declares the delayed exchange, the work queue (bound to
// it, with x-dead-letter-* arguments) and the dead-letter queue, once per
// process start. Declarations are idempotent on the broker side, so every
// process can run this unconditionally.
func SetupTopology(conn *Connection, config Config) error {
	ch, err := conn.GetConnection().Channel()
	if err != nil {
		return fmt.Errorf("failed to open topology channel: %w", err)
	}
	defer ch.Close()

	logger.Infof("setting up rabbitmq topology: exchange=%s queue=%s dlq=%s",
		config.Exchange, config.Queue, config.DeadLetterQueue)

	if err := ch.ExchangeDeclare(
		config.Exchange,
		exchangeTypeDelayed,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		amqp.Table{"x-delayed-type": delayedTypeArg},
	); err != nil {
		return fmt.Errorf("failed to declare delayed exchange %s: %w", config.Exchange, err)
	}

	if _, err := ch.QueueDeclare(
		config.DeadLetterQueue,
		true, false, false, false, nil,
	); err != nil {
		return fmt.Errorf("failed to declare dead-letter queue %s: %w", config.DeadLetterQueue, err)
	}

	workQueueArgs := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": config.DeadLetterQueue,
	}
	if _, err := ch.QueueDeclare(
		config.Queue,
		true, false, false, false,
		workQueueArgs,
	); err != nil {
		return fmt.Errorf("failed to declare work queue %s: %w", config.Queue, err)
	}

	if err := ch.QueueBind(config.Queue, config.RoutingKey, config.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s to exchange %s: %w", config.Queue, config.Exchange, err)
	}

	logger.Infof("rabbitmq topology ready")
	return nil
}
