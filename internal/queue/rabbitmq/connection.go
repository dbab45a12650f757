package rabbitmq

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"daybreak/pkg/logger"
)

// maxReconnectAttempts bounds the reconnect loop below, which waits a
// linearly growing attempt*2s before each try. Once every attempt has
// failed, handleReconnect returns and the connection stays closed; nothing
// reconnects it afterwards.
const maxReconnectAttempts = 10

// Connection wraps a single AMQP connection and auto-reconnects on
// NotifyClose. Channels do not survive a reconnect; callers re-open them
// through GetConnection.
type Connection struct {
	mu     sync.RWMutex
	conn   *amqp.Connection
	config Config
	closed bool
}

func Connect(config Config) (*Connection, error) {
	c := &Connection{config: config}
	if err := c.connect(); err != nil {
		return nil, err
	}
	go c.handleReconnect()
	return c, nil
}

func (c *Connection) connect() error {
	conn, err := amqp.DialConfig(c.config.URI(), amqp.Config{
		Properties: amqp.Table{"connection_name": c.config.ConnectionName},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	logger.Infof("connected to rabbitmq at %s:%d", c.config.Host, c.config.Port)
	return nil
}

func (c *Connection) handleReconnect() {
	for {
		c.mu.RLock()
		conn := c.conn
		closed := c.closed
		c.mu.RUnlock()
		if closed {
			return
		}

		reason, ok := <-conn.NotifyClose(make(chan *amqp.Error))
		c.mu.RLock()
		closed = c.closed
		c.mu.RUnlock()
		if !ok || closed {
			return
		}

		logger.Warnf("rabbitmq connection lost: %v — reconnecting", reason)

		for attempt := 0; attempt < maxReconnectAttempts; attempt++ {
			c.mu.RLock()
			closed = c.closed
			c.mu.RUnlock()
			if closed {
				return
			}

			time.Sleep(time.Duration(attempt) * 2 * time.Second)
			if err := c.connect(); err != nil {
				logger.Warnf("rabbitmq reconnect attempt %d failed: %v", attempt+1, err)
				continue
			}
			logger.Infof("rabbitmq reconnected after %d attempt(s)", attempt+1)
			break
		}
	}
}

// GetConnection returns the live *amqp.Connection. Callers must re-open a
// channel after a reconnect; channels do not survive it.
func (c *Connection) GetConnection() *amqp.Connection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

func (c *Connection) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	if conn != nil && !conn.IsClosed() {
		return conn.Close()
	}
	return nil
}
