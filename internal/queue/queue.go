// Package queue declares the durable queue adapter as two small
// interfaces; internal/queue/rabbitmq provides the concrete implementation
// and internal/queue/memqueue an in-memory fake for tests.
package queue

import (
	"context"
	"encoding/json"
	"errors"
)

// Payload is the only envelope ever published or consumed. Nothing else
// is needed: workers re-read the row from the message-log store.
type Payload struct {
	MessageLogID int64 `json:"messageLogId"`
	Attempt      int   `json:"attempt"`
}

func Marshal(p Payload) ([]byte, error)   { return json.Marshal(p) }
func Unmarshal(b []byte) (Payload, error) { var p Payload; err := json.Unmarshal(b, &p); return p, err }

// ErrDeadLetter is returned by a ConsumeFunc to route the delivery
// straight to the dead-letter queue instead of requeuing it. Any other
// non-nil error means "transient, requeue"; nil means "ack".
var ErrDeadLetter = errors.New("queue: route to dead-letter queue")

// ConsumeFunc processes one delivery.
type ConsumeFunc func(ctx context.Context, body []byte) error

// Publisher publishes durable, at-least-once messages with delayed
// delivery. Idempotency is not the queue's job — messagelog.Store
// enforces it.
type Publisher interface {
	Publish(ctx context.Context, payload Payload, delay int64 /* ms */) error
	Close() error
}

// Consumer drains the work queue with a bounded prefetch per worker.
type Consumer interface {
	Consume(ctx context.Context, handler ConsumeFunc) error
	Close() error
}
