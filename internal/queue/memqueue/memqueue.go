// Package memqueue is an in-memory queue.Publisher used by worker and
// scheduler tests: a single-process FIFO with delay support, no broker.
package memqueue

import (
	"context"
	"sync"
	"time"

	"daybreak/internal/queue"
)

type delivery struct {
	payload queue.Payload
	readyAt time.Time
}

// Queue is a single-process FIFO with delay support, good enough to drive
// the worker pool and dispatcher under test without a broker.
type Queue struct {
	mu          sync.Mutex
	pending     []delivery
	DeadLetters []queue.Payload
	closed      bool
}

func New() *Queue {
	return &Queue{}
}

func (q *Queue) Publish(_ context.Context, payload queue.Payload, delayMs int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, delivery{payload: payload, readyAt: time.Now().Add(time.Duration(delayMs) * time.Millisecond)})
	return nil
}

func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

// Drain processes every currently-ready message once through handler,
// synchronously, in publish order — deterministic enough for scenario
// tests that don't care about concurrent worker interleaving.
func (q *Queue) Drain(ctx context.Context, handler func(queue.Payload) error) {
	q.mu.Lock()
	now := time.Now()
	var ready []delivery
	var notReady []delivery
	for _, d := range q.pending {
		if !d.readyAt.After(now) {
			ready = append(ready, d)
		} else {
			notReady = append(notReady, d)
		}
	}
	q.pending = notReady
	q.mu.Unlock()

	for _, d := range ready {
		err := handler(d.payload)
		if err != nil {
			q.mu.Lock()
			q.DeadLetters = append(q.DeadLetters, d.payload)
			q.mu.Unlock()
		}
	}
}

// Len reports the number of messages still pending (ready or delayed).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

var _ queue.Publisher = (*Queue)(nil)
