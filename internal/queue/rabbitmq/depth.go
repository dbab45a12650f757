package rabbitmq

import (
	"context"
	"time"

	"daybreak/pkg/logger"
	"daybreak/pkg/metrics"
)

// PollDepth samples the work queue's ready-message count on every tick
// and feeds the queue_depth gauge, until ctx is cancelled. It opens its
// own channel per sample rather than holding one open, since QueueInspect
// is the only call it ever makes.
func PollDepth(ctx context.Context, conn *Connection, config Config, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			depth, err := inspectDepth(conn, config.Queue)
			if err != nil {
				logger.Warnf("queue depth poll failed: %v", err)
				continue
			}
			metrics.QueueDepth.Set(float64(depth))
		}
	}
}

func inspectDepth(conn *Connection, queue string) (int, error) {
	ch, err := conn.GetConnection().Channel()
	if err != nil {
		return 0, err
	}
	defer ch.Close()

	q, err := ch.QueueInspect(queue)
	if err != nil {
		return 0, err
	}
	return q.Messages, nil
}
