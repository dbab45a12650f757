package scheduler

import (
	"context"
	"errors"
	"time"

	"daybreak/internal/messagelog"
	"daybreak/internal/queue"
	"daybreak/internal/sender"
	"daybreak/internal/users"
	"daybreak/pkg/logger"
	"daybreak/pkg/metrics"
)

// ReasonUserRemoved is the lastError recorded when a row's owning user
// was soft-deleted after scheduling.
const ReasonUserRemoved = "user_removed"

// WorkerPool drains the durable queue: each delivery leases one
// message-log row, sends the rendered content through the email sender,
// and drives the row's status FSM with CAS transitions. It is agnostic to
// how many goroutines drive it — queue.Consumer.Consume already owns that
// pool (internal/queue/rabbitmq.Consumer.config.WorkerPoolSize);
// WorkerPool supplies only the per-message handler.
type WorkerPool struct {
	messageLogs messagelog.Store
	users       users.Store
	sender      sender.Interface
	publisher   queue.Publisher

	maxRetries int
}

func NewWorkerPool(logStore messagelog.Store, userStore users.Store, snd sender.Interface, publisher queue.Publisher, maxRetries int) *WorkerPool {
	return &WorkerPool{messageLogs: logStore, users: userStore, sender: snd, publisher: publisher, maxRetries: maxRetries}
}

// Handle is the queue.ConsumeFunc the worker pool registers with
// queue.Consumer.Consume. It never returns a plain error for "retry" in
// the sense of blindly requeuing the same delivery — every outer retry is
// driven by an explicit re-publish with backoff, so Handle only ever
// returns nil (ack) or queue.ErrDeadLetter (route to DLQ). A malformed
// payload is logged and dropped, not requeued forever.
func (w *WorkerPool) Handle(ctx context.Context, body []byte) error {
	payload, err := queue.Unmarshal(body)
	if err != nil {
		logger.WithContext(ctx).Errorf("worker: malformed payload, dropping: %v", err)
		return nil
	}

	row, err := w.messageLogs.FindByID(ctx, payload.MessageLogID)
	if errors.Is(err, messagelog.ErrNotFound) {
		logger.WithContext(ctx).Warnf("worker: row %d not found, dropping", payload.MessageLogID)
		return nil
	}
	if err != nil {
		logger.WithContext(ctx).Errorf("worker: read row %d failed: %v", payload.MessageLogID, err)
		return nil
	}

	switch row.Status {
	case messagelog.StatusSent, messagelog.StatusDead:
		// Redelivery of a row already resolved — the status check alone
		// makes this a no-op.
		return nil
	}

	now := time.Now().UTC()
	if err := w.messageLogs.TransitionStatus(ctx, row.ID, row.Status, messagelog.StatusSending, messagelog.Updates{LastAttemptAt: &now}); err != nil {
		if errors.Is(err, messagelog.ErrConcurrencyLost) {
			return nil
		}
		logger.WithContext(ctx).Errorf("worker: transition row %d to SENDING failed: %v", row.ID, err)
		return nil
	}

	user, err := w.users.GetByID(ctx, row.UserID)
	if errors.Is(err, users.ErrNotFound) {
		w.toDead(ctx, row.ID, ReasonUserRemoved, nil)
		return nil
	}
	if err != nil {
		logger.WithContext(ctx).Errorf("worker: read user %d failed: %v", row.UserID, err)
		return nil
	}

	sendStart := time.Now()
	result := w.sender.Send(ctx, user.Email, row.MessageContent)
	metrics.SendLatencySeconds.Observe(time.Since(sendStart).Seconds())
	metrics.MessagesSentTotal.WithLabelValues(result.Outcome.String()).Inc()
	logger.WithContext(ctx).Infof("worker: row %d attempt %d outcome=%s code=%d", row.ID, payload.Attempt, result.Outcome, result.Code)

	switch result.Outcome {
	case sender.Sent:
		code := result.Code
		return w.finish(ctx, row.ID, w.messageLogs.TransitionStatus(ctx, row.ID, messagelog.StatusSending, messagelog.StatusSent, messagelog.Updates{ResponseCode: &code}))

	case sender.PermanentFailure:
		w.toDead(ctx, row.ID, result.Reason, &result.Code)
		return nil

	default: // TransientFailure
		return w.handleTransientFailure(ctx, row, payload.Attempt, result)
	}
}

func (w *WorkerPool) handleTransientFailure(ctx context.Context, row *messagelog.Row, attempt int, result sender.Result) error {
	if row.RetryCount < w.maxRetries {
		retryCount := row.RetryCount + 1
		if err := w.messageLogs.TransitionStatus(ctx, row.ID, messagelog.StatusSending, messagelog.StatusFailed,
			messagelog.Updates{RetryCount: &retryCount, LastError: &result.Reason}); err != nil {
			if !errors.Is(err, messagelog.ErrConcurrencyLost) {
				logger.WithContext(ctx).Errorf("worker: transition row %d to FAILED failed: %v", row.ID, err)
			}
			return nil
		}

		delay := outerBackoff(attempt)
		if err := w.publisher.Publish(ctx, queue.Payload{MessageLogID: row.ID, Attempt: attempt + 1}, delay.Milliseconds()); err != nil {
			logger.WithContext(ctx).Errorf("worker: re-publish row %d failed: %v — recovery will re-enqueue it", row.ID, err)
		}
		return nil
	}

	// retryCount already at maxRetries: this was the last permitted
	// attempt and it failed too.
	w.toDead(ctx, row.ID, result.Reason, &result.Code)
	return queue.ErrDeadLetter
}

func (w *WorkerPool) toDead(ctx context.Context, id int64, reason string, code *int) {
	updates := messagelog.Updates{LastError: &reason}
	if code != nil {
		updates.ResponseCode = code
	}
	if err := w.messageLogs.TransitionStatus(ctx, id, messagelog.StatusSending, messagelog.StatusDead, updates); err != nil {
		if !errors.Is(err, messagelog.ErrConcurrencyLost) {
			logger.WithContext(ctx).Errorf("worker: transition row %d to DEAD failed: %v", id, err)
		}
		return
	}
	metrics.MessagesDeadTotal.Inc()
}

func (w *WorkerPool) finish(ctx context.Context, id int64, err error) error {
	if err != nil && !errors.Is(err, messagelog.ErrConcurrencyLost) {
		logger.WithContext(ctx).Errorf("worker: transition row %d to SENT failed: %v", id, err)
	}
	return nil
}
