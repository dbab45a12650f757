// Package messagelog is the Message-Log Store (component C): the
// authoritative, durable unit of work tying the scheduler, queue and worker
// pool together with exactly-once semantics.
package messagelog

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Status is the MessageLog FSM state. SCHEDULED is initial; SENT and DEAD
// are terminal.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusEnqueued  Status = "ENQUEUED"
	StatusSending   Status = "SENDING"
	StatusSent      Status = "SENT"
	StatusFailed    Status = "FAILED"
	StatusDead      Status = "DEAD"
)

// Row is one scheduled greeting: the (user, occasion, day) unit of work.
type Row struct {
	bun.BaseModel `bun:"table:message_logs,alias:ml"`

	ID                int64        `bun:"id,pk,autoincrement"`
	UserID            int64        `bun:"user_id,notnull"`
	MessageType       string       `bun:"message_type,notnull"`
	ScheduledSendTime time.Time    `bun:"scheduled_send_time,notnull"`
	DeliveryDate      time.Time    `bun:"delivery_date,notnull"`
	Status            Status       `bun:"status,notnull"`
	RetryCount        int          `bun:"retry_count,notnull,default:0"`
	IdempotencyKey    string       `bun:"idempotency_key,notnull,unique"`
	LastAttemptAt     bun.NullTime `bun:"last_attempt_at,nullzero"`
	LastError         string       `bun:"last_error,nullzero"`
	ResponseCode      int          `bun:"response_code,nullzero"`
	MessageContent    string       `bun:"message_content,notnull"`
	CreatedAt         time.Time    `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time    `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// IdempotencyKey builds the `{userId}:{messageType}:{deliveryDate}` string
// the store enforces unique — the guarantee behind one-greeting-per-day.
func IdempotencyKey(userID int64, messageType string, deliveryDate time.Time) string {
	return fmt.Sprintf("%d:%s:%s", userID, messageType, deliveryDate.Format("2006-01-02"))
}
