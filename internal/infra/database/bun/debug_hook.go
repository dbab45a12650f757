package bun

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"daybreak/pkg/logger"
)

// DebugHook logs every query the message-log and user stores issue, with
// its duration. Installed only when database.debug is set — the CAS-heavy
// dispatcher/recovery paths are far too chatty for production logging.
type DebugHook struct{}

func (h *DebugHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *DebugHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	logger.WithContext(ctx).Debugf("query: %s duration=%dms", event.Query, time.Since(event.StartTime).Milliseconds())
}
