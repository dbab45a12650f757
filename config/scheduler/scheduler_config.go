// Package config holds the delivery pipeline's own settings — tick
// periods, batch limits, retry caps, recovery thresholds — separate from
// the HTTP/database/cache concerns, same one-struct-plus-SetDefault shape
// as config/app and config/cache.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// SchedulerConfig carries F/G/I's tick periods, batch limits and recovery
// thresholds.
type SchedulerConfig struct {
	DispatchIntervalSec int `mapstructure:"dispatch_interval_sec"`
	RecoveryIntervalSec int `mapstructure:"recovery_interval_sec"`
	DispatchHorizonSec  int `mapstructure:"dispatch_horizon_sec"`
	DispatchBatchLimit  int `mapstructure:"dispatch_batch_limit"`
	MaxRetries          int `mapstructure:"max_retries"`
	GraceSec            int `mapstructure:"grace_sec"`
	StaleSendingSec     int `mapstructure:"stale_sending_sec"`
	StuckEnqueuedSec    int `mapstructure:"stuck_enqueued_sec"`
	GracefulShutdownSec int `mapstructure:"graceful_shutdown_sec"`
}

func SetDefault() {
	viper.SetDefault("scheduler.dispatch_interval_sec", 60)
	viper.SetDefault("scheduler.recovery_interval_sec", 600)
	viper.SetDefault("scheduler.dispatch_horizon_sec", 3600)
	viper.SetDefault("scheduler.dispatch_batch_limit", 1000)
	viper.SetDefault("scheduler.max_retries", 5)
	viper.SetDefault("scheduler.grace_sec", 120)
	viper.SetDefault("scheduler.stale_sending_sec", 300)
	viper.SetDefault("scheduler.stuck_enqueued_sec", 900)
	viper.SetDefault("scheduler.graceful_shutdown_sec", 30)
}

func (c SchedulerConfig) DispatchInterval() time.Duration {
	return time.Duration(c.DispatchIntervalSec) * time.Second
}

func (c SchedulerConfig) RecoveryInterval() time.Duration {
	return time.Duration(c.RecoveryIntervalSec) * time.Second
}

func (c SchedulerConfig) DispatchHorizon() time.Duration {
	return time.Duration(c.DispatchHorizonSec) * time.Second
}

func (c SchedulerConfig) GracefulShutdown() time.Duration {
	return time.Duration(c.GracefulShutdownSec) * time.Second
}

// Grace is Recovery rule (a)'s stale-SCHEDULED threshold — distinct from
// StaleSending (rule (c)'s stale-SENDING threshold), which is why it gets
// its own field rather than reusing StaleSendingSec.
func (c SchedulerConfig) Grace() time.Duration {
	return time.Duration(c.GraceSec) * time.Second
}
