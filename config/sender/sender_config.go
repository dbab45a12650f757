// Package config is the viper-backed settings for the email sender: the
// per-call timeout, the inner retry budget, and the circuit breaker's
// window/threshold/cooldown knobs.
package config

import (
	"time"

	"github.com/spf13/viper"

	"daybreak/internal/sender"
	"daybreak/internal/sender/circuitbreaker"
)

type SenderConfig struct {
	Endpoint         string  `mapstructure:"endpoint"`
	SendTimeoutSec   int     `mapstructure:"send_timeout_sec"`
	InnerRetries     int     `mapstructure:"inner_retries"`
	BreakerWindowSec int     `mapstructure:"breaker_window_sec"`
	BreakerErrorPct  float64 `mapstructure:"breaker_error_pct"`
	BreakerResetSec  int     `mapstructure:"breaker_reset_sec"`
}

func SetDefault() {
	viper.SetDefault("sender.endpoint", "https://email-service.digitalenvision.com.au")
	viper.SetDefault("sender.send_timeout_sec", 30)
	viper.SetDefault("sender.inner_retries", 3)
	viper.SetDefault("sender.breaker_window_sec", 10)
	viper.SetDefault("sender.breaker_error_pct", 50.0)
	viper.SetDefault("sender.breaker_reset_sec", 30)
}

// ToSenderConfig maps the viper settings onto sender.Config.
func (c SenderConfig) ToSenderConfig() sender.Config {
	cfg := sender.DefaultConfig(c.Endpoint)
	cfg.Timeout = time.Duration(c.SendTimeoutSec) * time.Second
	cfg.InnerRetries = c.InnerRetries
	return cfg
}

// ToBreakerConfig maps the viper settings onto circuitbreaker.Config.
func (c SenderConfig) ToBreakerConfig() circuitbreaker.Config {
	cb := circuitbreaker.DefaultConfig(c.Endpoint)
	cb.Window = time.Duration(c.BreakerWindowSec) * time.Second
	cb.ErrorThresholdPct = c.BreakerErrorPct
	cb.OpenTimeout = time.Duration(c.BreakerResetSec) * time.Second
	return cb
}
