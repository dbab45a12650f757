// Package config is the viper-backed settings for the worker pool: how
// many consumer goroutines each process runs and their queue prefetch.
package config

import "github.com/spf13/viper"

type WorkerConfig struct {
	WorkerCount    int `mapstructure:"worker_count"`
	WorkerPrefetch int `mapstructure:"worker_prefetch"`
}

func SetDefault() {
	viper.SetDefault("worker.worker_count", 10)
	viper.SetDefault("worker.worker_prefetch", 5)
}
