package config

import "github.com/spf13/viper"

// LogConfig drives pkg/logger: Level maps straight onto zerolog's level
// names; Pretty switches the console writer on for local runs.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func SetDefault() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.pretty", false)
}
