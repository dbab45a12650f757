package config

import "github.com/spf13/viper"

type AppConfig struct {
	Env     string `mapstructure:"env"`
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Debug   bool   `mapstructure:"debug"`
}

func SetDefault() {
	viper.SetDefault("app.name", "daybreak")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.env", "local")
	viper.SetDefault("app.debug", false)
}
