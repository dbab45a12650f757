package http

import "github.com/spf13/viper"

// HttpConfig covers the admin server's one listener (cmd/server: the
// /health family and /metrics). No CORS or client-facing settings —
// nothing but probes and the Prometheus scraper ever call it.
type HttpConfig struct {
	Port    int `mapstructure:"port"`
	Timeout int `mapstructure:"timeout"`
}

func SetDefault() {
	viper.SetDefault("http.port", 8080)
	viper.SetDefault("http.timeout", 30)
}
