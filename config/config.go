package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/spf13/viper"

	appConfig "daybreak/config/app"
	cacheConfig "daybreak/config/cache"
	dbConfig "daybreak/config/database"
	httpConfig "daybreak/config/http"
	logConfig "daybreak/config/log"
	schedulerConfig "daybreak/config/scheduler"
	senderConfig "daybreak/config/sender"
	workerConfig "daybreak/config/worker"
	"daybreak/internal/queue/rabbitmq"
)

// Config aggregates every concern's struct, one field per sub-package:
// the pipeline's own Scheduler/Worker/Sender/Queue settings alongside the
// ambient app/database/cache/log/http ones.
type Config struct {
	App       appConfig.AppConfig
	Database  dbConfig.DatabaseConfig
	Cache     cacheConfig.CacheConfig
	Log       logConfig.LogConfig
	Http      httpConfig.HttpConfig
	Queue     rabbitmq.Config
	Scheduler schedulerConfig.SchedulerConfig
	Worker    workerConfig.WorkerConfig
	Sender    senderConfig.SenderConfig
}

var Cfg *Config

func setDefault() {
	appConfig.SetDefault()
	dbConfig.SetDefault()
	cacheConfig.SetDefault()
	logConfig.SetDefault()
	httpConfig.SetDefault()
	rabbitmq.SetDefault()
	schedulerConfig.SetDefault()
	workerConfig.SetDefault()
	senderConfig.SetDefault()
}

// LoadConfig reads config.<APP_ENV>.yaml (default "local") from the
// working directory, applies every concern's defaults, and unmarshals
// into Cfg.
func LoadConfig(e *echo.Echo) *Config {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}

	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatalf("Error reading config file: %v", err)
		}
		// No config.<env>.yaml on disk: defaults plus env vars carry the
		// whole table, which is how the worker containers run.
	}
	setDefault()
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Error parsing config: %v", err)
	}
	Cfg = &cfg
	SetDebugMode(e, Cfg.App.Debug)
	if e.Debug {
		log.SetLevel(log.DEBUG)
		log.Debugf("Debugging enabled")
		log.Debugf("Configuration loaded successfully for environment: %s", env)
	} else {
		log.SetLevel(log.INFO)
	}
	return Cfg
}

func App() appConfig.AppConfig                   { return Cfg.App }
func Database() dbConfig.DatabaseConfig          { return Cfg.Database }
func Cache() cacheConfig.CacheConfig             { return Cfg.Cache }
func Http() httpConfig.HttpConfig                { return Cfg.Http }
func Log() logConfig.LogConfig                   { return Cfg.Log }
func Queue() rabbitmq.Config                     { return Cfg.Queue }
func Scheduler() schedulerConfig.SchedulerConfig { return Cfg.Scheduler }
func Worker() workerConfig.WorkerConfig          { return Cfg.Worker }
func Sender() senderConfig.SenderConfig          { return Cfg.Sender }

func SetDebugMode(e *echo.Echo, debug bool) {
	Cfg.App.Debug = debug
	e.Debug = debug
	if debug {
		log.SetLevel(log.DEBUG)
	} else {
		log.SetLevel(log.INFO)
	}
}
