package rabbitmq

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config covers the single delayed-exchange + work-queue + DLQ topology
// the pipeline uses, plus the consumer's prefetch/pool sizing.
type Config struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	ConnectionName string `mapstructure:"connection_name"`

	Exchange        string `mapstructure:"exchange"` // x-delayed-message exchange
	Queue           string `mapstructure:"queue"`    // main work queue
	RoutingKey      string `mapstructure:"routing_key"`
	DeadLetterQueue string `mapstructure:"dead_letter_queue"`
	PrefetchCount   int    `mapstructure:"prefetch_count"`
	WorkerPoolSize  int    `mapstructure:"worker_pool_size"`
	ConsumerTag     string `mapstructure:"consumer_tag"`
}

// SetDefault registers every key's default. Keys are flat under "queue."
// since config.Config embeds this Config directly as its Queue field, with
// no intermediate "rabbitmq" nesting for viper.Unmarshal to walk.
func SetDefault() {
	viper.SetDefault("queue.host", "localhost")
	viper.SetDefault("queue.port", 5672)
	viper.SetDefault("queue.username", "guest")
	viper.SetDefault("queue.password", "guest")
	viper.SetDefault("queue.connection_name", "daybreak")
	viper.SetDefault("queue.exchange", "daybreak.greetings.delayed")
	viper.SetDefault("queue.queue", "daybreak.greetings.work")
	viper.SetDefault("queue.routing_key", "greeting.send")
	viper.SetDefault("queue.dead_letter_queue", "daybreak.greetings.dead")
	viper.SetDefault("queue.prefetch_count", 5)
	viper.SetDefault("queue.worker_pool_size", 10)
	viper.SetDefault("queue.consumer_tag", "daybreak-worker")
}

// URI builds the AMQP connection string.
func (c Config) URI() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d", c.Username, c.Password, c.Host, c.Port)
}
