package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	Port        string `envconfig:"RETAIL_SERVICE_PORT" default:":8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	KafkaBrokers        []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	OrderTopic          string   `envconfig:"QUEUE_ORDER_NOTIFICATIONS" default:"order-notifications"`
	StockTopic          string   `envconfig:"QUEUE_STOCK_UPDATES" default:"stock-updates"`
	DeadLetterTopic     string   `envconfig:"QUEUE_DEAD_LETTER" default:"retail-dead-letter"`
	NotifyBufferSize    int      `envconfig:"NOTIFY_BUFFER_SIZE" default:"256"`
	NotifyMaxAttempts   int      `envconfig:"NOTIFY_MAX_ATTEMPTS" default:"3"`
	NotifyRetryBackoff  int      `envconfig:"NOTIFY_RETRY_BACKOFF_MS" default:"500"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			log.Println("Warning: .env file not found, using environment variables or defaults.")
		} else {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
