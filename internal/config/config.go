package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration settings.
type Config struct {
	Environment string `envconfig:"GRAVITY_ENV" default:"development"`

	HTTPPort    int           `envconfig:"GRAVITY_HTTP_PORT" default:"8000"`
	HTTPTimeout time.Duration `envconfig:"GRAVITY_HTTP_TIMEOUT" default:"15s"`

	RedisAddr     string `envconfig:"GRAVITY_REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"GRAVITY_REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"GRAVITY_REDIS_DB" default:"0"`

	QueueDriver  string `envconfig:"GRAVITY_QUEUE_DRIVER" default:"memory"`
	QueueSize    int    `envconfig:"GRAVITY_QUEUE_SIZE" default:"100"`
	KafkaBrokers string `envconfig:"GRAVITY_KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic   string `envconfig:"GRAVITY_KAFKA_TOPIC" default:"gravity.downloads"`
	KafkaGroup   string `envconfig:"GRAVITY_KAFKA_GROUP" default:"gravity-workers"`

	WorkerCount   int           `envconfig:"GRAVITY_WORKER_COUNT" default:"4"`
	SoftTimeLimit time.Duration `envconfig:"GRAVITY_SOFT_TIME_LIMIT" default:"30m"`
	HardTimeLimit time.Duration `envconfig:"GRAVITY_HARD_TIME_LIMIT" default:"31m"`

	MaxRetries     int           `envconfig:"GRAVITY_MAX_RETRIES" default:"3"`
	RetryBaseDelay time.Duration `envconfig:"GRAVITY_RETRY_BASE_DELAY" default:"60s"`

	TaskTTL     time.Duration `envconfig:"GRAVITY_TASK_TTL" default:"168h"`
	HistorySize int           `envconfig:"GRAVITY_HISTORY_SIZE" default:"20"`

	DownloadDir     string        `envconfig:"GRAVITY_DOWNLOAD_DIR" default:"./downloads"`
	TempDir         string        `envconfig:"GRAVITY_TEMP_DIR" default:"./temp"`
	FileRetention   time.Duration `envconfig:"GRAVITY_FILE_RETENTION" default:"168h"`
	CleanupInterval time.Duration `envconfig:"GRAVITY_CLEANUP_INTERVAL" default:"1h"`

	YtDlpPath string `envconfig:"GRAVITY_YTDLP_PATH" default:"yt-dlp"`

	ShutdownTimeout time.Duration `envconfig:"GRAVITY_SHUTDOWN_TIMEOUT" default:"30s"`

	LogLevel  string `envconfig:"GRAVITY_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"GRAVITY_LOG_FORMAT" default:"json"`
}

// Validate checks the configuration for invalid or missing values.
// Returns an error describing the first invalid setting found.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	if c.RedisAddr == "" {
		return fmt.Errorf("redis address cannot be empty")
	}

	if c.QueueDriver != "memory" && c.QueueDriver != "kafka" {
		return fmt.Errorf("unknown queue driver: %q", c.QueueDriver)
	}

	if c.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be positive: %d", c.WorkerCount)
	}

	if c.QueueSize <= 0 {
		return fmt.Errorf("queue size must be positive: %d", c.QueueSize)
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative: %d", c.MaxRetries)
	}

	if c.TaskTTL <= 0 {
		return fmt.Errorf("task TTL must be positive: %s", c.TaskTTL)
	}

	if c.HistorySize <= 0 {
		return fmt.Errorf("history size must be positive: %d", c.HistorySize)
	}

	if c.HardTimeLimit <= c.SoftTimeLimit {
		return fmt.Errorf("hard time limit %s must exceed soft time limit %s", c.HardTimeLimit, c.SoftTimeLimit)
	}

	if c.DownloadDir == "" {
		return fmt.Errorf("download directory cannot be empty")
	}
	if c.TempDir == "" {
		return fmt.Errorf("temp directory cannot be empty")
	}

	return nil
}
