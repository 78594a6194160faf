package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Env    string `envconfig:"APP_ENV" default:"development"`
	DB     DBConfig
	Redis  RedisConfig
	Groq   GroqConfig
	Fetch  FetchConfig
	Backup BackupConfig

	// Topics is the closed set of topics questions may be filed under.
	Topics []string `envconfig:"QUIZ_TOPICS" default:"javascript,typescript,python,go,java,react,nodejs,sql"`
}

// database configuration
type DBConfig struct {
	DSN             string        `envconfig:"DATABASE_URL" required:"true"`
	MaxConns        int32         `envconfig:"DB_MAX_CONNS" default:"20"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// redis corpus-cache configuration; caching is disabled when Addr is empty
type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"REDIS_CORPUS_TTL" default:"5m"`
}

// Groq AI configuration
type GroqConfig struct {
	APIKey     string        `envconfig:"GROQ_API_KEY" required:"true"`
	Model      string        `envconfig:"GROQ_MODEL" default:"llama-3.3-70b-versatile"`
	Timeout    time.Duration `envconfig:"GROQ_TIMEOUT" default:"45s"`
	MaxRetries int           `envconfig:"GROQ_MAX_RETRIES" default:"2"`
	RetryDelay time.Duration `envconfig:"GROQ_RETRY_DELAY" default:"2s"`
}

// recursive fetch session configuration
type FetchConfig struct {
	TargetCeiling          int           `envconfig:"FETCH_TARGET_CEILING" default:"1000"`
	AllowedBatchSizes      []int         `envconfig:"FETCH_ALLOWED_BATCH_SIZES" default:"5,10,15,20"`
	MaxConsecutiveFailures int           `envconfig:"FETCH_MAX_CONSECUTIVE_FAILURES" default:"3"`
	RetryDelay             time.Duration `envconfig:"FETCH_RETRY_DELAY" default:"3s"`
	DelayBetweenBatches    time.Duration `envconfig:"FETCH_DELAY_BETWEEN_BATCHES" default:"2s"`
	ProgressInterval       time.Duration `envconfig:"FETCH_PROGRESS_INTERVAL" default:"1s"`
}

// backup file-store configuration
type BackupConfig struct {
	Dir           string `envconfig:"BACKUP_DIR" default:"backups"`
	RetentionDays int    `envconfig:"BACKUP_RETENTION_DAYS" default:"30"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Env] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Env)
	}
	if len(c.Topics) == 0 {
		return fmt.Errorf("QUIZ_TOPICS must name at least one topic")
	}
	if c.DB.MaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1")
	}
	if c.Fetch.TargetCeiling < 1 {
		return fmt.Errorf("FETCH_TARGET_CEILING must be at least 1")
	}
	if len(c.Fetch.AllowedBatchSizes) == 0 {
		return fmt.Errorf("FETCH_ALLOWED_BATCH_SIZES must name at least one size")
	}
	for _, size := range c.Fetch.AllowedBatchSizes {
		if size < 1 {
			return fmt.Errorf("allowed batch sizes must be positive, got %d", size)
		}
	}
	if c.Fetch.MaxConsecutiveFailures < 1 {
		return fmt.Errorf("FETCH_MAX_CONSECUTIVE_FAILURES must be at least 1")
	}
	if c.Groq.MaxRetries < 0 {
		return fmt.Errorf("GROQ_MAX_RETRIES must be non-negative")
	}
	if c.Backup.RetentionDays < 1 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must be at least 1")
	}
	return nil
}

// HasTopic reports whether topic belongs to the configured set.
func (c *Config) HasTopic(topic string) bool {
	for _, t := range c.Topics {
		if t == topic {
			return true
		}
	}
	return false
}
