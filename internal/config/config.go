package config

import (
	"fmt"
	"time"

	"github.com/mverno/resemble/internal/configs/env"
)

// Config holds all configuration for the similarity daemon
type Config struct {
	// MongoDB
	MongoURI    string
	MongoDBName string

	// Redis
	RedisHost          string
	RedisPassword      string
	RedisStreamKey     string
	RedisConsumerGroup string
	RedisDeadLetterKey string
	StreamRetention    time.Duration

	// Score cache
	CacheTTL time.Duration

	// JWT
	JWTSecret string
	JWTIssuer string

	// Rate Limiting
	RateLimitRPS float64

	// Concurrency
	MaxConcurrentCompare int

	// Computation
	CompareTimeout time.Duration

	// Logging
	LogLevel string

	// Server
	ServerPort  string
	MetricsPort string
}

func Load() (*Config, error) {
	cfg := &Config{}

	// MongoDB
	cfg.MongoURI = env.GetEnv("MONGO_URI", "")
	cfg.MongoDBName = env.GetEnv("MONGO_DB_NAME", "resemble")

	// Redis
	cfg.RedisHost = env.GetEnv("REDIS_HOST", "localhost:6379")
	cfg.RedisPassword = env.GetEnv("REDIS_PASSWORD", "")
	cfg.RedisStreamKey = env.GetEnv("REDIS_STREAM_KEY", "resemble:stream")
	cfg.RedisConsumerGroup = env.GetEnv("REDIS_CONSUMER_GROUP", "resemble:group")
	cfg.RedisDeadLetterKey = env.GetEnv("REDIS_DEAD_LETTER_KEY", "resemble:dlq")
	retentionHours := env.GetEnvInt("STREAM_RETENTION_HOURS", 24)
	cfg.StreamRetention = time.Duration(retentionHours) * time.Hour

	// Score cache
	cacheTTLMinutes := env.GetEnvInt("SCORE_CACHE_TTL_MINUTES", 60)
	cfg.CacheTTL = time.Duration(cacheTTLMinutes) * time.Minute

	// JWT
	cfg.JWTSecret = env.GetEnv("JWT_SECRET", "")
	cfg.JWTIssuer = env.GetEnv("JWT_ISSUER", "")

	// Rate Limiting
	cfg.RateLimitRPS = env.GetEnvFloat("RATE_LIMIT_RPS", 10.0)

	// Concurrency
	cfg.MaxConcurrentCompare = env.GetEnvInt("MAX_CONCURRENT_COMPARE", 5)

	// Computation
	timeoutSeconds := env.GetEnvInt("COMPARE_TIMEOUT_SECONDS", 60)
	cfg.CompareTimeout = time.Duration(timeoutSeconds) * time.Second

	// Logging
	cfg.LogLevel = env.GetEnv("LOG_LEVEL", "info")

	// Server
	cfg.ServerPort = env.GetEnv("SERVER_PORT", "8080")
	cfg.MetricsPort = env.GetEnv("METRICS_PORT", "2112")

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.MongoDBName == "" {
		return fmt.Errorf("MONGO_DB_NAME is required")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.MaxConcurrentCompare <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_COMPARE must be greater than 0")
	}
	if c.CompareTimeout <= 0 {
		return fmt.Errorf("COMPARE_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.StreamRetention <= 0 {
		return fmt.Errorf("STREAM_RETENTION_HOURS must be greater than 0")
	}
	return nil
}
