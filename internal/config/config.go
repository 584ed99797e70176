package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseURL    string
	RedisURL       string
	KafkaBrokers   string
	NatsURL        string
	JaegerEndpoint string

	GatewayMinLatency  time.Duration
	GatewayMaxLatency  time.Duration
	GatewayFailureRate float64

	WorkerCount    int
	MaxRetries     int
	RetryBaseDelay time.Duration
}

func Load() *Config {
	// Optional .env for local runs; container environments set vars directly.
	_ = godotenv.Load()

	return &Config{
		Port:           envString("PORT", "8084"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		KafkaBrokers:   os.Getenv("KAFKA_BROKERS"),
		NatsURL:        os.Getenv("NATS_URL"),
		JaegerEndpoint: os.Getenv("JAEGER_ENDPOINT"),

		GatewayMinLatency:  envDurationMs("GATEWAY_MIN_LATENCY_MS", 1000),
		GatewayMaxLatency:  envDurationMs("GATEWAY_MAX_LATENCY_MS", 3000),
		GatewayFailureRate: envFloat("GATEWAY_FAILURE_RATE", 0.1),

		WorkerCount:    envInt("WORKER_COUNT", 4),
		MaxRetries:     envInt("MAX_RETRIES", 3),
		RetryBaseDelay: envDurationMs("RETRY_BASE_DELAY_MS", 5000),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationMs(key string, fallbackMs int) time.Duration {
	return time.Duration(envInt(key, fallbackMs)) * time.Millisecond
}
