package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port              string
	PostgresDSN       string
	RedisAddr         string
	KafkaBrokers      []string
	KafkaOrdersTopic  string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	// PaymentDelay is how long the simulated gateway holds a charge.
	PaymentDelay time.Duration
	// PaymentFailureDelay is the grace period before a rejected card marks
	// the order failed.
	PaymentFailureDelay time.Duration
	SessionTTL          time.Duration
}

// LoadConfig reads a .env file when present, then the environment, applies
// defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:                envDefault("PORT", "8080"),
		PostgresDSN:         strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisAddr:           strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		KafkaOrdersTopic:    envDefault("KAFKA_ORDERS_TOPIC", "shop.orders"),
		TemporalAddress:     envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:   envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:    isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		PaymentDelay:        2 * time.Second,
		PaymentFailureDelay: 10 * time.Second,
		SessionTTL:          24 * time.Hour,
	}
	if raw := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); raw != "" {
		for _, broker := range strings.Split(raw, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}
	var err error
	if cfg.PaymentDelay, err = secondsEnv("PAYMENT_DELAY_SECONDS", cfg.PaymentDelay); err != nil {
		return Config{}, err
	}
	if cfg.PaymentFailureDelay, err = secondsEnv("PAYMENT_FAILURE_DELAY_SECONDS", cfg.PaymentFailureDelay); err != nil {
		return Config{}, err
	}
	if raw := strings.TrimSpace(os.Getenv("SESSION_TTL_HOURS")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("SESSION_TTL_HOURS must be a positive integer")
		}
		cfg.SessionTTL = time.Duration(hours) * time.Hour
	}
	return cfg, nil
}

func secondsEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return time.Duration(seconds) * time.Second, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
