package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"rentdesk/internal/app/availability"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string
	HTTPAddr string
	Currency string

	StoreDriver string
	DatabaseDSN string

	MongoURI           string
	MongoDB            string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	KafkaGroupID       string
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	RedisURL        string
	ViewDedupWindow time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	S3Endpoint       string
	S3PublicEndpoint string
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3UseSSL         bool

	HoldPolicy        availability.HoldPolicy
	ReconcileInterval time.Duration
	RecalcMaxAttempts int
	RecalcBaseDelay   time.Duration
	SessionTTL        time.Duration
}

// Load reads .env files when present and parses configuration from the environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		Currency:         strings.ToUpper(getEnv("CURRENCY", "EUR")),
		StoreDriver:      strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		DatabaseDSN:      os.Getenv("DATABASE_DSN"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "rentdesk"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "rentdesk-notifier"),
		RedisURL:         os.Getenv("REDIS_URL"),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:         getEnv("SMTP_FROM", "no-reply@rentdesk.local"),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3PublicEndpoint: getEnv("S3_PUBLIC_ENDPOINT", ""),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:      getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:         getEnv("S3_BUCKET", "rentdesk-photos"),
	}
	if len(cfg.Currency) != 3 {
		return Config{}, fmt.Errorf("invalid CURRENCY %q", cfg.Currency)
	}
	switch cfg.StoreDriver {
	case StoreMemory:
	case StorePostgres, StoreSQLite:
		if cfg.DatabaseDSN == "" {
			return Config{}, fmt.Errorf("DATABASE_DSN is required for STORE_DRIVER=%s", cfg.StoreDriver)
		}
	default:
		return Config{}, fmt.Errorf("invalid STORE_DRIVER %q", cfg.StoreDriver)
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.ViewDedupWindow, err = parseDurationEnv("VIEW_DEDUP_WINDOW", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileInterval, err = parseDurationEnv("RECONCILE_INTERVAL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RecalcBaseDelay, err = parseDurationEnv("RECALC_BASE_DELAY", 50*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SMTPPort, err = parseIntEnv("SMTP_PORT", 587); err != nil {
		return Config{}, err
	}
	if cfg.RecalcMaxAttempts, err = parseIntEnv("RECALC_MAX_ATTEMPTS", 3); err != nil {
		return Config{}, err
	}
	if cfg.RecalcMaxAttempts < 1 {
		return Config{}, fmt.Errorf("invalid RECALC_MAX_ATTEMPTS %d", cfg.RecalcMaxAttempts)
	}
	if cfg.S3UseSSL, err = parseBoolEnv("S3_USE_SSL", false); err != nil {
		return Config{}, err
	}
	if cfg.HoldPolicy, err = availability.ParseHoldPolicy(os.Getenv("RESERVATION_HOLD_POLICY")); err != nil {
		return Config{}, err
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}
	return cfg, nil
}

// UsesBroker reports whether events go through Mongo and Kafka instead of in-process delivery.
func (c Config) UsesBroker() bool {
	return c.MongoURI != "" && len(c.KafkaBrokers) > 0
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
