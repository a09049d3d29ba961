package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration. Resolved once at startup so
// per-attempt code never consults the environment.
type Server struct {
	Addr     string
	LogLevel string

	// SessionSigningKey signs document capture session tokens.
	SessionSigningKey string

	// ArchiveDir is where encrypted attempt images land. Empty disables
	// archival.
	ArchiveDir string

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	Vendor   VendorConfig
}

// RedisConfig holds connection settings for the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig holds the pgx pool DSN.
type PostgresConfig struct {
	DSN string
}

// KafkaConfig holds producer settings for funnel event publishing.
type KafkaConfig struct {
	Brokers         string
	FunnelTopic     string
	DeliveryTimeout time.Duration
}

// VendorConfig selects and configures the verification vendor backend.
type VendorConfig struct {
	// Backend is the vendor-selection discriminator: "live", "fixture" or
	// "template". Anything other than "live" avoids real network calls.
	Backend string

	BaseURL        string
	AccountID      string
	APIKey         string
	RequestTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := getEnv("DOCAUTH_ADDR", ":8080")

	signingKey := os.Getenv("DOCAUTH_SESSION_SIGNING_KEY")
	if signingKey == "" {
		// Use a default for development - should be overridden in production
		signingKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:              addr,
		LogLevel:          getEnv("DOCAUTH_LOG_LEVEL", "info"),
		SessionSigningKey: signingKey,
		ArchiveDir:        os.Getenv("DOCAUTH_ARCHIVE_DIR"),
		Redis: RedisConfig{
			URL:          os.Getenv("DOCAUTH_REDIS_URL"),
			PoolSize:     getEnvInt("DOCAUTH_REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("DOCAUTH_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("DOCAUTH_POSTGRES_DSN"),
		},
		Kafka: KafkaConfig{
			Brokers:         os.Getenv("DOCAUTH_KAFKA_BROKERS"),
			FunnelTopic:     getEnv("DOCAUTH_FUNNEL_TOPIC", "docauth.funnel.events"),
			DeliveryTimeout: 10 * time.Second,
		},
		Vendor: VendorConfig{
			Backend:        getEnv("DOCAUTH_VENDOR_BACKEND", "fixture"),
			BaseURL:        os.Getenv("DOCAUTH_VENDOR_BASE_URL"),
			AccountID:      os.Getenv("DOCAUTH_VENDOR_ACCOUNT_ID"),
			APIKey:         os.Getenv("DOCAUTH_VENDOR_API_KEY"),
			RequestTimeout: time.Duration(getEnvInt("DOCAUTH_VENDOR_TIMEOUT_SECONDS", 45)) * time.Second,
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
