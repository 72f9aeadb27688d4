package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Support      SupportConfig
	Session      SessionConfig
	Gateway      GatewayConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. An empty DSN selects the
// in-memory ticket store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SupportConfig carries the support-desk policy knobs.
type SupportConfig struct {
	// StaffChannel is the shared channel where ticket cards are posted and
	// from which staff act.
	StaffChannel int64
	// MaxAttachments bounds attachments per ticket draft.
	MaxAttachments int
	// NotifyOnTake controls whether an explicit take notifies the requester.
	// Default is silent (internal-only status change).
	NotifyOnTake bool
	// MediaDuringConfirm controls whether attachments are still accepted
	// while the requester is confirming the draft.
	MediaDuringConfirm bool
	// CatalogPath optionally points at a YAML file overriding message texts.
	CatalogPath string
}

// SessionConfig configures intake session storage.
type SessionConfig struct {
	// Backend selects "memory" (bigcache) or "redis".
	Backend    string
	TTLMinutes int
}

// GatewayConfig configures both directions of the messaging gateway link:
// the inbound webhook the gateway pushes updates to, and the outbound REST
// API the bot sends messages through.
type GatewayConfig struct {
	// WebhookSecret signs the bearer tokens the gateway presents. Empty
	// disables webhook authentication (development only).
	WebhookSecret string
	// BaseURL is the gateway REST endpoint, e.g. "https://gw.local/v1".
	BaseURL string
	// APIToken authenticates outbound calls to the gateway.
	APIToken string
	// RequestTimeoutSeconds bounds each outbound gateway call.
	RequestTimeoutSeconds int
}

// NotificationConfig holds the optional operational webhook endpoint.
type NotificationConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	staffChannel, err := strconv.ParseInt(getEnv("SUPPORT_STAFF_CHANNEL", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SUPPORT_STAFF_CHANNEL: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-bot"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Support: SupportConfig{
			StaffChannel:       staffChannel,
			MaxAttachments:     getEnvAsInt("SUPPORT_MAX_ATTACHMENTS", 5),
			NotifyOnTake:       getEnvAsBool("SUPPORT_NOTIFY_ON_TAKE", false),
			MediaDuringConfirm: getEnvAsBool("SUPPORT_MEDIA_DURING_CONFIRM", true),
			CatalogPath:        os.Getenv("SUPPORT_CATALOG_PATH"),
		},
		Session: SessionConfig{
			Backend:    getEnv("SESSION_BACKEND", "memory"),
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 120),
		},
		Gateway: GatewayConfig{
			WebhookSecret:         os.Getenv("GATEWAY_WEBHOOK_SECRET"),
			BaseURL:               os.Getenv("GATEWAY_BASE_URL"),
			APIToken:              os.Getenv("GATEWAY_API_TOKEN"),
			RequestTimeoutSeconds: getEnvAsInt("GATEWAY_REQUEST_TIMEOUT_SECONDS", 10),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// RequestTimeout returns the outbound gateway call timeout.
func (g GatewayConfig) RequestTimeout() time.Duration {
	if g.RequestTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(g.RequestTimeoutSeconds) * time.Second
}

// TTL returns the session lifetime.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
