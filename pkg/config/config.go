package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	Postgres PostgresConfig

	// EngagementDriver selects the blog_stats store: "postgres" or "sqlite".
	EngagementDriver string
	SQLitePath       string

	MongoURI    string
	MongoDBName string

	RedisAddr     string
	RedisPassword string

	// RateLimitBackend is "memory" or "redis".
	RateLimitBackend string

	KafkaBrokers     []string
	OrderEventsTopic string

	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentTimeout      time.Duration
	Currency            string

	Mail MailConfig

	MerchFeedURL string
	BlogFeedURL  string
	JobsFeedURL  string
	FeedTimeout  time.Duration
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	AdminTo  string
}

// Configured reports whether outgoing mail can be sent.
func (m MailConfig) Configured() bool {
	return m.Host != "" && m.User != "" && m.Password != ""
}

// Load reads the process environment. A .env file in the working directory is
// applied first when present; variables already set win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_BYTES", 10<<20)), // resumes arrive base64 encoded

		Postgres: PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "sangha"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		EngagementDriver: strings.ToLower(getEnv("ENGAGEMENT_DRIVER", "postgres")),
		SQLitePath:       getEnv("SQLITE_PATH", "blog_stats.db"),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "storefront"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		RateLimitBackend: strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory")),

		KafkaBrokers:     getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
		OrderEventsTopic: getEnv("ORDER_EVENTS_TOPIC", "order-events"),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		PaymentTimeout:      getEnvDuration("PAYMENT_TIMEOUT", 15*time.Second),
		Currency:            strings.ToLower(getEnv("CURRENCY", "usd")),

		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvInt("SMTP_PORT", 587),
			User:     getEnv("EMAIL_USER", ""),
			Password: getEnv("EMAIL_PASS", ""),
			AdminTo:  getEnv("EMAIL_TO", ""),
		},

		MerchFeedURL: getEnv("MERCH_FEED_URL", ""),
		BlogFeedURL:  getEnv("BLOG_FEED_URL", ""),
		JobsFeedURL:  getEnv("JOBS_FEED_URL", ""),
		FeedTimeout:  getEnvDuration("FEED_TIMEOUT", 10*time.Second),
	}
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
