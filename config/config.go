package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	HTTP         ServerConfig
	Database     DatabaseConfig
	Log          LogConfig
	Auth         AuthConfig
	Stripe       StripeConfig
	Pricing      PricingConfig
	Reservations ReservationsConfig
	Payments     PaymentsConfig
	Jobs         JobsConfig
	CORS         CORSConfig
	Redis        RedisConfig
	RateLimit    RateLimitConfig
	RabbitMQ     RabbitMQConfig
	Metrics      MetricsConfig
}

type AppConfig struct {
	ServiceName string
	RoomsFile   string
}

type ServerConfig struct {
	Host string
	Port string
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	AdminUsername     string
	AdminPasswordHash string
}

type StripeConfig struct {
	SecretKey                 string
	WebhookSecret             string
	APIBaseURL                string
	SuccessURL                string
	CancelURL                 string
	SignatureToleranceSeconds int64
	HTTPTimeout               time.Duration
}

// PricingConfig amounts are in cents.
type PricingConfig struct {
	Currency       string
	BaseCents      int64
	PerPersonCents int64
	MinPersons     int
	MaxPersons     int
}

type ReservationsConfig struct {
	MinPartySize int
	MaxPartySize int
	AutoConfirm  bool
	Timezone     string
}

type PaymentsConfig struct {
	SessionExpiry       time.Duration
	ReconcileStaleAfter time.Duration
	JobBatchSize        int32
}

type JobsConfig struct {
	ReconcileInterval    time.Duration
	SweepOrphansInterval time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

type RabbitMQConfig struct {
	URL   string
	Queue string
}

type MetricsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		return nil, errors.New("DB_DSN environment variable is required")
	}
	driver := strings.ToLower(getEnv("DB_DRIVER", "mysql"))
	if driver != "mysql" && driver != "sqlite3" {
		return nil, errors.New("DB_DRIVER must be mysql or sqlite3")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "reservations-service"),
			RoomsFile:   getEnv("ROOMS_FILE", "configs/rooms.yaml"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Driver:          driver,
			DSN:             dsn,
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("DB_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:         jwtSecret,
			TokenTTL:          getMinutesEnv("JWT_TTL_MINUTES", 24*time.Hour),
			AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
			AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Stripe: StripeConfig{
			SecretKey:                 getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret:             getEnv("STRIPE_WEBHOOK_SECRET", ""),
			APIBaseURL:                getEnv("STRIPE_API_BASE_URL", "https://api.stripe.com"),
			SuccessURL:                getEnv("STRIPE_SUCCESS_URL", "http://localhost:3000/reservation/success?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:                 getEnv("STRIPE_CANCEL_URL", "http://localhost:3000/reservation/cancel"),
			SignatureToleranceSeconds: int64(getIntEnv("STRIPE_SIGNATURE_TOLERANCE_SECONDS", 300)),
			HTTPTimeout:               getSecondsEnv("STRIPE_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Pricing: PricingConfig{
			Currency:       strings.ToLower(getEnv("PRIVATIZATION_CURRENCY", "eur")),
			BaseCents:      int64(getIntEnv("PRIVATIZATION_BASE_CENTS", 50000)),
			PerPersonCents: int64(getIntEnv("PRIVATIZATION_PER_PERSON_CENTS", 2000)),
			MinPersons:     getIntEnv("PRIVATIZATION_MIN_PERSONS", 10),
			MaxPersons:     getIntEnv("PRIVATIZATION_MAX_PERSONS", 50),
		},
		Reservations: ReservationsConfig{
			MinPartySize: getIntEnv("RESERVATIONS_MIN_PARTY_SIZE", 1),
			MaxPartySize: getIntEnv("RESERVATIONS_MAX_PARTY_SIZE", 50),
			AutoConfirm:  getBoolEnv("RESERVATIONS_AUTO_CONFIRM", true),
			Timezone:     getEnv("RESERVATIONS_TIMEZONE", "Europe/Paris"),
		},
		Payments: PaymentsConfig{
			SessionExpiry:       getMinutesEnv("STRIPE_SESSION_EXPIRY_MINUTES", 30*time.Minute),
			ReconcileStaleAfter: getMinutesEnv("PAYMENTS_RECONCILE_STALE_AFTER_MINUTES", 15*time.Minute),
			JobBatchSize:        int32(getIntEnv("PAYMENTS_JOB_BATCH_SIZE", 100)),
		},
		Jobs: JobsConfig{
			ReconcileInterval:    getMinutesEnv("PAYMENTS_RECONCILE_INTERVAL_MINUTES", 2*time.Minute),
			SweepOrphansInterval: getMinutesEnv("RESERVATIONS_SWEEP_INTERVAL_MINUTES", 5*time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getBoolEnv("RATE_LIMIT_ENABLED", true),
			Capacity:       getIntEnv("RATE_LIMIT_CAPACITY", 20),
			RefillTokens:   getIntEnv("RATE_LIMIT_REFILL_TOKENS", 1),
			RefillInterval: getSecondsEnv("RATE_LIMIT_REFILL_INTERVAL_SECONDS", 3*time.Second),
			TTL:            getMinutesEnv("RATE_LIMIT_TTL_MINUTES", 15*time.Minute),
			Prefix:         getEnv("RATE_LIMIT_PREFIX", "reservations:rl"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   getEnv("RABBITMQ_URL", ""),
			Queue: getEnv("RABBITMQ_QUEUE", "reservations.events"),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("METRICS_ENABLED", true),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	items := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
