package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is the process configuration. It is built once in main and handed
// to constructors; nothing reads the environment after startup.
type Config struct {
	HTTP     HTTPConfig
	DB       DBConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Store    StoreSettings
	SMTP     SMTPConfig
	Payment  PaymentConfig
	Worker   WorkerConfig
	Checkout CheckoutLimits
	Log      LogConfig
}

type HTTPConfig struct {
	Addr          string
	AllowedOrigin string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig: an empty Addr means per-user locks stay in-process.
type RedisConfig struct {
	Addr    string
	LockTTL time.Duration
}

// KafkaConfig: no brokers means order events are not published.
type KafkaConfig struct {
	Brokers    []string
	OrderTopic string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// StoreSettings are the admin-facing shop settings.
type StoreSettings struct {
	Name                    string
	Currency                string
	OrderEmailNotifications bool
}

// SMTPConfig: an empty Host means emails are written to the log instead.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromName    string
	FromAddress string
}

type PaymentConfig struct {
	SuccessRate float64
	Latency     time.Duration
	Timeout     time.Duration
}

type WorkerConfig struct {
	PendingOrderTTL time.Duration
	SweepInterval   time.Duration
}

type CheckoutLimits struct {
	RatePerSecond float64
	Burst         int
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("could not find or load .env file, relying on system environment variables")
	}
	return FromLookup(os.Getenv)
}

// FromLookup builds a Config from any key lookup function.
func FromLookup(getenv func(string) string) (*Config, error) {
	e := env{get: getenv}

	cfg := &Config{
		HTTP: HTTPConfig{
			Addr:          e.str("HTTP_ADDR", ":8080"),
			AllowedOrigin: e.str("CORS_ALLOWED_ORIGIN", "http://localhost:5173"),
		},
		DB: DBConfig{
			DSN:             withParseTime(e.str("DB_DSN_PRIMARY", "")),
			MaxOpenConns:    e.int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    e.int("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: e.duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:    e.str("REDIS_ADDR", ""),
			LockTTL: e.duration("LOCK_TTL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    e.list("KAFKA_BROKERS"),
			OrderTopic: e.str("KAFKA_ORDER_TOPIC", "orders"),
		},
		JWT: JWTConfig{
			Secret: e.str("JWT_SECRET", ""),
			TTL:    e.duration("JWT_TTL", 72*time.Hour),
		},
		Store: StoreSettings{
			Name:                    e.str("STORE_NAME", "TV Shop"),
			Currency:                e.str("STORE_CURRENCY", "INR"),
			OrderEmailNotifications: e.bool("ORDER_EMAIL_NOTIFICATIONS", true),
		},
		SMTP: SMTPConfig{
			Host:        e.str("SMTP_HOST", ""),
			Port:        e.int("SMTP_PORT", 587),
			Username:    e.str("SMTP_USERNAME", ""),
			Password:    e.str("SMTP_PASSWORD", ""),
			FromName:    e.str("SMTP_FROM_NAME", ""),
			FromAddress: e.str("SMTP_FROM_ADDRESS", ""),
		},
		Payment: PaymentConfig{
			SuccessRate: e.float("PAYMENT_SUCCESS_RATE", 0.8),
			Latency:     e.duration("PAYMENT_LATENCY", time.Second),
			Timeout:     e.duration("PAYMENT_TIMEOUT", 10*time.Second),
		},
		Worker: WorkerConfig{
			PendingOrderTTL: e.duration("PENDING_ORDER_TTL", 30*time.Minute),
			SweepInterval:   e.duration("SWEEP_INTERVAL", 5*time.Minute),
		},
		Checkout: CheckoutLimits{
			RatePerSecond: e.float("CHECKOUT_RATE", 1),
			Burst:         e.int("CHECKOUT_BURST", 3),
		},
		Log: LogConfig{
			Level:  e.str("LOG_LEVEL", "info"),
			Pretty: e.bool("LOG_PRETTY", false),
		},
	}

	if len(e.errs) > 0 {
		return nil, errors.Join(e.errs...)
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("DB_DSN_PRIMARY is not set"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	if c.Payment.SuccessRate < 0 || c.Payment.SuccessRate > 1 {
		errs = append(errs, fmt.Errorf("PAYMENT_SUCCESS_RATE must be within [0,1], got %v", c.Payment.SuccessRate))
	}
	if c.Payment.Timeout <= 0 {
		errs = append(errs, errors.New("PAYMENT_TIMEOUT must be positive"))
	}
	if c.Redis.LockTTL <= c.Payment.Timeout {
		errs = append(errs, errors.New("LOCK_TTL must exceed PAYMENT_TIMEOUT"))
	}
	if c.SMTP.Host != "" && c.SMTP.FromAddress == "" {
		errs = append(errs, errors.New("SMTP_FROM_ADDRESS is required when SMTP_HOST is set"))
	}
	return errors.Join(errs...)
}

// withParseTime makes sure DATETIME columns scan into time.Time.
func withParseTime(dsn string) string {
	if dsn == "" || strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

type env struct {
	get  func(string) string
	errs []error
}

func (e *env) str(key, fallback string) string {
	if v := e.get(key); v != "" {
		return v
	}
	return fallback
}

func (e *env) int(key string, fallback int) int {
	v := e.get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return n
}

func (e *env) float(key string, fallback float64) float64 {
	v := e.get(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return f
}

func (e *env) bool(key string, fallback bool) bool {
	v := e.get(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return b
}

func (e *env) duration(key string, fallback time.Duration) time.Duration {
	v := e.get(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return d
}

func (e *env) list(key string) []string {
	v := e.get(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
