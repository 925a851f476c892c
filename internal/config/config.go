package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const minJWTSecretLength = 32

// Config contains runtime configuration values.
type Config struct {
	Environment             string
	HTTPPort                string
	DatabaseURL             string
	AutoMigrate             bool
	AdminEmail              string
	AdminPassword           string
	AdminOrganization       string
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	JWTSecret               string
	JWTIssuer               string
	AccessTokenTTL          time.Duration
	RefreshTokenTTL         time.Duration
	VerificationTokenTTL    time.Duration
	PasswordResetTokenTTL   time.Duration
	EphemeralTokenRetention time.Duration
	AccountDeletionGrace    time.Duration
	DeletionSweepInterval   time.Duration
	FrontendURL             string
	InternalAPIKey          string
	ServiceName             string
	RateLimitRPM            int
	AuthRateLimitRPM        int
	TelemetryEndpoint       string
	TelemetryInsecure       bool
	TraceSampleRatio        float64
	CORSAllowedOrigins      []string
	CORSAllowedMethods      []string
	CORSAllowedHeaders      []string
	CORSAllowCredentials    bool
	MailWorkers             int
	MailQueueSize           int
	Mail                    MailConfig
}

// MailConfig holds SMTP settings. An empty Host routes mail to the log.
type MailConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" envDefault:"HypertroQ <no-reply@hypertroq.local>"`
}

// Enabled reports whether an SMTP relay is configured.
func (m MailConfig) Enabled() bool {
	return strings.TrimSpace(m.Host) != ""
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	mail, err := env.ParseAs[MailConfig]()
	if err != nil {
		return Config{}, fmt.Errorf("parse mail config: %w", err)
	}

	cfg := Config{
		Environment:             getEnv("APP_ENV", "development"),
		HTTPPort:                getEnv("HTTP_PORT", "8080"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		AutoMigrate:             getBool("AUTO_MIGRATE", true),
		AdminEmail:              strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword:           os.Getenv("ADMIN_PASSWORD"),
		AdminOrganization:       getEnv("ADMIN_ORGANIZATION", "HypertroQ"),
		RedisAddr:               getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 getInt("REDIS_DB", 0),
		JWTSecret:               os.Getenv("JWT_SECRET"),
		JWTIssuer:               getEnv("JWT_ISSUER", "hypertroq"),
		AccessTokenTTL:          getDuration("ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL:         getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		VerificationTokenTTL:    getDuration("VERIFICATION_TOKEN_TTL", 24*time.Hour),
		PasswordResetTokenTTL:   getDuration("PASSWORD_RESET_TOKEN_TTL", time.Hour),
		EphemeralTokenRetention: getDuration("EPHEMERAL_TOKEN_RETENTION", 24*time.Hour),
		AccountDeletionGrace:    getDuration("ACCOUNT_DELETION_GRACE", 30*24*time.Hour),
		DeletionSweepInterval:   getDuration("DELETION_SWEEP_INTERVAL", time.Hour),
		FrontendURL:             strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		InternalAPIKey:          os.Getenv("INTERNAL_API_KEY"),
		ServiceName:             getEnv("SERVICE_NAME", "hypertroq-api"),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 600),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 30),
		TelemetryEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:       getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		TraceSampleRatio:        getFloat("OTEL_TRACES_SAMPLE_RATIO", 1),
		CORSAllowedOrigins:      getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:      getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		CORSAllowedHeaders:      getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type", "X-Request-ID"}),
		CORSAllowCredentials:    getBool("CORS_ALLOW_CREDENTIALS", false),
		MailWorkers:             getInt("MAIL_WORKERS", 2),
		MailQueueSize:           getInt("MAIL_QUEUE_SIZE", 256),
		Mail:                    mail,
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < minJWTSecretLength {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretLength)
	}
	if (cfg.AdminEmail == "") != (strings.TrimSpace(cfg.AdminPassword) == "") {
		return Config{}, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	cfg.TraceSampleRatio = min(max(cfg.TraceSampleRatio, 0), 1)

	if cfg.MailWorkers < 1 {
		cfg.MailWorkers = 1
	}
	if cfg.MailQueueSize < 1 {
		cfg.MailQueueSize = 1
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
