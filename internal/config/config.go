package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Configured reports whether enough is set to attempt real delivery.
func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.User != ""
}

type Config struct {
	Env  string
	Port int

	DBURL string

	SMTP SMTPConfig

	// Base URL of the ML prediction service, e.g. http://127.0.0.1:8000
	PredictorURL     string
	PredictorTimeout time.Duration

	JWTSecret string
	AccessTTL time.Duration

	RedisAddr     string
	RedisPassword string

	AllowedOrigins []string

	// OTP-issuing endpoints: requests per window per client
	RateLimit       int
	RateLimitWindow time.Duration

	TracingEnabled bool
	OTLPEndpoint   string
}

func Load() Config {
	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)

	return Config{
		Env:   env,
		Port:  port,
		DBURL: buildDBURL(),

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			User:     getEnv("EMAIL_USER", ""),
			Password: getEnv("EMAIL_PASS", ""),
			From:     getEnv("EMAIL_FROM", getEnv("EMAIL_USER", "")),
		},

		PredictorURL:     getEnv("PREDICTOR_URL", "http://127.0.0.1:8000"),
		PredictorTimeout: getEnvDuration("PREDICTOR_TIMEOUT", 10*time.Second),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		AccessTTL: getEnvDuration("ACCESS_TTL", 15*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),

		RateLimit:       getEnvInt("OTP_RATE_LIMIT", 5),
		RateLimitWindow: getEnvDuration("OTP_RATE_WINDOW", time.Minute),

		TracingEnabled: getEnv("OTEL_ENABLED", "") == "1",
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "solarml")
	pass := getEnv("DB_PASSWORD", "solarml")
	name := getEnv("DB_NAME", "solarml")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return d
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
