package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port int

	// Remote API the console talks to.
	APIBaseURL string

	// Browser session handling.
	SessionSecret   string
	SessionTTLHours int
	SessionStore    string // memory | redis | postgres
	RedisURL        string
	DBURL           string

	CacheTTLSeconds int

	LoginRateLimit         int
	LoginRateWindowSeconds int

	OTLPEndpoint string
}

func Load() Config {
	return Config{
		Env:        getEnv("APP_ENV", "dev"),
		Port:       getEnvInt("PORT", 8080),
		APIBaseURL: getEnv("API_BASE_URL", "http://127.0.0.1:5000/api"),

		SessionSecret:   getEnv("SESSION_SECRET", "dev-session-secret"),
		SessionTTLHours: getEnvInt("SESSION_TTL_HOURS", 24*30),
		SessionStore:    getEnv("SESSION_STORE", "memory"),
		RedisURL:        getEnv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		DBURL:           buildDBURL(),

		CacheTTLSeconds: getEnvInt("CACHE_TTL_SECONDS", 30),

		LoginRateLimit:         getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindowSeconds: getEnvInt("LOGIN_RATE_WINDOW_SECONDS", 60),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
	}
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "console")
	pass := getEnv("DB_PASSWORD", "console")
	name := getEnv("DB_NAME", "console")
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
