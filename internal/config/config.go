package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// FallbackJWTSecret signs tokens when JWT_SECRET is not provided.
// Anything signed with it can be forged by whoever reads this file.
const FallbackJWTSecret = "a_fallback_secret_key_if_env_is_missing"

var ErrFallbackSecretInProd = errors.New("JWT_SECRET must be set when APP_ENV=prod")

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"https://bi-dashboard-pro.netlify.app",
	"https://business-intelligence-dashboard-ohbe.onrender.com",
}

type Config struct {
	Env   string
	Port  int
	Store string

	DBURL      string
	DBMaxConns int

	JWTSecret           string
	JWTSecretIsFallback bool
	TokenTTL            time.Duration
	BcryptCost          int

	CORSOrigins      []string
	MaxBodyBytes     int64
	AuthRateLimit    int
	AuthRateWindow   time.Duration
	CacheTTL         time.Duration
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	OTLPEndpoint     string
	LiveFeedEvery    time.Duration
	WorkerHealthPort int
}

// Load reads the process environment. A .env file in the working directory, if present,
// only fills variables that are not already set.
func Load() (Config, error) {
	_ = godotenv.Load()

	l := loader{}

	cfg := Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  l.int("PORT", 8000),
		Store: strings.ToLower(getEnv("STORE", StorePostgres)),

		DBURL:      buildDBURL(),
		DBMaxConns: l.int("DB_MAX_CONNS", 10),

		TokenTTL:   time.Duration(l.int("JWT_TTL_MINUTES", 60)) * time.Minute,
		BcryptCost: l.int("BCRYPT_COST", 10),

		CORSOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", ""), defaultCORSOrigins),
		MaxBodyBytes:     int64(l.int("MAX_BODY_BYTES", 1<<20)),
		AuthRateLimit:    l.int("AUTH_RATE_LIMIT", 20),
		AuthRateWindow:   time.Duration(l.int("AUTH_RATE_WINDOW_SECONDS", 60)) * time.Second,
		CacheTTL:         time.Duration(l.int("CACHE_TTL_SECONDS", 30)) * time.Second,
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          l.int("REDIS_DB", 0),
		OTLPEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		LiveFeedEvery:    time.Duration(l.int("LIVEFEED_INTERVAL_SECONDS", 8)) * time.Second,
		WorkerHealthPort: l.int("WORKER_HEALTH_PORT", 8081),
	}

	if l.err != nil {
		return Config{}, l.err
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if cfg.Env == "prod" {
			return Config{}, ErrFallbackSecretInProd
		}
		cfg.JWTSecret = FallbackJWTSecret
		cfg.JWTSecretIsFallback = true
	}

	if cfg.Store != StorePostgres && cfg.Store != StoreMemory {
		return Config{}, fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.Store)
	}

	return cfg, nil
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	pass := getEnv("DB_PASSWORD", "postgres")
	name := getEnv("DB_NAME", "dashboard_db")
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

// loader keeps the first parse failure so Load can report it once.
type loader struct {
	err error
}

func (l *loader) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	num, err := strconv.Atoi(v)
	if err != nil {
		if l.err == nil {
			l.err = fmt.Errorf("%s: %w", key, err)
		}
		return fallback
	}

	return num
}

func splitList(raw string, fallback []string) []string {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}
