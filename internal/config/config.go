package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	defaultJWTSecret = "your-secret-key-change-in-production"
)

type Config struct {
	Environment          string // ENV: production, development, etc.
	Port                 string
	StoreDriver          string // mongo, postgres or memory
	MongoURI             string
	PostgresURI          string
	RedisURI             string // empty disables the Redis rate limiter
	JWTSecret            string
	AllowedOrigins       []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	LogLevel             string
	LogFormat            string
	TrustProxy           bool // read the client IP from X-Forwarded-For
	PublishRequiresOwner bool
	RequestTimeout       time.Duration
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}

	logFormat := "text"
	if env == "production" {
		logFormat = "json"
	}

	return &Config{
		Environment:          env,
		Port:                 getEnv("PORT", "8080"),
		StoreDriver:          strings.ToLower(strings.TrimSpace(getEnv("STORE_DRIVER", StoreMongo))),
		MongoURI:             getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/journal")),
		PostgresURI:          getEnv("POSTGRES_URI", "postgres://localhost:5432/journal?sslmode=disable"),
		RedisURI:             getEnv("REDIS_URI", ""),
		JWTSecret:            getEnv("JWT_SECRET", defaultJWTSecret),
		AllowedOrigins:       allowedOrigins,
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", logFormat),
		TrustProxy:           getBool("TRUST_PROXY", false),
		PublishRequiresOwner: getBool("PUBLISH_REQUIRES_OWNER", false),
		RequestTimeout:       getDuration("REQUEST_TIMEOUT", 10*time.Second),
	}
}

// Validate rejects settings the server can't start with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMongo, StorePostgres, StoreMemory:
	default:
		return errors.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.IsProduction() && c.StoreDriver == StoreMemory {
		return errors.New("memory store is not allowed in production")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return value
}
