// Package config loads authguard's environment-driven configuration,
// keeping IANDYI-care-service's load-with-defaults-and-panic-on-required
// shape but replacing its RSA-public-key/RabbitMQ-babies settings with the
// JWT secret, master/replica DSNs, Redis and rate-limit knobs this service
// actually needs.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every environment-derived setting authguard's main.go wires
// into its adapters.
type Config struct {
	// Server
	Port string

	// Database (master for commands, optional replica for queries)
	DatabaseURL        string
	DatabaseReplicaURL string

	// Redis (Cache component A, SharedLock component B)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT (component D)
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// RabbitMQ mirror for the EventBus (component M's fire-and-forget half)
	RabbitMQURL    string
	EventQueueName string

	// Rate limiting, public routes only
	PublicRateLimitPerMinute int

	// Circuit breaker tuning shared by every RepositoryGateway breaker
	CircuitBreakerMaxRequests uint32
	CircuitBreakerInterval    time.Duration
	CircuitBreakerTimeout     time.Duration
}

// Load reads configuration from environment variables, panicking on a
// missing required value the way IANDYI-care-service's Load does for
// DB_CONNECTION_STRING.
func Load() *Config {
	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" {
		panic("DB_CONNECTION_STRING environment variable is required")
	}

	jwtSecret := os.Getenv("SECURITY_JWT_SECRET")
	if jwtSecret == "" {
		panic("SECURITY_JWT_SECRET environment variable is required")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	rateLimit := 5
	if v := os.Getenv("SECURITY_PUBLIC_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			rateLimit = n
		}
	}

	return &Config{
		Port: port,

		DatabaseURL:        dbURL,
		DatabaseReplicaURL: os.Getenv("DB_REPLICA_CONNECTION_STRING"),

		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		JWTSecret:   jwtSecret,
		JWTIssuer:   envOr("SECURITY_JWT_ISSUER", "authguard"),
		JWTAudience: envOr("SECURITY_JWT_AUDIENCE", "authguard-clients"),

		RabbitMQURL:    os.Getenv("APP_RABBITMQ_URL"),
		EventQueueName: envOr("APP_EVENT_QUEUE_NAME", "authguard_events"),

		PublicRateLimitPerMinute: rateLimit,

		CircuitBreakerMaxRequests: parseUint32(os.Getenv("CIRCUIT_BREAKER_MAX_REQUESTS"), 5),
		CircuitBreakerInterval:    parseDuration(os.Getenv("CIRCUIT_BREAKER_INTERVAL"), 60*time.Second),
		CircuitBreakerTimeout:     parseDuration(os.Getenv("CIRCUIT_BREAKER_TIMEOUT"), 30*time.Second),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseUint32 replaces the teacher's CIRCUIT_BREAKER_MAX_REQUESTS no-op
// (the value was read but never parsed); an unparsable or absent value
// falls back to def.
func parseUint32(raw string, def uint32) uint32 {
	if raw == "" {
		return def
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return def
	}
	return uint32(n)
}

func parseDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
