package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Lock backends accepted in LOCK_BACKEND.
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Redis, rate limit and cache settings live in
// their own structs (see redis.go, ratelimit.go and cache.go) because they
// are optional and carry their own defaults.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret used to verify access tokens

	StoreTimeout    time.Duration // bound on every booking store call
	ShutdownTimeout time.Duration // grace period for in-flight requests
	LockBackend     string        // "memory" or "redis"
	LockTTL         time.Duration // expiry of a Redis room lock
	LockPrefix      string        // Redis key prefix for room locks

	LogLevel  string // zap level: debug, info, warn, error
	LogFormat string // "json" or "console"

	AMQPURL        string // RabbitMQ URL; empty disables event publishing
	EventsExchange string // topic exchange booking events are published to
	AuditQueue     string // queue the audit worker consumes from
	AuditLogPath   string // file the audit worker appends to

	AutoMigrate bool           // apply pending migrations when the server starts
	Location    *time.Location // campus time zone (CAMPUS_TZ) used for calendar export
}

// Load reads an optional .env file and then configuration values from
// environment variables.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		Env:       must("APP_ENV"),      // environment (dev/test/prod)
		Port:      must("APP_PORT"),     // port to bind the HTTP server
		DBUser:    must("DB_USER"),      // database user
		DBPass:    os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:    must("DB_HOST"),      // database host
		DBPort:    must("DB_PORT"),      // database port
		DBName:    must("DB_NAME"),      // database name
		JWTSecret: must("JWT_SECRET"),   // secret used for verifying JWTs

		StoreTimeout:    envDur("STORE_TIMEOUT", 3*time.Second),
		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
		LockBackend:     strings.ToLower(envStr("LOCK_BACKEND", LockBackendMemory)),
		LockTTL:         envDur("LOCK_TTL", 10*time.Second),
		LockPrefix:      envStr("LOCK_PREFIX", "roomlock"),

		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "json"),

		AMQPURL:        amqpURL(),
		EventsExchange: envStr("EVENTS_EXCHANGE", "room_booking"),
		AuditQueue:     envStr("AUDIT_QUEUE", "booking.audit"),
		AuditLogPath:   envStr("AUDIT_LOG_PATH", "logs/booking.log"),

		AutoMigrate: envBool("DB_AUTO_MIGRATE", true),
	}
	loc, err := time.LoadLocation(envStr("CAMPUS_TZ", "UTC"))
	if err != nil {
		log.Fatalf("invalid CAMPUS_TZ: %v", err)
	}
	cfg.Location = loc
	if cfg.LockBackend != LockBackendMemory && cfg.LockBackend != LockBackendRedis {
		log.Fatalf("invalid LOCK_BACKEND %q: want %q or %q", cfg.LockBackend, LockBackendMemory, LockBackendRedis)
	}
	if cfg.StoreTimeout <= 0 {
		log.Fatalf("STORE_TIMEOUT must be positive, got %s", cfg.StoreTimeout)
	}
	return cfg
}

// LoadDevToken returns the signing secret and token lifetime used by
// cmd/devtoken.  Only JWT_SECRET is required.
func LoadDevToken() (secret string, ttl time.Duration) {
	_ = godotenv.Load()
	return must("JWT_SECRET"), time.Duration(envInt("ACCESS_TOKEN_TTL_MIN", 60)) * time.Minute
}

// amqpURL accepts RABBITMQ_URL and the older AMQP_URL.
func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
