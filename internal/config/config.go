package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	HTTPPort string

	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RoomCacheTTL  time.Duration
	JWTSecret     string
	NATSURL       string
	NATSSubject   string
	AllowedOrigin []string

	TickInterval       time.Duration
	PersistTimeout     time.Duration
	SessionIdleTimeout time.Duration
	DefaultTimeLimit   int // minutes

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, after an optional .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment")
	}

	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "codeduel"),

		RedisAddr:     strings.TrimPrefix(getEnv("REDIS_URI", "redis:6379"), "redis://"),
		RoomCacheTTL:  getEnvDuration("ROOM_CACHE_TTL", 24*time.Hour),
		JWTSecret:     getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		NATSURL:       getEnv("NATS_URL", ""),
		NATSSubject:   getEnv("NATS_SUBJECT", "codeduel.match.finished"),
		AllowedOrigin: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		TickInterval:       getEnvDuration("TICK_INTERVAL", time.Second),
		PersistTimeout:     getEnvDuration("PERSIST_TIMEOUT", 5*time.Second),
		SessionIdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		DefaultTimeLimit:   getEnvInt("DEFAULT_TIME_LIMIT_MINUTES", 5),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// SetupLogging configures the global zerolog logger.
func (c *Config) SetupLogging() {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if c.consoleLogging() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// consoleLogging reports whether human-readable output was asked for. Any
// other format logs JSON lines.
func (c *Config) consoleLogging() bool {
	return strings.EqualFold(strings.TrimSpace(c.LogFormat), "console")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Warn().Str("key", key).Str("value", val).Msg("invalid integer, using default")
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Warn().Str("key", key).Str("value", val).Msg("invalid duration, using default")
		return defaultVal
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
