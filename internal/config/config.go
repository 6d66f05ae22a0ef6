package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port        string
	AppEnv      string
	LogLevel    string
	CORSOrigins string
	DebugErrors bool

	// Store
	StoreDriver    string
	DatabaseURL    string
	DBQueryTimeout time.Duration

	// Response cache / rate limiting
	CacheBackend  string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Identity
	AuthProvider            string
	FirebaseCredentialsPath string
	FirebaseProjectID       string
	JWTSecret               string

	// Catalog management
	AdminKeyHash string

	// Accounts
	DefaultCoins int

	// Media host
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	// Error reporting
	SentryDSN string

	// Rate limits, per actor per minute
	PostRateLimit    int
	StoryRateLimit   int
	CommentRateLimit int

	// Worker
	WorkerInterval time.Duration
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "5000"),
		AppEnv:      getEnv("APP_ENV", "production"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		DebugErrors: getBool("DEBUG_ERRORS", false),

		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DBQueryTimeout: parseDuration(getEnv("DB_QUERY_TIMEOUT", "5s"), 5*time.Second),

		CacheBackend:  strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		CacheTTL:      parseDuration(getEnv("CACHE_TTL", "30s"), 30*time.Second),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		AuthProvider:            strings.ToLower(getEnv("AUTH_PROVIDER", "firebase")),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./serviceAccountKey.json"),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),

		AdminKeyHash: getEnv("ADMIN_KEY_HASH", ""),

		DefaultCoins: getInt("DEFAULT_COINS", 0),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", ""),
		MinIOUseSSL:    getBool("MINIO_USE_SSL", false),

		SentryDSN: getEnv("SENTRY_DSN", ""),

		PostRateLimit:    getInt("POST_RATE_LIMIT", 20),
		StoryRateLimit:   getInt("STORY_RATE_LIMIT", 20),
		CommentRateLimit: getInt("COMMENT_RATE_LIMIT", 60),

		WorkerInterval: parseDuration(getEnv("WORKER_INTERVAL", "1m"), time.Minute),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
