package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me-in-production"

type Config struct {
	Environment     string
	ServerPort      string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	LogLevel        string

	FirebaseProject    string
	ServiceAccountJSON string
	ServiceAccountPath string
	StorageBackend     string
	StorageBucket      string
	UploadDir          string
	PublicBaseURL      string

	JWTSecret    string
	JWTExpiry    int64
	CookieName   string
	CookieSecure bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitRequests     int
	RateLimitWindow       time.Duration
	AuthRateLimitRequests int
	MessageRateLimit      int

	OrderAutoCompleteDays     int
	OrderAutoCompleteSchedule string
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", "development")

	config := &Config{
		Environment:     env,
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		AllowedOrigins:  getEnvAsList("ALLOWED_ORIGINS", defaultOrigins(env)),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", ""),

		FirebaseProject:    getEnv("FIREBASE_PROJECT_ID", ""),
		ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		StorageBackend:     getEnv("STORAGE_BACKEND", "local"),
		StorageBucket:      getEnv("STORAGE_BUCKET", ""),
		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),

		JWTSecret:    getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiry:    getEnvAsInt64("JWT_EXPIRY", 7*24*60*60), // 7 days
		CookieName:   getEnv("COOKIE_NAME", "gigmarket_token"),
		CookieSecure: getEnvAsBool("COOKIE_SECURE", env == "production"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       int(getEnvAsInt64("REDIS_DB", 0)),

		RateLimitRequests:     int(getEnvAsInt64("RATE_LIMIT_REQUESTS", 100)),
		RateLimitWindow:       getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		AuthRateLimitRequests: int(getEnvAsInt64("AUTH_RATE_LIMIT_REQUESTS", 10)),
		MessageRateLimit:      int(getEnvAsInt64("MESSAGE_RATE_LIMIT", 20)),

		OrderAutoCompleteDays:     int(getEnvAsInt64("ORDER_AUTO_COMPLETE_DAYS", 0)),
		OrderAutoCompleteSchedule: getEnv("ORDER_AUTO_COMPLETE_SCHEDULE", "@every 1h"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.FirebaseProject == "" {
		return fmt.Errorf("FIREBASE_PROJECT_ID is required")
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	switch c.StorageBackend {
	case "local":
	case "gcs":
		if c.StorageBucket == "" {
			return fmt.Errorf("STORAGE_BUCKET is required when STORAGE_BACKEND=gcs")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.RateLimitRequests <= 0 || c.AuthRateLimitRequests <= 0 || c.MessageRateLimit <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiry) * time.Second
}

func defaultOrigins(env string) string {
	if env == "production" {
		return ""
	}
	return "*"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
