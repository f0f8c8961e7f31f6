// Package config loads the process-wide settings once at startup. Values are
// read from the environment, optionally seeded from a .env.dev file, and are
// never mutated afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

var ErrMissingSecret = errors.New("JWT_SECRET environment variable is not set")

type Config struct {
	ServiceName string
	AppPort     string
	AppEnv      string

	JWTSecret  string
	SessionTTL time.Duration

	StoreDriver string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	UserCacheTTL  time.Duration

	NatsURL string

	OtelEndpoint string

	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
}

// Load reads .env.dev when present and then the environment. A missing
// JWT_SECRET is reported as ErrMissingSecret.
func Load() (*Config, error) {
	if err := godotenv.Load(".env.dev"); err != nil {
		fmt.Println("No .env.dev file found, reading from environment variables")
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		ServiceName:    "task-service",
		AppPort:        getEnv("APP_PORT", "8080"),
		AppEnv:         getEnv("APP_ENV", "development"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		StoreDriver:    getEnv("STORE_DRIVER", StorePostgres),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBName:         os.Getenv("DB_NAME"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "tasks"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		NatsURL:        os.Getenv("NATS_URL"),
		OtelEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3Region:       getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:       os.Getenv("S3_BUCKET_NAME"),
		S3AccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
		S3SecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
		S3UsePathStyle: os.Getenv("S3_USE_PATH_STYLE") == "true",
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingSecret
	}

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.UserCacheTTL, err = getDuration("USER_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	redisDB := os.Getenv("REDIS_DB")
	if redisDB != "" {
		cfg.RedisDB, err = strconv.Atoi(redisDB)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", redisDB, err)
		}
	}

	switch cfg.StoreDriver {
	case StorePostgres, StoreMongo, StoreMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) DatabaseURL() string {
	return postgresURL(c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// DatabaseURLFromEnv builds the Postgres URL without loading the rest of the
// configuration, so migrations can run without a session secret.
func DatabaseURLFromEnv() string {
	_ = godotenv.Load(".env.dev")
	return postgresURL(
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		os.Getenv("DB_NAME"),
	)
}

func postgresURL(user, password, host, port, name string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
}

// S3Enabled reports whether avatar upload presigning is configured.
func (c *Config) S3Enabled() bool {
	return c.S3Endpoint != "" && c.S3Bucket != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
