package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	MetricsPort string

	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration

	// PostgresURL is optional; notifications are disabled without it.
	PostgresURL string

	LogLevel  string
	LogFormat string

	AccessTokenSecret  string
	AccessTokenTTL     time.Duration
	RefreshTokenSecret string
	RefreshTokenTTL    time.Duration

	CORSOrigins []string

	// FirebaseCredentialsPath is optional; Firebase login is disabled without it.
	FirebaseCredentialsPath string

	Media MediaConfig
}

// MediaConfig points at the S3-compatible bucket that stores uploaded media.
type MediaConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
	UploadDir string
}

// Load reads configuration from the environment, after loading .env when present.
func Load() *Config {
	// A missing .env file is fine; the process environment is used as-is.
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8000"),
		Env:         getEnv("ENV", "development"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "vidtube"),
		MongoTimeout:  getEnvAsDuration("MONGO_TIMEOUT", 10*time.Second),

		PostgresURL: getEnv("POSTGRES_URL", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		AccessTokenSecret:  getEnv("ACCESS_TOKEN_SECRET", ""),
		AccessTokenTTL:     getEnvAsDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTokenSecret: getEnv("REFRESH_TOKEN_SECRET", ""),
		RefreshTokenTTL:    getEnvAsDuration("REFRESH_TOKEN_TTL", 10*24*time.Hour),

		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"*"}),

		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),

		Media: MediaConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "vidtube-media"),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
			PublicURL: getEnv("MEDIA_PUBLIC_URL", "http://localhost:9000"),
			UploadDir: getEnv("UPLOAD_DIR", os.TempDir()),
		},
	}
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate checks the settings the server cannot start without. Development runs get
// throwaway token secrets so a bare checkout boots.
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI environment variable not set")
	}
	if c.MongoDatabase == "" {
		return fmt.Errorf("MONGO_DATABASE environment variable not set")
	}
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set in production")
		}
		if c.AccessTokenSecret == "" {
			c.AccessTokenSecret = "dev-access-secret"
		}
		if c.RefreshTokenSecret == "" {
			c.RefreshTokenSecret = "dev-refresh-secret"
		}
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return fmt.Errorf("access and refresh token secrets must differ")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
