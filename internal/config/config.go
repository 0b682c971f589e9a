package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// DevJWTSecret signs tokens when JWT_SECRET is unset on the memory store.
const DevJWTSecret = "stackit-dev-secret"

type Config struct {
	Port string
	// StoreDriver is "postgres" or "memory". The memory store serializes every
	// transaction behind one mutex and loses its data on restart; it is meant
	// for development and tests.
	StoreDriver string
	DatabaseURL string
	LogSQL      bool
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string
	RedisURL    string

	// CookieSecure marks the auth cookie Secure; enable behind TLS.
	CookieSecure bool

	MeiliURL       string
	MeiliMasterKey string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
}

func Load() Config {
	return Config{
		Port:        getenv("PORT", "8080"),
		StoreDriver: strings.ToLower(getenv("STORE_DRIVER", "postgres")),
		DatabaseURL: getenv("DATABASE_URL", databaseURLFromParts()),
		LogSQL:      getenvBool("DB_LOG_SQL", false),
		JWTSecret:   getenv("JWT_SECRET", ""),
		TokenTTL:    time.Duration(getenvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		CORSOrigins: splitList(getenv("CORS_ORIGINS", "*")),
		RedisURL:    getenv("REDIS_URL", ""),

		CookieSecure: getenvBool("COOKIE_SECURE", false),

		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),

		// object storage is optional; avatar uploads are disabled without an endpoint
		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "avatars"),
		MinioUseSSL:    getenvBool("MINIO_USE_SSL", false),
		MinioPublicURL: getenv("MINIO_PUBLIC_URL", ""),

		TwilioAccountSID: getenv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getenv("TWILIO_AUTH_TOKEN", ""),
		TwilioFrom:       getenv("TWILIO_FROM_NUMBER", ""),
	}
}

// Validate checks settings Load cannot default safely. A missing JWT_SECRET is
// an error on postgres; on the memory store it falls back to DevJWTSecret.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		if c.StoreDriver == "postgres" {
			return errors.New("JWT_SECRET must be set when STORE_DRIVER=postgres")
		}
		slog.Warn("JWT_SECRET unset; signing tokens with the development secret")
		c.JWTSecret = DevJWTSecret
	}
	return nil
}

// databaseURLFromParts builds a DSN from the DB_* variables when DATABASE_URL is unset.
func databaseURLFromParts() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		getenv("DB_HOST", "localhost"),
		getenv("DB_PORT", "5432"),
		getenv("DB_USER", "stackit"),
		getenv("DB_PASSWORD", "stackit"),
		getenv("DB_NAME", "stackit"),
		getenv("DB_SSLMODE", "disable"),
	)
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
