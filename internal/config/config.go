// Package config reads the service configuration from the environment.
// A .env file in the working directory is loaded first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"

	AuthClerk    = "clerk"
	AuthFirebase = "firebase"
	// AuthLocal accepts HS256 tokens signed with LOCAL_AUTH_SECRET. Meant
	// for development against the sqlite backend.
	AuthLocal = "local"
)

type Config struct {
	Port string

	StoreBackend string
	DatabaseURL  string
	SQLitePath   string

	AuthProvider   string
	ClerkSecretKey string
	// ClerkWebhookSecret enables signature checks on /webhooks/clerk.
	ClerkWebhookSecret string

	// FirebaseCredentialsB64 holds a base64 service account JSON. When empty
	// FirebaseCredentialsFile is used instead.
	FirebaseCredentialsB64  string
	FirebaseCredentialsFile string
	FirebaseProjectID       string

	LocalAuthSecret string

	DefaultTimezone *time.Location

	RateLimit float64
	RateBurst int

	LogLevel string
	LogFile  string
	LogJSON  bool

	MetricsUser string
	MetricsPass string
}

// Load reads the environment and validates that the selected store and auth
// provider have what they need.
func Load() (*Config, error) {
	// Missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", "3333"),
		StoreBackend:            strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		SQLitePath:              getEnv("SQLITE_PATH", "./data/habits.db"),
		AuthProvider:            strings.ToLower(getEnv("AUTH_PROVIDER", AuthClerk)),
		ClerkSecretKey:          os.Getenv("CLERK_SECRET_KEY"),
		ClerkWebhookSecret:      os.Getenv("CLERK_WEBHOOK_SECRET"),
		FirebaseCredentialsB64:  os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", "./serviceAccountKey.json"),
		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		LocalAuthSecret:         os.Getenv("LOCAL_AUTH_SECRET"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFile:                 os.Getenv("LOG_FILE"),
		MetricsUser:             os.Getenv("METRICS_USER"),
		MetricsPass:             os.Getenv("METRICS_PASS"),
	}

	var err error
	if cfg.LogJSON, err = getBool("LOG_JSON", false); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getFloat("RATE_LIMIT_RPS", 5); err != nil {
		return nil, err
	}
	if cfg.RateBurst, err = getInt("RATE_LIMIT_BURST", 30); err != nil {
		return nil, err
	}

	tz := getEnv("DEFAULT_TIMEZONE", "UTC")
	if cfg.DefaultTimezone, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("DEFAULT_TIMEZONE %q: %w", tz, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH must be set for the sqlite backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL environment variable is not set")
		}
	case BackendFirestore:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.AuthProvider {
	case AuthClerk:
		if c.ClerkSecretKey == "" {
			return errors.New("CLERK_SECRET_KEY environment variable is not set")
		}
	case AuthFirebase:
	case AuthLocal:
		if len(c.LocalAuthSecret) < 32 {
			return errors.New("LOCAL_AUTH_SECRET must be at least 32 bytes")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}

	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// NeedsFirebase reports whether a Firebase app has to be initialized.
func (c *Config) NeedsFirebase() bool {
	return c.StoreBackend == BackendFirestore || c.AuthProvider == AuthFirebase
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
