package config

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "STORE_BACKEND", "DATABASE_URL", "SQLITE_PATH", "AUTH_PROVIDER",
	"CLERK_SECRET_KEY", "CLERK_WEBHOOK_SECRET", "FIREBASE_SERVICE_ACCOUNT_JSON",
	"FIREBASE_CREDENTIALS_FILE", "FIREBASE_PROJECT_ID", "LOCAL_AUTH_SECRET",
	"DEFAULT_TIMEZONE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL",
	"LOG_FILE", "LOG_JSON", "METRICS_USER", "METRICS_PASS",
}

// cleanEnv clears every variable Load reads and runs the test from an empty
// directory so no .env file is picked up.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)
	t.Setenv("CLERK_SECRET_KEY", "sk_test_123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3333", cfg.Port)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "./data/habits.db", cfg.SQLitePath)
	assert.Equal(t, AuthClerk, cfg.AuthProvider)
	assert.Equal(t, "UTC", cfg.DefaultTimezone.String())
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.Equal(t, 30, cfg.RateBurst)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogJSON)
	assert.False(t, cfg.NeedsFirebase())
}

func TestLoad_Overrides(t *testing.T) {
	cleanEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/habits")
	t.Setenv("AUTH_PROVIDER", "local")
	t.Setenv("LOCAL_AUTH_SECRET", strings.Repeat("k", 32))
	t.Setenv("DEFAULT_TIMEZONE", "Europe/Sofia")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("LOG_JSON", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, AuthLocal, cfg.AuthProvider)
	assert.Equal(t, "Europe/Sofia", cfg.DefaultTimezone.String())
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, 10, cfg.RateBurst)
	assert.True(t, cfg.LogJSON)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	cleanEnv(t)
	for _, k := range []string{"PORT", "CLERK_SECRET_KEY"} {
		require.NoError(t, os.Unsetenv(k))
	}
	require.NoError(t, os.WriteFile(".env", []byte("PORT=4444\nCLERK_SECRET_KEY=sk_from_file\n"), 0600))
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("CLERK_SECRET_KEY")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "4444", cfg.Port)
	assert.Equal(t, "sk_from_file", cfg.ClerkSecretKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"clerk without key", map[string]string{}, "CLERK_SECRET_KEY"},
		{"postgres without url", map[string]string{"CLERK_SECRET_KEY": "sk", "STORE_BACKEND": "postgres"}, "DATABASE_URL"},
		{"unknown backend", map[string]string{"CLERK_SECRET_KEY": "sk", "STORE_BACKEND": "mongo"}, "STORE_BACKEND"},
		{"unknown auth", map[string]string{"AUTH_PROVIDER": "okta"}, "AUTH_PROVIDER"},
		{"short local secret", map[string]string{"AUTH_PROVIDER": "local", "LOCAL_AUTH_SECRET": "short"}, "LOCAL_AUTH_SECRET"},
		{"bad timezone", map[string]string{"CLERK_SECRET_KEY": "sk", "DEFAULT_TIMEZONE": "Mars/Olympus"}, "DEFAULT_TIMEZONE"},
		{"bad burst", map[string]string{"CLERK_SECRET_KEY": "sk", "RATE_LIMIT_BURST": "many"}, "RATE_LIMIT_BURST"},
		{"zero rate", map[string]string{"CLERK_SECRET_KEY": "sk", "RATE_LIMIT_RPS": "0"}, "RATE_LIMIT_RPS"},
		{"bad bool", map[string]string{"CLERK_SECRET_KEY": "sk", "LOG_JSON": "sometimes"}, "LOG_JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNeedsFirebase(t *testing.T) {
	assert.True(t, (&Config{StoreBackend: BackendFirestore, AuthProvider: AuthClerk}).NeedsFirebase())
	assert.True(t, (&Config{StoreBackend: BackendSQLite, AuthProvider: AuthFirebase}).NeedsFirebase())
	assert.False(t, (&Config{StoreBackend: BackendPostgres, AuthProvider: AuthLocal}).NeedsFirebase())
}
