package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("CLASSROOM_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	require.Equal(t, "students.db", cfg.DatabasePath)
	require.Equal(t, 24*time.Hour, cfg.TokenTTL)
	require.Equal(t, "auth_token", cfg.CookieName)
	require.Equal(t, 5*time.Second, cfg.DatabaseBusyTimeout)
	require.False(t, cfg.RestrictStudentRole)
	require.Equal(t, ":3001", cfg.HTTPAddress())
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("CLASSROOM_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("CLASSROOM_JWT_SECRET", "test-secret")
	t.Setenv("CLASSROOM_DATABASE_DRIVER", "oracle")

	_, err := Load()
	require.ErrorContains(t, err, "unsupported database driver")
}

func TestLoadPostgresNeedsURL(t *testing.T) {
	t.Setenv("CLASSROOM_JWT_SECRET", "test-secret")
	t.Setenv("CLASSROOM_DATABASE_DRIVER", "postgres")
	t.Setenv("CLASSROOM_DATABASE_URL", "")

	_, err := Load()
	require.ErrorContains(t, err, "database url")
}

func TestLoadParsesDurations(t *testing.T) {
	t.Setenv("CLASSROOM_JWT_SECRET", "test-secret")
	t.Setenv("CLASSROOM_AUTH_TOKEN_TTL", "2h")
	t.Setenv("CLASSROOM_RATELIMIT_LOGIN_WINDOW", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 2*time.Hour, cfg.TokenTTL)
	require.Equal(t, 30*time.Second, cfg.LoginRateWindow)
}

func TestHTTPAddressKeepsColonPrefix(t *testing.T) {
	require.Equal(t, ":8080", Config{AppPort: ":8080"}.HTTPAddress())
}
