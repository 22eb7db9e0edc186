package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	DatabaseDriver      string
	DatabasePath        string
	DatabaseURL         string
	DatabaseBusyTimeout time.Duration
	SeedOnStart         bool
	JWTSecret           string
	JWTIssuer           string
	AuthUsername        string
	AuthPassword        string
	TokenTTL            time.Duration
	CookieName          string
	CookieSecure        bool
	RedisURL            string
	LoginRateMax        int
	LoginRateWindow     time.Duration
	CORSAllowOrigins    string
	RestrictStudentRole bool
	AnalyticsRecent     int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CLASSROOM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Classroom API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "3001")
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "students.db")
	v.SetDefault("database.busy_timeout_ms", 5000)
	v.SetDefault("database.seed", true)
	v.SetDefault("jwt.issuer", "classroom-api")
	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.password", "admin123")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.cookie_name", "auth_token")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("ratelimit.login_max", 10)
	v.SetDefault("ratelimit.login_window", "1m")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("students.restrict_student_role", false)
	v.SetDefault("analytics.recent_limit", 5)
}

func fromViper(v *viper.Viper) (Config, error) {
	ttl, err := parseDuration(v.GetString("auth.token_ttl"), 24*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid auth token ttl: %w", err)
	}

	window, err := parseDuration(v.GetString("ratelimit.login_window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid login rate limit window: %w", err)
	}

	busyMs := v.GetInt("database.busy_timeout_ms")
	if busyMs <= 0 {
		busyMs = 5000
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseDriver:      strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabasePath:        v.GetString("database.path"),
		DatabaseURL:         v.GetString("database.url"),
		DatabaseBusyTimeout: time.Duration(busyMs) * time.Millisecond,
		SeedOnStart:         v.GetBool("database.seed"),
		JWTSecret:           v.GetString("jwt.secret"),
		JWTIssuer:           v.GetString("jwt.issuer"),
		AuthUsername:        v.GetString("auth.username"),
		AuthPassword:        v.GetString("auth.password"),
		TokenTTL:            ttl,
		CookieName:          v.GetString("auth.cookie_name"),
		CookieSecure:        v.GetBool("auth.cookie_secure"),
		RedisURL:            v.GetString("redis.url"),
		LoginRateMax:        v.GetInt("ratelimit.login_max"),
		LoginRateWindow:     window,
		CORSAllowOrigins:    v.GetString("cors.allow_origins"),
		RestrictStudentRole: v.GetBool("students.restrict_student_role"),
		AnalyticsRecent:     v.GetInt("analytics.recent_limit"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case DriverSQLite:
		if strings.TrimSpace(cfg.DatabasePath) == "" {
			return Config{}, fmt.Errorf("database path must be provided for sqlite")
		}
	case DriverPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return Config{}, fmt.Errorf("database url must be provided for postgres")
		}
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.AuthUsername == "" || cfg.AuthPassword == "" {
		return Config{}, fmt.Errorf("auth credentials must not be empty")
	}

	if cfg.CookieName == "" {
		cfg.CookieName = "auth_token"
	}

	if cfg.LoginRateMax <= 0 {
		cfg.LoginRateMax = 10
	}

	if cfg.AnalyticsRecent <= 0 {
		cfg.AnalyticsRecent = 5
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
