package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Dialects understood by the gateway.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

const pingTimeout = 5 * time.Second

// Options describes how the single process-wide connection is opened.
type Options struct {
	Driver      string
	Path        string
	URL         string
	BusyTimeout time.Duration
}

// Open establishes the one database connection the process uses and wraps it in a Gateway.
func Open(opts Options) (*Gateway, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case DialectSQLite, "":
		if strings.TrimSpace(opts.Path) == "" {
			return nil, fmt.Errorf("sqlite path must not be empty")
		}
		dialector = sqlite.Open(sqliteDSN(opts.Path, opts.BusyTimeout))
		opts.Driver = DialectSQLite
	case DialectPostgres:
		if strings.TrimSpace(opts.URL) == "" {
			return nil, fmt.Errorf("postgres dsn must not be empty")
		}
		dialector = postgres.Open(opts.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}

	// Exactly one live connection: the store serialises writers itself.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to verify %s connection: %w", opts.Driver, err)
	}

	return &Gateway{db: db, dialect: opts.Driver}, nil
}

func sqliteDSN(path string, busyTimeout time.Duration) string {
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}

	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}

	return fmt.Sprintf("%s%s_busy_timeout=%d", dsn, separator, busyTimeout.Milliseconds())
}
