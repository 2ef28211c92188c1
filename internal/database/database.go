package database

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/loxconnect/connect-api/internal/config"
	"github.com/loxconnect/connect-api/internal/domain"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Migrations holds the goose SQL migrations compiled into the binary
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that goose reads from
const MigrationsDir = "migrations"

// Dialector opens a gorm dialector for a DSN
type Dialector func(dsn string) gorm.Dialector

// NewDatabase connects to PostgreSQL, retrying while the server comes up
func NewDatabase(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	return Open(postgres.Open, cfg, log)
}

// Open connects with the given dialector and applies the pool settings.
// The connection is attempted cfg.ConnectRetries times, cfg.ConnectRetryDelay apart.
func Open(dialector Dialector, cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	attempts := cfg.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err := connect(dialector, cfg)
		if err == nil {
			if attempt > 1 {
				log.Info("Database connection established after retry", zap.Int("attempt", attempt))
			}
			return db, nil
		}
		lastErr = err
		log.Warn("Database connection attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", attempts),
			zap.Error(err),
		)
		if attempt < attempts {
			time.Sleep(cfg.ConnectRetryDelay())
		}
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, lastErr)
}

func connect(dialector Dialector, cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(dialector(cfg.ConnectionString()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Models lists every persisted entity
func Models() []interface{} {
	return []interface{}{
		&domain.UserProfile{},
		&domain.Country{},
		&domain.Customer{},
		&domain.Jobsite{},
		&domain.Label{},
		&domain.QuoteRequest{},
		&domain.Notification{},
		&domain.NotificationSettings{},
		&domain.Broadcast{},
		&domain.Message{},
		&domain.Modification{},
		&domain.Idea{},
		&domain.IdeaLike{},
		&domain.ErrorReport{},
		&domain.Template{},
	}
}

// AutoMigrate creates the schema from the models (development and tests only)
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// HealthCheck pings the database
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Stats is the connection pool snapshot reported by the readiness check
type Stats struct {
	OpenConnections int   `json:"openConnections"`
	InUse           int   `json:"inUse"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"waitCount"`
	WaitDurationMs  int64 `json:"waitDurationMs"`
	MaxOpen         int   `json:"maxOpenConnections"`
}

// HealthCheckWithStats pings the database and returns pool statistics
func HealthCheckWithStats(db *gorm.DB) (*Stats, error) {
	if err := HealthCheck(db); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	s := sqlDB.Stats()
	return &Stats{
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
		WaitCount:       s.WaitCount,
		WaitDurationMs:  s.WaitDuration.Milliseconds(),
		MaxOpen:         s.MaxOpenConnections,
	}, nil
}
