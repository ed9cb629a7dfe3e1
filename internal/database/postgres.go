package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fitrank/fitrank-api/internal/config"
	"github.com/fitrank/fitrank-api/pkg/logger"
)

const connectAttempts = 5

// ConnectPostgres opens a gorm handle and pings it, retrying with exponential
// backoff to tolerate startup races with the database container.
func ConnectPostgres(ctx context.Context, cfg config.PostgresConfig) (*gorm.DB, error) {
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err := open(ctx, cfg)
		if err == nil {
			return db, nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to Postgres: %v", attempt, connectAttempts, err)
		if attempt == connectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("postgres connect after %d attempts: %w", connectAttempts, lastErr)
}

func open(ctx context.Context, cfg config.PostgresConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}
