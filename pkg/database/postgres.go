package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Options struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Debug           bool
}

// NewDatabase opens the Postgres connection pool. Driver errors are left
// untranslated so callers can read the violated constraint name.
func NewDatabase(opts Options, log *zap.Logger) (*gorm.DB, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("database url is not set")
	}

	level := gormlogger.Warn
	if opts.Debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(opts.URL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	log.Info("connected to database",
		zap.Int("max_open_conns", opts.MaxOpenConns),
		zap.Bool("debug", opts.Debug))
	return db, nil
}

// RunMigrations applies migrate and logs the outcome.
func RunMigrations(db *gorm.DB, migrate func(*gorm.DB) error, log *zap.Logger) error {
	start := time.Now()
	if err := migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("database migrated", zap.Duration("took", time.Since(start)))
	return nil
}
