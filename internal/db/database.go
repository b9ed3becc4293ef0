package db

import (
	"context"
	"fmt"
	"time"

	"wallet-backend/internal/config"
	"wallet-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB connects to PostgreSQL and migrates the schema
func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	logrus.WithField("driver", cfg.Driver).Info("Connecting to database")

	database, err := Open(postgres.Open(cfg.DSN))
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	logrus.Info("✅ Database connected and schema migrated")
	return database, nil
}

// Open opens a gorm connection on the given dialector and runs AutoMigrate.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	database, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		PrepareStmt:                              true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := database.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("AutoMigrate failed: %w", err)
	}
	return database, nil
}

// WithTransaction runs fn inside a database transaction. The transaction commits when fn
// returns nil and rolls back on error or panic.
func WithTransaction(ctx context.Context, database *gorm.DB, fn func(tx *gorm.DB) error) (err error) {
	tx := database.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			logrus.WithError(rbErr).Error("Transaction rollback failed")
		}
		return err
	}

	if err = tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
