package services

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"payflow/internal/models"
)

// InitDB initializes the database connection with connection pooling.
// TranslateError is required so the idempotency-key unique index surfaces as
// gorm.ErrDuplicatedKey instead of a driver-specific error.
func InitDB(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("database connection established")
	return db, nil
}

// AutoMigrate runs database migrations for all ledger entities
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")

	err := db.AutoMigrate(
		&models.Payment{},
		&models.PaymentAttempt{},
		&models.PaymentTransaction{},
		&models.Refund{},
		&models.ProviderCallback{},
	)
	if err != nil {
		return err
	}

	log.Info("database migrations completed")
	return nil
}
