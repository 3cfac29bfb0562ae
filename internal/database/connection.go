// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbtlabs/tbt-backend/internal/config"
	"github.com/tbtlabs/tbt-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.Work{},
		&models.WorkCommerce{},
		&models.WorkContext{},
		&models.Certificate{},
		&models.Transfer{},
		&models.Wallet{},
		&models.Alert{},
		&models.WorkView{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Work indexes
		"CREATE INDEX IF NOT EXISTS idx_works_creator ON works(creator_id)",
		"CREATE INDEX IF NOT EXISTS idx_works_owner ON works(current_owner_id)",
		"CREATE INDEX IF NOT EXISTS idx_works_status_category ON works(status, category)",
		"CREATE INDEX IF NOT EXISTS idx_works_created_at ON works(created_at DESC)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_works_mint_address ON works(mint_address) WHERE mint_address IS NOT NULL",

		// Certificate indexes
		"CREATE INDEX IF NOT EXISTS idx_certificates_generated_at ON certificates(work_id, generated_at DESC)",

		// Transfer indexes
		"CREATE INDEX IF NOT EXISTS idx_transfers_work_status ON transfers(work_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_transfers_completed_at ON transfers(completed_at)",

		// Wallet indexes: the composite unique index is the actual
		// mutual-exclusion mechanism for concurrent wallet creation
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_wallets_primary ON wallets(user_id, network) WHERE is_primary",

		// Alert indexes
		"CREATE INDEX IF NOT EXISTS idx_alerts_user_read ON alerts(user_id, is_read)",

		// Analytics indexes
		"CREATE INDEX IF NOT EXISTS idx_work_views_work ON work_views(work_id, created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
